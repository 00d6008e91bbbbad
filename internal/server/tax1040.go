package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/entity"
	"github.com/kattabharath12/tax-1040/internal/pipeline"
)

type DocumentProcessor interface {
	Process(ctx context.Context, docID, userID uuid.UUID) (*pipeline.Result, error)
	Reprocess(ctx context.Context, docID, userID uuid.UUID) (*pipeline.Result, error)
	ProcessReturn(ctx context.Context, returnID, userID uuid.UUID) (*pipeline.BatchResult, error)
}

type IncomeRecorder interface {
	RecordIncomeFromDocument(ctx context.Context, docID, userID uuid.UUID) (*entity.IncomeEntry, error)
}

type SummaryService interface {
	BuildSummary(ctx context.Context, returnID, userID uuid.UUID) (*entity.TaxReturnSummary, error)
	Validate(ctx context.Context, returnID, userID uuid.UUID) (*entity.TaxReturnSummary, entity.Completeness, error)
}

type Exporter interface {
	ExportForm1040XLSX(ctx context.Context, returnID, userID uuid.UUID) ([]byte, error)
}

// Tax1040Server implements Tax1040Handler over the domain services.
type Tax1040Server struct {
	processor DocumentProcessor
	income    IncomeRecorder
	summaries SummaryService
	exporter  Exporter
	logger    *slog.Logger
}

func NewTax1040Server(p DocumentProcessor, income IncomeRecorder, summaries SummaryService, exporter Exporter, logger *slog.Logger) *Tax1040Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tax1040Server{processor: p, income: income, summaries: summaries, exporter: exporter, logger: logger}
}

func (s *Tax1040Server) ProcessDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	docID, userID, err := s.ids(ctx, req, "document_id")
	if err != nil {
		return nil, err
	}
	res, err := s.processor.Process(ctx, docID, userID)
	if err != nil {
		s.logger.Warn("grpc.process.failed", "document_id", docID, "code", common.CodeOf(err), "err", err)
		return nil, toStatus(err)
	}
	return toStruct(res)
}

func (s *Tax1040Server) ReprocessDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	docID, userID, err := s.ids(ctx, req, "document_id")
	if err != nil {
		return nil, err
	}
	res, err := s.processor.Reprocess(ctx, docID, userID)
	if err != nil {
		s.logger.Warn("grpc.reprocess.failed", "document_id", docID, "code", common.CodeOf(err), "err", err)
		return nil, toStatus(err)
	}
	return toStruct(res)
}

func (s *Tax1040Server) ProcessReturn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	returnID, userID, err := s.ids(ctx, req, "tax_return_id")
	if err != nil {
		return nil, err
	}
	res, err := s.processor.ProcessReturn(ctx, returnID, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(res)
}

func (s *Tax1040Server) RecordIncome(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	docID, userID, err := s.ids(ctx, req, "document_id")
	if err != nil {
		return nil, err
	}
	entry, err := s.income.RecordIncomeFromDocument(ctx, docID, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(entry)
}

func (s *Tax1040Server) BuildSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	returnID, userID, err := s.ids(ctx, req, "tax_return_id")
	if err != nil {
		return nil, err
	}
	sum, err := s.summaries.BuildSummary(ctx, returnID, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(sum)
}

func (s *Tax1040Server) ValidateSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	returnID, userID, err := s.ids(ctx, req, "tax_return_id")
	if err != nil {
		return nil, err
	}
	_, c, err := s.summaries.Validate(ctx, returnID, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(c)
}

func (s *Tax1040Server) ExportSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	returnID, userID, err := s.ids(ctx, req, "tax_return_id")
	if err != nil {
		return nil, err
	}
	xlsx, err := s.exporter.ExportForm1040XLSX(ctx, returnID, userID)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "tax_return_id", returnID, "err", err)
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"file_name":      fmt.Sprintf("form1040-%s.xlsx", returnID),
		"content_type":   "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"content_base64": base64.StdEncoding.EncodeToString(xlsx),
	})
}

// ids reads the named id from req and the requester from ctx.
func (s *Tax1040Server) ids(ctx context.Context, req *structpb.Struct, field string) (uuid.UUID, uuid.UUID, error) {
	userID, err := uuid.Parse(common.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, uuid.Nil, toStatus(common.AuthorizationError("missing requester identity"))
	}
	raw := strings.TrimSpace(req.GetFields()[field].GetStringValue())
	v := common.NewValidator()
	v.Field(field, raw, common.Required, common.UUID)
	if err := v.Err(); err != nil {
		return uuid.Nil, uuid.Nil, toStatus(err)
	}
	return uuid.MustParse(raw), userID, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, toStatus(fmt.Errorf("encode response: %w", err))
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, toStatus(fmt.Errorf("encode response: %w", err))
	}
	return structpb.NewStruct(m)
}
