package income

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/entity"
	"github.com/kattabharath12/tax-1040/internal/form1040"
	"github.com/kattabharath12/tax-1040/internal/repository"
)

// Service turns processed documents into income entries.
type Service struct {
	docRepo    repository.DocumentRepository
	incomeRepo repository.IncomeRepository
	logger     *slog.Logger
}

func NewService(docRepo repository.DocumentRepository, incomeRepo repository.IncomeRepository, logger *slog.Logger) *Service {
	return &Service{docRepo: docRepo, incomeRepo: incomeRepo, logger: logger}
}

// description candidates per category, first non-empty wins
var describedBy = map[constants.DocumentCategory][]string{
	constants.W2: {"employerName"},
}

// RecordIncomeFromDocument creates an income entry from a COMPLETED document.
// The document's extracted fields become the entry's first extracted entry.
// Recording the same document again refreshes that entry instead of adding one.
func (s *Service) RecordIncomeFromDocument(ctx context.Context, docID, userID uuid.UUID) (*entity.IncomeEntry, error) {
	doc, err := s.docRepo.GetForOwner(ctx, docID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NotFoundError(fmt.Sprintf("document %s not found", docID), err)
	}
	if err != nil {
		return nil, common.PersistenceError("failed to load document", err)
	}
	if doc.Status != constants.StatusCompleted || doc.Record == nil {
		return nil, common.InvalidArgumentErrorf("document %s is %s; income can only be recorded from a COMPLETED document", docID, doc.Status)
	}

	incomeType, amountField := constants.IncomeTypeFor(doc.Category)
	fields := make(map[string]string, len(doc.Record.Fields))
	for k, v := range doc.Record.Fields {
		fields[k] = v
	}
	entry := &entity.IncomeEntry{
		TaxReturnID: doc.TaxReturnID,
		IncomeType:  incomeType,
		Amount:      form1040.ParseAmount(doc.Record.Field(amountField)),
		Description: describe(doc),
		Extracted:   []entity.ExtractedEntry{{Fields: fields}},
	}
	created, err := s.incomeRepo.RecordForDocument(ctx, doc.ID, entry)
	if err != nil {
		return nil, common.PersistenceError("failed to record income", err)
	}
	s.logger.Info("income.record.ok", "document_id", docID, "income_entry_id", entry.ID,
		"income_type", incomeType, "amount", entry.Amount.StringFixed(2), "created", created)
	return entry, nil
}

func describe(doc *entity.Document) string {
	names, ok := describedBy[doc.Category]
	if !ok {
		names = []string{"payerName"}
	}
	for _, n := range names {
		if v := strings.TrimSpace(doc.Record.Field(n)); v != "" {
			return v
		}
	}
	return doc.FileName
}
