package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/entity"
)

const documentsTable = "documents"

var documentColumns = []string{
	"id", "tax_return_id", "category", "file_name", "file_path",
	"processing_status", "ocr_text", "extracted_data", "confidence", "error_message",
}

// DocumentRepository owns every status transition of a document row.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, docID uuid.UUID) (*entity.Document, error)
	GetForOwner(ctx context.Context, docID, userID uuid.UUID) (*entity.Document, error)
	ListByReturn(ctx context.Context, returnID uuid.UUID) ([]*entity.Document, error)
	BeginProcessing(ctx context.Context, docID uuid.UUID) error
	ExpireStale(ctx context.Context, docID uuid.UUID, lease time.Duration) (bool, error)
	Reset(ctx context.Context, docID uuid.UUID) (bool, error)
	Complete(ctx context.Context, docID uuid.UUID, rec *entity.ExtractedRecord) error
	Fail(ctx context.Context, docID uuid.UUID, message string) error
}

type documentRepo struct {
	db  *DB
	log *slog.Logger
}

func NewDocumentRepository(db *DB, log *slog.Logger) DocumentRepository {
	return &documentRepo{db: db, log: log}
}

func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = constants.StatusPending
	}
	query, args := r.db.builder().Insert(documentsTable).
		Columns("id", "tax_return_id", "category", "file_name", "file_path", "processing_status", "updated_at").
		Values(doc.ID, doc.TaxReturnID, string(doc.Category), doc.FileName, doc.FilePath, string(doc.Status), time.Now().UTC()).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("document create failed", "tax_return_id", doc.TaxReturnID, "err", err)
		return fmt.Errorf("%w: create document: %v", common.ErrDatabase, err)
	}
	r.log.Info("document created", "document_id", doc.ID, "category", doc.Category)
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, docID uuid.UUID) (*entity.Document, error) {
	b := r.db.builder()
	t := b.Table(documentsTable)
	query, args := b.Select(qualify(t, documentColumns)...).
		From(t).
		Where(entsql.EQ(t.C("id"), docID)).
		Query()
	return r.scanOne(ctx, docID, query, args)
}

// GetForOwner only returns the document when its tax return belongs to userID.
func (r *documentRepo) GetForOwner(ctx context.Context, docID, userID uuid.UUID) (*entity.Document, error) {
	b := r.db.builder()
	d := b.Table(documentsTable)
	tr := b.Table(taxReturnsTable)
	query, args := b.Select(qualify(d, documentColumns)...).
		From(d).
		Join(tr).On(d.C("tax_return_id"), tr.C("id")).
		Where(entsql.And(
			entsql.EQ(d.C("id"), docID),
			entsql.EQ(tr.C("user_id"), userID),
		)).
		Query()
	return r.scanOne(ctx, docID, query, args)
}

func (r *documentRepo) ListByReturn(ctx context.Context, returnID uuid.UUID) ([]*entity.Document, error) {
	b := r.db.builder()
	t := b.Table(documentsTable)
	query, args := b.Select(qualify(t, documentColumns)...).
		From(t).
		Where(entsql.EQ(t.C("tax_return_id"), returnID)).
		OrderBy(t.C("file_name"), t.C("id")).
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("document list failed", "tax_return_id", returnID, "err", err)
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// BeginProcessing moves the document to PROCESSING unless another run already holds it.
// A lost race returns common.ErrConflict.
func (r *documentRepo) BeginProcessing(ctx context.Context, docID uuid.UUID) error {
	query, args := r.db.builder().Update(documentsTable).
		Set("processing_status", string(constants.StatusProcessing)).
		SetNull("error_message").
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("id", docID),
			entsql.NEQ("processing_status", string(constants.StatusProcessing)),
		)).
		Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		r.log.Error("document.status.begin failed", "document_id", docID, "err", err)
		return err
	}
	if n == 0 {
		r.log.Warn("document.status.begin conflict", "document_id", docID)
		return fmt.Errorf("%w: document %s is already processing", common.ErrConflict, docID)
	}
	r.log.Info("document.status.begin", "document_id", docID)
	return nil
}

// ExpireStale fails a document whose PROCESSING lease is older than lease,
// which only happens when the run holding it died. It reports whether the
// row was released.
func (r *documentRepo) ExpireStale(ctx context.Context, docID uuid.UUID, lease time.Duration) (bool, error) {
	now := time.Now().UTC()
	query, args := r.db.builder().Update(documentsTable).
		Set("processing_status", string(constants.StatusFailed)).
		Set("error_message", "processing abandoned before completion").
		Set("updated_at", now).
		Where(entsql.And(
			entsql.EQ("id", docID),
			entsql.EQ("processing_status", string(constants.StatusProcessing)),
			entsql.LT("updated_at", now.Add(-lease)),
		)).
		Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		r.log.Error("document.status.expire failed", "document_id", docID, "err", err)
		return false, err
	}
	if n > 0 {
		r.log.Warn("document.status.expire", "document_id", docID, "lease", lease)
	}
	return n > 0, nil
}

// Reset returns a COMPLETED or FAILED document to PENDING. It reports whether a row changed.
func (r *documentRepo) Reset(ctx context.Context, docID uuid.UUID) (bool, error) {
	query, args := r.db.builder().Update(documentsTable).
		Set("processing_status", string(constants.StatusPending)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("id", docID),
			entsql.In("processing_status", string(constants.StatusCompleted), string(constants.StatusFailed)),
		)).
		Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		r.log.Error("document.status.reset failed", "document_id", docID, "err", err)
		return false, err
	}
	r.log.Info("document.status.reset", "document_id", docID, "changed", n > 0)
	return n > 0, nil
}

// Complete stores rec as the document's only extracted record. An income
// entry already recorded from the document picks up the new fields.
func (r *documentRepo) Complete(ctx context.Context, docID uuid.UUID, rec *entity.ExtractedRecord) (err error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal extracted record: %w", err)
	}
	fields := rec.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	fieldsPayload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal extracted fields: %w", err)
	}

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args := r.db.builder().Update(documentsTable).
		Set("processing_status", string(constants.StatusCompleted)).
		Set("ocr_text", rec.OCRText).
		Set("extracted_data", string(payload)).
		Set("confidence", rec.Confidence).
		SetNull("error_message").
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("id", docID),
			entsql.EQ("processing_status", string(constants.StatusProcessing)),
		)).
		Query()
	n, err := execIn(ctx, tx, query, args)
	if err != nil {
		r.log.Error("document.status.complete failed", "document_id", docID, "err", err)
		return err
	}
	if n == 0 {
		err = fmt.Errorf("%w: document %s left PROCESSING before completion", common.ErrConflict, docID)
		return err
	}

	query, args = r.db.builder().Update(extractedEntriesTable).
		Set("extracted_data", string(fieldsPayload)).
		Where(entsql.EQ("document_id", docID)).
		Query()
	linked, err := execIn(ctx, tx, query, args)
	if err != nil {
		r.log.Error("document.status.complete refresh failed", "document_id", docID, "err", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.log.Info("document.status.complete", "document_id", docID, "fields", len(rec.Fields),
		"confidence", rec.Confidence, "linked_entries", linked)
	return nil
}

// Fail records the failure message; the previous extracted record is kept.
func (r *documentRepo) Fail(ctx context.Context, docID uuid.UUID, message string) error {
	query, args := r.db.builder().Update(documentsTable).
		Set("processing_status", string(constants.StatusFailed)).
		Set("error_message", message).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", docID)).
		Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		r.log.Error("document.status.fail failed", "document_id", docID, "err", err)
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", common.ErrNotFound, docID)
	}
	r.log.Warn("document.status.fail", "document_id", docID, "error", message)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *documentRepo) exec(ctx context.Context, query string, args []any) (int64, error) {
	return execIn(ctx, r.db.SQL, query, args)
}

func execIn(ctx context.Context, ex execer, query string, args []any) (int64, error) {
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", common.ErrDatabase, err)
	}
	return n, nil
}

func (r *documentRepo) scanOne(ctx context.Context, docID uuid.UUID, query string, args []any) (*entity.Document, error) {
	row := r.db.SQL.QueryRowContext(ctx, query, args...)
	doc, err := scanDocument(row)
	if errors.Is(err, common.ErrNotFound) {
		r.log.Debug("document not found", "document_id", docID)
	}
	return doc, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*entity.Document, error) {
	var (
		doc                        entity.Document
		category, status           string
		ocrText, extracted, errMsg sql.NullString
		confidence                 sql.NullFloat64
	)
	err := s.Scan(&doc.ID, &doc.TaxReturnID, &category, &doc.FileName, &doc.FilePath,
		&status, &ocrText, &extracted, &confidence, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan document: %v", common.ErrDatabase, err)
	}

	doc.Category = constants.DocumentCategory(category)
	doc.Status = constants.ProcessingStatus(status)
	if ocrText.Valid {
		doc.OCRText = &ocrText.String
	}
	if errMsg.Valid {
		doc.ErrorMessage = &errMsg.String
	}
	if confidence.Valid {
		doc.Confidence = &confidence.Float64
	}
	if extracted.Valid && extracted.String != "" {
		var rec entity.ExtractedRecord
		if err := json.Unmarshal([]byte(extracted.String), &rec); err != nil {
			return nil, fmt.Errorf("%w: decode extracted_data for %s: %v", common.ErrDatabase, doc.ID, err)
		}
		doc.Record = &rec
	}
	return &doc, nil
}

func qualify(t *entsql.SelectTable, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = t.C(c)
	}
	return out
}
