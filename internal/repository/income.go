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

	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/entity"
)

type IncomeRepository interface {
	// Create inserts the entry and its extracted entries in one transaction.
	Create(ctx context.Context, entry *entity.IncomeEntry) error
	// RecordForDocument creates the entry backed by docID, or refreshes the
	// entry already linked to it. It reports whether a new entry was created.
	RecordForDocument(ctx context.Context, docID uuid.UUID, entry *entity.IncomeEntry) (bool, error)
}

type incomeRepo struct {
	db  *DB
	log *slog.Logger
}

func NewIncomeRepository(db *DB, log *slog.Logger) IncomeRepository {
	return &incomeRepo{db: db, log: log}
}

func (r *incomeRepo) Create(ctx context.Context, entry *entity.IncomeEntry) (err error) {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.insert(ctx, tx, entry); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.log.Info("income entry created", "income_entry_id", entry.ID, "income_type", entry.IncomeType,
		"amount", entry.Amount.String(), "extracted", len(entry.Extracted))
	return nil
}

func (r *incomeRepo) RecordForDocument(ctx context.Context, docID uuid.UUID, entry *entity.IncomeEntry) (created bool, err error) {
	if len(entry.Extracted) != 1 {
		return false, fmt.Errorf("%w: a document-backed income entry has exactly one extracted entry", common.ErrInvalidInput)
	}
	x := &entry.Extracted[0]
	x.DocumentID = &docID

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b := r.db.builder()
	t := b.Table(extractedEntriesTable)
	query, args := b.Select(t.C("id"), t.C("income_entry_id")).
		From(t).
		Where(entsql.EQ(t.C("document_id"), docID)).
		Query()
	var xID, entryID uuid.UUID
	err = tx.QueryRowContext(ctx, query, args...).Scan(&xID, &entryID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err = r.insert(ctx, tx, entry); err != nil {
			return false, err
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("%w: find income entry for document %s: %v", common.ErrDatabase, docID, err)
	default:
		entry.ID, x.ID, x.IncomeEntryID = entryID, xID, entryID
		if err = r.refresh(ctx, tx, entry); err != nil {
			r.log.Error("income entry refresh failed", "income_entry_id", entryID, "document_id", docID, "err", err)
			return false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.log.Info("income entry recorded", "income_entry_id", entry.ID, "document_id", docID,
		"created", created, "amount", entry.Amount.String())
	return created, nil
}

func (r *incomeRepo) insert(ctx context.Context, tx *sql.Tx, entry *entity.IncomeEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	query, args := r.db.builder().Insert(incomeEntriesTable).
		Columns("id", "tax_return_id", "income_type", "amount", "description", "created_at").
		Values(entry.ID, entry.TaxReturnID, string(entry.IncomeType), entry.Amount, entry.Description, time.Now().UTC()).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("income entry create failed", "tax_return_id", entry.TaxReturnID, "err", err)
		return fmt.Errorf("%w: insert income entry: %v", common.ErrDatabase, err)
	}

	for i := range entry.Extracted {
		x := &entry.Extracted[i]
		x.IncomeEntryID = entry.ID
		id, err := insertExtractedEntry(ctx, tx, r.db, entry.ID, x.DocumentID, i, x.Fields)
		if err != nil {
			r.log.Error("extracted entry create failed", "income_entry_id", entry.ID, "err", err)
			return err
		}
		x.ID = id
	}
	return nil
}

// refresh overwrites an existing entry and its single extracted entry.
func (r *incomeRepo) refresh(ctx context.Context, tx *sql.Tx, entry *entity.IncomeEntry) error {
	query, args := r.db.builder().Update(incomeEntriesTable).
		Set("income_type", string(entry.IncomeType)).
		Set("amount", entry.Amount).
		Set("description", entry.Description).
		Where(entsql.EQ("id", entry.ID)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: update income entry: %v", common.ErrDatabase, err)
	}

	x := entry.Extracted[0]
	payload, err := json.Marshal(x.Fields)
	if err != nil {
		return fmt.Errorf("marshal extracted fields: %w", err)
	}
	query, args = r.db.builder().Update(extractedEntriesTable).
		Set("extracted_data", string(payload)).
		Where(entsql.EQ("id", x.ID)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: update extracted entry: %v", common.ErrDatabase, err)
	}
	return nil
}
