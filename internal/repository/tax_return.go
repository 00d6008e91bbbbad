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

const (
	taxReturnsTable       = "tax_returns"
	incomeEntriesTable    = "income_entries"
	extractedEntriesTable = "extracted_entries"
	dependentsTable       = "dependents"
)

var taxReturnColumns = []string{
	"id", "user_id", "tax_year", "filing_status",
	"first_name", "last_name", "spouse_first_name", "spouse_last_name",
	"address", "city", "state", "zip_code",
	"total_income", "adjusted_gross_income", "standard_deduction", "itemized_deduction",
	"taxable_income", "tax_liability", "total_credits", "refund_amount", "amount_owed",
}

type TaxReturnRepository interface {
	Create(ctx context.Context, tr *entity.TaxReturn) error
	GetForOwner(ctx context.Context, returnID, userID uuid.UUID) (*entity.TaxReturn, error)
	ListIncome(ctx context.Context, returnID uuid.UUID) ([]entity.IncomeEntry, error)
	ListDependents(ctx context.Context, returnID uuid.UUID) ([]entity.Dependent, error)
	AddDependent(ctx context.Context, returnID uuid.UUID, dep *entity.Dependent) error
}

type taxReturnRepo struct {
	db  *DB
	log *slog.Logger
}

func NewTaxReturnRepository(db *DB, log *slog.Logger) TaxReturnRepository {
	return &taxReturnRepo{db: db, log: log}
}

func (r *taxReturnRepo) Create(ctx context.Context, tr *entity.TaxReturn) error {
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	if tr.FilingStatus == "" {
		tr.FilingStatus = constants.Single
	}
	query, args := r.db.builder().Insert(taxReturnsTable).
		Columns(taxReturnColumns...).
		Values(
			tr.ID, tr.UserID, tr.TaxYear, string(tr.FilingStatus),
			tr.FirstName, tr.LastName, tr.SpouseFirstName, tr.SpouseLastName,
			tr.Address, tr.City, tr.State, tr.ZipCode,
			tr.TotalIncome, tr.AdjustedGrossIncome, tr.StandardDeduction, tr.ItemizedDeduction,
			tr.TaxableIncome, tr.TaxLiability, tr.TotalCredits, tr.RefundAmount, tr.AmountOwed,
		).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("tax return create failed", "user_id", tr.UserID, "err", err)
		return fmt.Errorf("%w: create tax return: %v", common.ErrDatabase, err)
	}
	r.log.Info("tax return created", "tax_return_id", tr.ID, "tax_year", tr.TaxYear)
	return nil
}

func (r *taxReturnRepo) GetForOwner(ctx context.Context, returnID, userID uuid.UUID) (*entity.TaxReturn, error) {
	b := r.db.builder()
	t := b.Table(taxReturnsTable)
	query, args := b.Select(qualify(t, taxReturnColumns)...).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("id"), returnID),
			entsql.EQ(t.C("user_id"), userID),
		)).
		Query()

	var (
		tr     entity.TaxReturn
		status string
	)
	err := r.db.SQL.QueryRowContext(ctx, query, args...).Scan(
		&tr.ID, &tr.UserID, &tr.TaxYear, &status,
		&tr.FirstName, &tr.LastName, &tr.SpouseFirstName, &tr.SpouseLastName,
		&tr.Address, &tr.City, &tr.State, &tr.ZipCode,
		&tr.TotalIncome, &tr.AdjustedGrossIncome, &tr.StandardDeduction, &tr.ItemizedDeduction,
		&tr.TaxableIncome, &tr.TaxLiability, &tr.TotalCredits, &tr.RefundAmount, &tr.AmountOwed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		r.log.Debug("tax return not found", "tax_return_id", returnID, "user_id", userID)
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.log.Error("tax return fetch failed", "tax_return_id", returnID, "err", err)
		return nil, fmt.Errorf("%w: get tax return: %v", common.ErrDatabase, err)
	}
	tr.FilingStatus = constants.FilingStatus(status)
	return &tr, nil
}

// ListIncome returns the income entries of a return, each with its extracted
// entries in insertion order.
func (r *taxReturnRepo) ListIncome(ctx context.Context, returnID uuid.UUID) ([]entity.IncomeEntry, error) {
	b := r.db.builder()
	ie := b.Table(incomeEntriesTable)
	query, args := b.Select(ie.C("id"), ie.C("tax_return_id"), ie.C("income_type"), ie.C("amount"), ie.C("description")).
		From(ie).
		Where(entsql.EQ(ie.C("tax_return_id"), returnID)).
		OrderBy(ie.C("created_at"), ie.C("id")).
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("income list failed", "tax_return_id", returnID, "err", err)
		return nil, fmt.Errorf("%w: list income: %v", common.ErrDatabase, err)
	}
	var (
		entries []entity.IncomeEntry
		index   = map[uuid.UUID]int{}
	)
	for rows.Next() {
		var (
			e          entity.IncomeEntry
			incomeType string
		)
		if err := rows.Scan(&e.ID, &e.TaxReturnID, &incomeType, &e.Amount, &e.Description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan income: %v", common.ErrDatabase, err)
		}
		e.IncomeType = constants.IncomeType(incomeType)
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list income: %v", common.ErrDatabase, err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]any, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	x := b.Table(extractedEntriesTable)
	query, args = b.Select(x.C("id"), x.C("income_entry_id"), x.C("document_id"), x.C("extracted_data")).
		From(x).
		Where(entsql.In(x.C("income_entry_id"), ids...)).
		OrderBy(x.C("income_entry_id"), x.C("position"), x.C("created_at")).
		Query()
	xrows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("extracted entries list failed", "tax_return_id", returnID, "err", err)
		return nil, fmt.Errorf("%w: list extracted entries: %v", common.ErrDatabase, err)
	}
	defer xrows.Close()
	for xrows.Next() {
		var (
			x     entity.ExtractedEntry
			docID uuid.NullUUID
			data  string
		)
		if err := xrows.Scan(&x.ID, &x.IncomeEntryID, &docID, &data); err != nil {
			return nil, fmt.Errorf("%w: scan extracted entry: %v", common.ErrDatabase, err)
		}
		if docID.Valid {
			id := docID.UUID
			x.DocumentID = &id
		}
		if err := json.Unmarshal([]byte(data), &x.Fields); err != nil {
			// a corrupt row contributes nothing rather than failing the whole return
			r.log.Warn("extracted entry payload unreadable", "extracted_entry_id", x.ID, "err", err)
			x.Fields = map[string]string{}
		}
		i := index[x.IncomeEntryID]
		entries[i].Extracted = append(entries[i].Extracted, x)
	}
	if err := xrows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list extracted entries: %v", common.ErrDatabase, err)
	}
	return entries, nil
}

func (r *taxReturnRepo) ListDependents(ctx context.Context, returnID uuid.UUID) ([]entity.Dependent, error) {
	b := r.db.builder()
	t := b.Table(dependentsTable)
	query, args := b.Select(qualify(t, []string{
		"id", "first_name", "last_name", "ssn", "relationship", "qualifies_for_ctc", "qualifies_for_eitc",
	})...).
		From(t).
		Where(entsql.EQ(t.C("tax_return_id"), returnID)).
		OrderBy(t.C("last_name"), t.C("first_name")).
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("dependents list failed", "tax_return_id", returnID, "err", err)
		return nil, fmt.Errorf("%w: list dependents: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	deps := []entity.Dependent{}
	for rows.Next() {
		var d entity.Dependent
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.SSN, &d.Relationship,
			&d.QualifiesForCTC, &d.QualifiesForEITC); err != nil {
			return nil, fmt.Errorf("%w: scan dependent: %v", common.ErrDatabase, err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list dependents: %v", common.ErrDatabase, err)
	}
	return deps, nil
}

func (r *taxReturnRepo) AddDependent(ctx context.Context, returnID uuid.UUID, dep *entity.Dependent) error {
	if dep.ID == uuid.Nil {
		dep.ID = uuid.New()
	}
	query, args := r.db.builder().Insert(dependentsTable).
		Columns("id", "tax_return_id", "first_name", "last_name", "ssn", "relationship", "qualifies_for_ctc", "qualifies_for_eitc").
		Values(dep.ID, returnID, dep.FirstName, dep.LastName, dep.SSN, dep.Relationship, dep.QualifiesForCTC, dep.QualifiesForEITC).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("dependent create failed", "tax_return_id", returnID, "err", err)
		return fmt.Errorf("%w: add dependent: %v", common.ErrDatabase, err)
	}
	return nil
}

func insertExtractedEntry(ctx context.Context, tx *sql.Tx, db *DB, entryID uuid.UUID, docID *uuid.UUID, position int, fields map[string]string) (uuid.UUID, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal extracted fields: %w", err)
	}
	id := uuid.New()
	var doc any
	if docID != nil {
		doc = *docID
	}
	query, args := db.builder().Insert(extractedEntriesTable).
		Columns("id", "income_entry_id", "document_id", "position", "extracted_data", "created_at").
		Values(id, entryID, doc, position, string(payload), time.Now().UTC()).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return uuid.Nil, fmt.Errorf("%w: insert extracted entry: %v", common.ErrDatabase, err)
	}
	return id, nil
}
