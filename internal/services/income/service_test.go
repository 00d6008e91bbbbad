package income

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/entity"
	"github.com/kattabharath12/tax-1040/internal/form1040"
	"github.com/kattabharath12/tax-1040/internal/repository"
)

func TestRecordIncomeFromDocument(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.OpenSQLite(ctx, "file:"+filepath.Join(t.TempDir(), "tax.db"), log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close(log) })
	if err := repository.Migrate(ctx, db, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userID := uuid.New()
	if err := repository.NewUserRepository(db, log).Create(ctx, userID, "filer@example.com"); err != nil {
		t.Fatalf("user: %v", err)
	}
	returns := repository.NewTaxReturnRepository(db, log)
	tr := &entity.TaxReturn{UserID: userID, TaxYear: 2024}
	if err := returns.Create(ctx, tr); err != nil {
		t.Fatalf("return: %v", err)
	}
	docs := repository.NewDocumentRepository(db, log)
	doc := &entity.Document{TaxReturnID: tr.ID, Category: constants.W2, FileName: "w2.pdf", FilePath: "w2.pdf"}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("document: %v", err)
	}

	svc := NewService(docs, repository.NewIncomeRepository(db, log), log)

	if _, err := svc.RecordIncomeFromDocument(ctx, doc.ID, userID); common.CodeOf(err) != common.CodeInvalidArgument {
		t.Fatalf("pending document: code = %q", common.CodeOf(err))
	}

	if err := docs.BeginProcessing(ctx, doc.ID); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := docs.Complete(ctx, doc.ID, &entity.ExtractedRecord{
		DocumentType: constants.W2,
		Fields:       map[string]string{"wages": "50000.25", "federalIncomeTaxWithheld": "1234.56", "employerName": "Acme Corp"},
		Confidence:   0.9,
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	entry, err := svc.RecordIncomeFromDocument(ctx, doc.ID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.IncomeType != constants.IncomeW2Wages || !entry.Amount.Equal(decimal.RequireFromString("50000.25")) || entry.Description != "Acme Corp" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	entries, err := returns.ListIncome(ctx, tr.ID)
	if err != nil {
		t.Fatalf("list income: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Extracted) != 1 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	x := entries[0].Extracted[0]
	if x.DocumentID == nil || *x.DocumentID != doc.ID || x.Fields["federalIncomeTaxWithheld"] != "1234.56" {
		t.Fatalf("unexpected extracted entry: %+v", x)
	}

	if _, err := svc.RecordIncomeFromDocument(ctx, doc.ID, uuid.New()); common.CodeOf(err) != common.CodeNotFound {
		t.Fatalf("foreign document: code = %q", common.CodeOf(err))
	}
}

func TestRecordIncomeFromDocumentTwiceThenReprocess(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.OpenSQLite(ctx, "file:"+filepath.Join(t.TempDir(), "tax.db"), log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close(log) })
	if err := repository.Migrate(ctx, db, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userID := uuid.New()
	if err := repository.NewUserRepository(db, log).Create(ctx, userID, "filer@example.com"); err != nil {
		t.Fatalf("user: %v", err)
	}
	returns := repository.NewTaxReturnRepository(db, log)
	tr := &entity.TaxReturn{UserID: userID, TaxYear: 2024}
	if err := returns.Create(ctx, tr); err != nil {
		t.Fatalf("return: %v", err)
	}
	docs := repository.NewDocumentRepository(db, log)
	doc := &entity.Document{TaxReturnID: tr.ID, Category: constants.W2, FileName: "w2.pdf", FilePath: "w2.pdf"}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("document: %v", err)
	}
	complete := func(withheld string) {
		t.Helper()
		if err := docs.BeginProcessing(ctx, doc.ID); err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := docs.Complete(ctx, doc.ID, &entity.ExtractedRecord{
			DocumentType: constants.W2,
			Fields:       map[string]string{"wages": "50000", "federalIncomeTaxWithheld": withheld, "employerName": "Acme Corp"},
			Confidence:   0.9,
		}); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	svc := NewService(docs, repository.NewIncomeRepository(db, log), log)
	complete("1000")
	first, err := svc.RecordIncomeFromDocument(ctx, doc.ID, userID)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	second, err := svc.RecordIncomeFromDocument(ctx, doc.ID, userID)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("second record created entry %s, want %s", second.ID, first.ID)
	}

	if _, err := docs.Reset(ctx, doc.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	complete("2000")

	entries, err := returns.ListIncome(ctx, tr.ID)
	if err != nil {
		t.Fatalf("list income: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Extracted) != 1 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	totals := form1040.Aggregate(entries)
	if !totals.W2Wages.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("W2 wages = %s, want 50000", totals.W2Wages)
	}
	if !totals.FederalWithholding.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("withholding = %s, want 2000", totals.FederalWithholding)
	}
}
