package summary

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
	"github.com/kattabharath12/tax-1040/internal/repository"
)

func setup(t *testing.T) (*Service, repository.TaxReturnRepository, repository.IncomeRepository, uuid.UUID) {
	t.Helper()
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
	return NewService(returns, log), returns, repository.NewIncomeRepository(db, log), userID
}

func TestBuildSummaryFromStore(t *testing.T) {
	svc, returns, income, userID := setup(t)
	ctx := context.Background()

	tr := &entity.TaxReturn{
		UserID:            userID,
		TaxYear:           2024,
		FilingStatus:      constants.MarriedFilingJointly,
		FirstName:         "Ada",
		LastName:          "Lovelace",
		SpouseFirstName:   "William",
		Address:           "12 St James's Square",
		State:             "NY",
		ZipCode:           "10001",
		TotalIncome:       decimal.RequireFromString("50120.10"),
		StandardDeduction: decimal.NewFromInt(29200),
		TaxLiability:      decimal.NewFromInt(2100),
		TotalCredits:      decimal.NewFromInt(500),
	}
	if err := returns.Create(ctx, tr); err != nil {
		t.Fatalf("create return: %v", err)
	}
	if err := income.Create(ctx, &entity.IncomeEntry{
		TaxReturnID: tr.ID,
		IncomeType:  constants.IncomeW2Wages,
		Amount:      decimal.NewFromInt(50000),
		Extracted:   []entity.ExtractedEntry{{Fields: map[string]string{"federalIncomeTaxWithheld": "1234.56"}}},
	}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	if err := income.Create(ctx, &entity.IncomeEntry{
		TaxReturnID: tr.ID,
		IncomeType:  constants.IncomeInterest,
		Amount:      decimal.RequireFromString("120.10"),
	}); err != nil {
		t.Fatalf("create interest: %v", err)
	}
	if err := returns.AddDependent(ctx, tr.ID, &entity.Dependent{FirstName: "Byron", LastName: "King", QualifiesForCTC: true}); err != nil {
		t.Fatalf("add dependent: %v", err)
	}

	sum, err := svc.BuildSummary(ctx, tr.ID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.W2Wages.Equal(decimal.NewFromInt(50000)) || !sum.InterestIncome.Equal(decimal.RequireFromString("120.10")) {
		t.Fatalf("totals: w2=%s interest=%s", sum.W2Wages, sum.InterestIncome)
	}
	if !sum.FederalWithholding.Equal(decimal.RequireFromString("1234.56")) {
		t.Fatalf("withholding = %s", sum.FederalWithholding)
	}
	if !sum.TotalTax.Equal(decimal.NewFromInt(1600)) {
		t.Fatalf("total tax = %s", sum.TotalTax)
	}
	if sum.RefundAmount.IsPositive() || !sum.AmountOwed.Equal(decimal.RequireFromString("365.44")) {
		t.Fatalf("refund=%s owed=%s", sum.RefundAmount, sum.AmountOwed)
	}
	if len(sum.Dependents) != 1 || !sum.HasW2 || !sum.Has1099 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	_, c, err := svc.Validate(ctx, tr.ID, userID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.IsValid || len(c.MissingFields) != 2 || c.MissingFields[0] != "City" || c.MissingFields[1] != "Spouse Last Name" {
		t.Fatalf("completeness = %+v", c)
	}
}

func TestBuildSummaryNotOwned(t *testing.T) {
	svc, returns, _, userID := setup(t)
	ctx := context.Background()
	tr := &entity.TaxReturn{UserID: userID, TaxYear: 2024}
	if err := returns.Create(ctx, tr); err != nil {
		t.Fatalf("create return: %v", err)
	}
	if _, err := svc.BuildSummary(ctx, tr.ID, uuid.New()); common.CodeOf(err) != common.CodeNotFound {
		t.Fatalf("code = %q, err = %v", common.CodeOf(err), err)
	}
}
