package form1040

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func entry(t constants.IncomeType, amount string, extracted ...map[string]string) entity.IncomeEntry {
	e := entity.IncomeEntry{ID: uuid.New(), IncomeType: t, Amount: d(amount)}
	for _, f := range extracted {
		e.Extracted = append(e.Extracted, entity.ExtractedEntry{Fields: f})
	}
	return e
}

func newTestBuilder() *Builder {
	b := NewBuilder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return b
}

func TestAggregatePartitionIsExhaustive(t *testing.T) {
	entries := []entity.IncomeEntry{
		entry(constants.IncomeW2Wages, "50000.00"),
		entry(constants.IncomeW2Wages, "1250.50"),
		entry(constants.IncomeInterest, "120.10"),
		entry(constants.IncomeDividends, "300"),
		entry(constants.IncomeBusiness, "4000.01"),
		entry(constants.IncomeCapitalGains, "999.99"),
		entry(constants.IncomeOther, "15"),
		entry("1099_MISC", "600"),
		entry("ALIMONY", "0.01"),
	}
	totals := Aggregate(entries)

	want := decimal.Zero
	for _, e := range entries {
		want = want.Add(e.Amount)
	}
	if !totals.Sum().Equal(want) {
		t.Fatalf("category sum = %s, entries sum = %s", totals.Sum(), want)
	}
	if !totals.W2Wages.Equal(d("51250.50")) {
		t.Fatalf("W2 wages = %s", totals.W2Wages)
	}
	if !totals.OtherIncome.Equal(d("615.01")) {
		t.Fatalf("other = %s", totals.OtherIncome)
	}
	if !totals.HasW2 || !totals.Has1099 {
		t.Fatalf("flags: hasW2=%v has1099=%v", totals.HasW2, totals.Has1099)
	}
}

func TestAggregateHas1099(t *testing.T) {
	cases := []struct {
		typ  constants.IncomeType
		want bool
	}{
		{constants.IncomeW2Wages, false},
		{constants.IncomeBusiness, false},
		{constants.IncomeInterest, true},
		{constants.IncomeDividends, true},
		{"1099_NEC", true},
	}
	for _, c := range cases {
		got := Aggregate([]entity.IncomeEntry{entry(c.typ, "1")}).Has1099
		if got != c.want {
			t.Errorf("%s: has1099 = %v, want %v", c.typ, got, c.want)
		}
	}
}

func TestAggregateWithholdingUsesFirstExtractedEntry(t *testing.T) {
	entries := []entity.IncomeEntry{
		entry(constants.IncomeW2Wages, "50000",
			map[string]string{"federalIncomeTaxWithheld": "1234.56"},
			map[string]string{"federalIncomeTaxWithheld": "9999"},
		),
		entry(constants.IncomeW2Wages, "1000", map[string]string{"federalTaxWithheld": "$100.44"}),
		entry(constants.IncomeW2Wages, "1000", map[string]string{"federalIncomeTaxWithheld": "N/A"}),
		entry(constants.IncomeW2Wages, "1000"),
		// withholding on non-W2 entries is ignored
		entry(constants.IncomeInterest, "10", map[string]string{"federalIncomeTaxWithheld": "5"}),
	}
	totals := Aggregate(entries)
	if !totals.FederalWithholding.Equal(d("1335.00")) {
		t.Fatalf("withholding = %s, want 1335.00", totals.FederalWithholding)
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"":          "0",
		"N/A":       "0",
		".":         "0",
		"$1,234.56": "1234.56",
		"1234.56":   "1234.56",
		"12.34.56":  "12.3456",
		" 50,000 ":  "50000",
	}
	for in, want := range cases {
		if got := ParseAmount(in); !got.Equal(d(want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestBuildDeductionAndTax(t *testing.T) {
	cases := []struct {
		name                     string
		std, itemized            string
		liability, credits       string
		wantDeduction, wantTotal string
	}{
		{"standard wins", "14600", "9000", "5000", "2000", "14600", "3000"},
		{"itemized wins", "14600", "20000.50", "5000", "0", "20000.50", "5000"},
		{"zero itemized", "14600", "0", "100", "100", "14600", "0"},
		{"negative clamped", "-5", "0", "0", "0", "0", "0"},
		{"credits exceed liability", "0", "0", "1000", "4000", "0", "0"},
	}
	b := newTestBuilder()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := b.Build(&entity.TaxReturn{
				StandardDeduction: d(c.std),
				ItemizedDeduction: d(c.itemized),
				TaxLiability:      d(c.liability),
				TotalCredits:      d(c.credits),
			})
			if !s.TotalDeduction.Equal(d(c.wantDeduction)) {
				t.Fatalf("deduction = %s, want %s", s.TotalDeduction, c.wantDeduction)
			}
			if !s.TotalTax.Equal(d(c.wantTotal)) {
				t.Fatalf("total tax = %s, want %s", s.TotalTax, c.wantTotal)
			}
			if s.TotalTax.IsNegative() {
				t.Fatal("total tax negative")
			}
		})
	}
}

func TestBuildRefundOwedExclusive(t *testing.T) {
	w2 := entry(constants.IncomeW2Wages, "50000", map[string]string{"federalIncomeTaxWithheld": "3000"})
	cases := []struct {
		name                 string
		tr                   entity.TaxReturn
		wantRefund, wantOwed string
	}{
		{"stored refund", entity.TaxReturn{RefundAmount: d("500"), AmountOwed: d("200")}, "500", "0"},
		{"stored owed", entity.TaxReturn{AmountOwed: d("200")}, "0", "200"},
		{"derived refund", entity.TaxReturn{TaxLiability: d("2500"), IncomeEntries: []entity.IncomeEntry{w2}}, "500", "0"},
		{"derived owed", entity.TaxReturn{TaxLiability: d("4000"), TotalCredits: d("500"), IncomeEntries: []entity.IncomeEntry{w2}}, "0", "500"},
		{"all zero", entity.TaxReturn{}, "0", "0"},
	}
	b := newTestBuilder()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := b.Build(&c.tr)
			if !s.RefundAmount.Equal(d(c.wantRefund)) || !s.AmountOwed.Equal(d(c.wantOwed)) {
				t.Fatalf("refund=%s owed=%s, want %s/%s", s.RefundAmount, s.AmountOwed, c.wantRefund, c.wantOwed)
			}
			if s.RefundAmount.IsPositive() && s.AmountOwed.IsPositive() {
				t.Fatal("refund and owed both positive")
			}
		})
	}
}

func TestBuildPassThroughAndDefaults(t *testing.T) {
	tr := &entity.TaxReturn{
		ID:                  uuid.New(),
		TotalIncome:         d("60000"),
		AdjustedGrossIncome: d("58000"),
		TaxableIncome:       d("43400"),
		TaxLiability:        d("4900"),
		TotalCredits:        d("2000"),
		IncomeEntries: []entity.IncomeEntry{
			entry(constants.IncomeW2Wages, "50000", map[string]string{"federalIncomeTaxWithheld": "4000"}),
		},
	}
	s := newTestBuilder().Build(tr)

	// stored totals are trusted, not re-derived from the 50000 of entries
	if !s.TotalIncome.Equal(d("60000")) || !s.AdjustedGrossIncome.Equal(d("58000")) || !s.TaxableIncome.Equal(d("43400")) {
		t.Fatalf("pass-through figures changed: %+v", s)
	}
	if s.TaxYear != 2024 {
		t.Fatalf("tax year = %d, want 2024", s.TaxYear)
	}
	if s.FilingStatus != constants.Single {
		t.Fatalf("filing status = %s", s.FilingStatus)
	}
	if !s.ChildTaxCredit.Equal(d("2000")) || !s.EarnedIncomeCredit.IsZero() || !s.EstimatedTax.IsZero() {
		t.Fatalf("credits: ctc=%s eitc=%s", s.ChildTaxCredit, s.EarnedIncomeCredit)
	}
	if !s.TotalPayments.Equal(d("4000")) || !s.RefundAmount.Equal(d("1100")) {
		t.Fatalf("payments=%s refund=%s", s.TotalPayments, s.RefundAmount)
	}
	if s.Dependents == nil {
		t.Fatal("dependents should be an empty list, not nil")
	}
}

func TestValidateCompleteness(t *testing.T) {
	s := &entity.TaxReturnSummary{
		FilingStatus:    constants.MarriedFilingJointly,
		FirstName:       "Ada",
		LastName:        "Lovelace",
		SpouseFirstName: "William",
		Address:         "12 St James's Square",
		State:           "NY",
		ZipCode:         "10001",
	}
	got := ValidateCompleteness(s)
	want := []string{"City", "Spouse Last Name"}
	if got.IsValid || !reflect.DeepEqual(got.MissingFields, want) {
		t.Fatalf("got %+v, want missing %v", got, want)
	}

	s.FilingStatus = constants.Single
	s.City = "New York"
	got = ValidateCompleteness(s)
	if !got.IsValid || len(got.MissingFields) != 0 {
		t.Fatalf("single filer should not need spouse fields: %+v", got)
	}

	got = ValidateCompleteness(&entity.TaxReturnSummary{FirstName: "  "})
	want = []string{"First Name", "Last Name", "Address", "City", "State", "ZIP Code"}
	if !reflect.DeepEqual(got.MissingFields, want) {
		t.Fatalf("missing = %v, want %v", got.MissingFields, want)
	}
}

func TestLines(t *testing.T) {
	s := newTestBuilder().Build(&entity.TaxReturn{
		TotalIncome: d("51000"),
		IncomeEntries: []entity.IncomeEntry{
			entry(constants.IncomeW2Wages, "50000", map[string]string{"federalIncomeTaxWithheld": "700"}),
			entry(constants.IncomeBusiness, "600"),
			entry(constants.IncomeOther, "400"),
		},
	})
	lines := Lines(&s)
	byNumber := map[string]decimal.Decimal{}
	for _, l := range lines {
		byNumber[l.Number] = l.Amount
	}
	if lines[0].Number != "1a" || lines[len(lines)-1].Number != "37" {
		t.Fatalf("lines out of form order: %v ... %v", lines[0].Number, lines[len(lines)-1].Number)
	}
	checks := map[string]string{"1a": "50000", "8": "1000", "9": "51000", "25a": "700", "33": "700", "34": "700", "37": "0"}
	for n, want := range checks {
		if !byNumber[n].Equal(d(want)) {
			t.Errorf("line %s = %s, want %s", n, byNumber[n], want)
		}
	}
}
