package form1040

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/entity"
)

// Builder composes a return and its income into the Form 1040 summary.
type Builder struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger, now: time.Now}
}

// Build derives the summary. Return-level figures (total income, AGI, taxable
// income, liability, credits) are taken as stored; only the category
// breakdown, withholding and the settlement figures are computed here.
func (b *Builder) Build(tr *entity.TaxReturn) entity.TaxReturnSummary {
	totals := Aggregate(tr.IncomeEntries)

	s := entity.TaxReturnSummary{
		TaxReturnID:     tr.ID.String(),
		TaxYear:         tr.TaxYear,
		FilingStatus:    tr.FilingStatus,
		FirstName:       tr.FirstName,
		LastName:        tr.LastName,
		SpouseFirstName: tr.SpouseFirstName,
		SpouseLastName:  tr.SpouseLastName,
		Address:         tr.Address,
		City:            tr.City,
		State:           tr.State,
		ZipCode:         tr.ZipCode,
		CategoryTotals:  totals,

		TotalIncome:         tr.TotalIncome,
		AdjustedGrossIncome: tr.AdjustedGrossIncome,
		StandardDeduction:   nonNegative(tr.StandardDeduction),
		ItemizedDeduction:   nonNegative(tr.ItemizedDeduction),
		TaxableIncome:       tr.TaxableIncome,
		TaxLiability:        tr.TaxLiability,
		TotalCredits:        tr.TotalCredits,
		ChildTaxCredit:      tr.TotalCredits,
		EarnedIncomeCredit:  decimal.Zero,
		EstimatedTax:        decimal.Zero,
		Dependents:          tr.Dependents,
	}
	if s.TaxYear == 0 {
		s.TaxYear = b.now().Year() - 1
	}
	if s.FilingStatus == "" {
		s.FilingStatus = constants.Single
	}
	if s.Dependents == nil {
		s.Dependents = []entity.Dependent{}
	}

	s.TotalDeduction = decimal.Max(s.StandardDeduction, s.ItemizedDeduction)
	s.TotalTax = nonNegative(s.TaxLiability.Sub(s.TotalCredits))
	s.TotalPayments = s.FederalWithholding.Add(s.EstimatedTax)
	s.RefundAmount, s.AmountOwed = settle(tr.RefundAmount, tr.AmountOwed, s.TotalPayments, s.TotalTax)

	b.logger.Debug("summary.build.ok",
		"tax_return_id", s.TaxReturnID,
		"entries", len(tr.IncomeEntries),
		"total_tax", s.TotalTax.StringFixed(2),
		"refund", s.RefundAmount.StringFixed(2),
		"owed", s.AmountOwed.StringFixed(2),
	)
	return s
}

// settle returns (refund, owed) with at most one of them positive. Stored
// figures win, refund first; otherwise the balance of payments over tax decides.
func settle(storedRefund, storedOwed, payments, totalTax decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	switch {
	case storedRefund.IsPositive():
		return storedRefund, decimal.Zero
	case storedOwed.IsPositive():
		return decimal.Zero, storedOwed
	}
	balance := payments.Sub(totalTax)
	if balance.IsPositive() {
		return balance, decimal.Zero
	}
	return decimal.Zero, balance.Neg()
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

type requiredField struct {
	label string
	value func(*entity.TaxReturnSummary) string
}

var requiredFields = []requiredField{
	{"First Name", func(s *entity.TaxReturnSummary) string { return s.FirstName }},
	{"Last Name", func(s *entity.TaxReturnSummary) string { return s.LastName }},
	{"Address", func(s *entity.TaxReturnSummary) string { return s.Address }},
	{"City", func(s *entity.TaxReturnSummary) string { return s.City }},
	{"State", func(s *entity.TaxReturnSummary) string { return s.State }},
	{"ZIP Code", func(s *entity.TaxReturnSummary) string { return s.ZipCode }},
}

var jointFields = []requiredField{
	{"Spouse First Name", func(s *entity.TaxReturnSummary) string { return s.SpouseFirstName }},
	{"Spouse Last Name", func(s *entity.TaxReturnSummary) string { return s.SpouseLastName }},
}

// ValidateCompleteness lists the missing required labels in form order.
func ValidateCompleteness(s *entity.TaxReturnSummary) entity.Completeness {
	missing := []string{}
	check := func(fields []requiredField) {
		for _, f := range fields {
			if strings.TrimSpace(f.value(s)) == "" {
				missing = append(missing, f.label)
			}
		}
	}
	check(requiredFields)
	if s.FilingStatus == constants.MarriedFilingJointly {
		check(jointFields)
	}
	return entity.Completeness{IsValid: len(missing) == 0, MissingFields: missing}
}
