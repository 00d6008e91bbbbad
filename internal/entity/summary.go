package entity

import (
	"github.com/shopspring/decimal"

	"github.com/kattabharath12/tax-1040/constants"
)

// CategoryTotals is the per-income-type breakdown of a return.
type CategoryTotals struct {
	W2Wages            decimal.Decimal `json:"w2_wages"`
	InterestIncome     decimal.Decimal `json:"interest_income"`
	DividendIncome     decimal.Decimal `json:"dividend_income"`
	BusinessIncome     decimal.Decimal `json:"business_income"`
	CapitalGains       decimal.Decimal `json:"capital_gains"`
	OtherIncome        decimal.Decimal `json:"other_income"`
	FederalWithholding decimal.Decimal `json:"federal_withholding"`
	HasW2              bool            `json:"has_w2"`
	Has1099            bool            `json:"has_1099"`
}

// Sum adds the six income buckets.
func (t CategoryTotals) Sum() decimal.Decimal {
	return t.W2Wages.Add(t.InterestIncome).Add(t.DividendIncome).
		Add(t.BusinessIncome).Add(t.CapitalGains).Add(t.OtherIncome)
}

// TaxReturnSummary is the canonical Form 1040 aggregate.
type TaxReturnSummary struct {
	TaxReturnID     string                 `json:"tax_return_id"`
	TaxYear         int                    `json:"tax_year"`
	FilingStatus    constants.FilingStatus `json:"filing_status"`
	FirstName       string                 `json:"first_name"`
	LastName        string                 `json:"last_name"`
	SpouseFirstName string                 `json:"spouse_first_name,omitempty"`
	SpouseLastName  string                 `json:"spouse_last_name,omitempty"`
	Address         string                 `json:"address"`
	City            string                 `json:"city"`
	State           string                 `json:"state"`
	ZipCode         string                 `json:"zip_code"`

	CategoryTotals

	TotalIncome         decimal.Decimal `json:"total_income"`
	AdjustedGrossIncome decimal.Decimal `json:"adjusted_gross_income"`
	StandardDeduction   decimal.Decimal `json:"standard_deduction"`
	ItemizedDeduction   decimal.Decimal `json:"itemized_deduction"`
	TotalDeduction      decimal.Decimal `json:"total_deduction"`
	TaxableIncome       decimal.Decimal `json:"taxable_income"`
	TaxLiability        decimal.Decimal `json:"tax_liability"`
	ChildTaxCredit      decimal.Decimal `json:"child_tax_credit"`
	EarnedIncomeCredit  decimal.Decimal `json:"earned_income_credit"`
	TotalCredits        decimal.Decimal `json:"total_credits"`
	TotalTax            decimal.Decimal `json:"total_tax"`
	EstimatedTax        decimal.Decimal `json:"estimated_tax"`
	TotalPayments       decimal.Decimal `json:"total_payments"`
	RefundAmount        decimal.Decimal `json:"refund_amount"`
	AmountOwed          decimal.Decimal `json:"amount_owed"`

	Dependents []Dependent `json:"dependents"`
}

// Completeness is the structural validation outcome of a summary.
type Completeness struct {
	IsValid       bool     `json:"is_valid"`
	MissingFields []string `json:"missing_fields"`
}
