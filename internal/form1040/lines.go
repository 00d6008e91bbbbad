package form1040

import (
	"github.com/shopspring/decimal"

	"github.com/kattabharath12/tax-1040/internal/entity"
)

// Line is one amount line of Form 1040.
type Line struct {
	Number      string          `json:"line"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Lines maps a summary onto the Form 1040 lines it populates, in form order.
func Lines(s *entity.TaxReturnSummary) []Line {
	return []Line{
		{"1a", "Total amount from Form(s) W-2, box 1", s.W2Wages},
		{"2b", "Taxable interest", s.InterestIncome},
		{"3b", "Ordinary dividends", s.DividendIncome},
		{"7", "Capital gain or (loss)", s.CapitalGains},
		{"8", "Additional income from Schedule 1", s.BusinessIncome.Add(s.OtherIncome)},
		{"9", "Total income", s.TotalIncome},
		{"11", "Adjusted gross income", s.AdjustedGrossIncome},
		{"12", "Standard deduction or itemized deductions", s.TotalDeduction},
		{"15", "Taxable income", s.TaxableIncome},
		{"16", "Tax", s.TaxLiability},
		{"19", "Child tax credit or credit for other dependents", s.ChildTaxCredit},
		{"22", "Tax after credits", s.TotalTax},
		{"24", "Total tax", s.TotalTax},
		{"25a", "Federal income tax withheld from Form(s) W-2", s.FederalWithholding},
		{"33", "Total payments", s.TotalPayments},
		{"34", "Amount overpaid", s.RefundAmount},
		{"37", "Amount you owe", s.AmountOwed},
	}
}
