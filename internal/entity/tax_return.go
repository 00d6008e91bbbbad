package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kattabharath12/tax-1040/constants"
)

// TaxReturn carries the return-level authoritative figures plus its income and dependents.
type TaxReturn struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
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

	TotalIncome         decimal.Decimal `json:"total_income"`
	AdjustedGrossIncome decimal.Decimal `json:"adjusted_gross_income"`
	StandardDeduction   decimal.Decimal `json:"standard_deduction"`
	ItemizedDeduction   decimal.Decimal `json:"itemized_deduction"`
	TaxableIncome       decimal.Decimal `json:"taxable_income"`
	TaxLiability        decimal.Decimal `json:"tax_liability"`
	TotalCredits        decimal.Decimal `json:"total_credits"`
	RefundAmount        decimal.Decimal `json:"refund_amount"`
	AmountOwed          decimal.Decimal `json:"amount_owed"`

	IncomeEntries []IncomeEntry `json:"income_entries,omitempty"`
	Dependents    []Dependent   `json:"dependents,omitempty"`
}

// IncomeEntry is one declared income line on a return.
type IncomeEntry struct {
	ID          uuid.UUID            `json:"id"`
	TaxReturnID uuid.UUID            `json:"tax_return_id"`
	IncomeType  constants.IncomeType `json:"income_type"`
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description,omitempty"`
	Extracted   []ExtractedEntry     `json:"extracted_entries,omitempty"`
}

type Dependent struct {
	ID               uuid.UUID `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	SSN              string    `json:"ssn,omitempty"`
	Relationship     string    `json:"relationship"`
	QualifiesForCTC  bool      `json:"qualifies_for_ctc"`
	QualifiesForEITC bool      `json:"qualifies_for_eitc"`
}
