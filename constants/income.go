package constants

import "strings"

// IncomeType tags an income entry on a tax return.
type IncomeType string

const (
	IncomeW2Wages      IncomeType = "W2_WAGES"
	IncomeInterest     IncomeType = "INTEREST"
	IncomeDividends    IncomeType = "DIVIDENDS"
	IncomeBusiness     IncomeType = "BUSINESS_INCOME"
	IncomeCapitalGains IncomeType = "CAPITAL_GAINS"
	IncomeOther        IncomeType = "OTHER"
)

var IncomeTypes = []string{
	string(IncomeW2Wages),
	string(IncomeInterest),
	string(IncomeDividends),
	string(IncomeBusiness),
	string(IncomeCapitalGains),
	string(IncomeOther),
}

// Is1099 reports whether the income type comes from a 1099 family form.
func (t IncomeType) Is1099() bool {
	return strings.Contains(string(t), "1099") || t == IncomeInterest || t == IncomeDividends
}

// IncomeTypeFor returns the income type and the extracted field holding the
// declared amount for a document category.
func IncomeTypeFor(cat DocumentCategory) (IncomeType, string) {
	switch cat {
	case W2:
		return IncomeW2Wages, "wages"
	case INT1099:
		return IncomeInterest, "interestIncome"
	case DIV1099:
		return IncomeDividends, "ordinaryDividends"
	default:
		return IncomeOther, "incomeAmount"
	}
}
