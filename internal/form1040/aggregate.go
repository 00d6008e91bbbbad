package form1040

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/entity"
	"github.com/kattabharath12/tax-1040/internal/llm"
)

// Withholding field names looked up on a W-2's extracted entry, in order.
var withholdingFields = []string{"federalIncomeTaxWithheld", "federalTaxWithheld"}

// Aggregate partitions entries by income type and sums each bucket. Every
// entry lands in exactly one bucket; unknown types go to OtherIncome.
// FederalWithholding comes from the first extracted entry of each W-2 entry.
func Aggregate(entries []entity.IncomeEntry) entity.CategoryTotals {
	var t entity.CategoryTotals
	for _, e := range entries {
		switch e.IncomeType {
		case constants.IncomeW2Wages:
			t.W2Wages = t.W2Wages.Add(e.Amount)
			t.HasW2 = true
			if len(e.Extracted) > 0 {
				t.FederalWithholding = t.FederalWithholding.Add(withholding(e.Extracted[0].Fields))
			}
		case constants.IncomeInterest:
			t.InterestIncome = t.InterestIncome.Add(e.Amount)
		case constants.IncomeDividends:
			t.DividendIncome = t.DividendIncome.Add(e.Amount)
		case constants.IncomeBusiness:
			t.BusinessIncome = t.BusinessIncome.Add(e.Amount)
		case constants.IncomeCapitalGains:
			t.CapitalGains = t.CapitalGains.Add(e.Amount)
		default:
			t.OtherIncome = t.OtherIncome.Add(e.Amount)
		}
		if e.IncomeType.Is1099() {
			t.Has1099 = true
		}
	}
	return t
}

func withholding(fields map[string]string) decimal.Decimal {
	for _, name := range withholdingFields {
		if v, ok := fields[name]; ok && strings.TrimSpace(v) != "" {
			return ParseAmount(v)
		}
	}
	return decimal.Zero
}

// ParseAmount reads a money string the way extracted fields are cleaned.
// Empty or unparseable input is zero.
func ParseAmount(raw string) decimal.Decimal {
	clean := llm.Normalize("amount", raw, llm.KindMoney)
	if clean == "" || clean == "." {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	return d
}
