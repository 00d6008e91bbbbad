package llm

import (
	"strings"

	"github.com/kattabharath12/tax-1040/constants"
)

// FieldSpec names one expected field and its semantic kind.
type FieldSpec struct {
	Name string
	Kind FieldKind
}

// Prompt is the extraction request for one category: guidance text plus the
// closed set of fields the model is asked to return.
type Prompt struct {
	Category       constants.DocumentCategory
	Instructions   string
	ExpectedFields []FieldSpec
}

// KindOf returns the declared kind for name, KindText for undeclared fields.
func (p Prompt) KindOf(name string) FieldKind {
	for _, f := range p.ExpectedFields {
		if f.Name == name {
			return f.Kind
		}
	}
	return KindText
}

// FieldNames returns the expected field names in declaration order.
func (p Prompt) FieldNames() []string {
	names := make([]string, len(p.ExpectedFields))
	for i, f := range p.ExpectedFields {
		names[i] = f.Name
	}
	return names
}

func money(name string) FieldSpec    { return FieldSpec{Name: name, Kind: KindMoney} }
func identity(name string) FieldSpec { return FieldSpec{Name: name, Kind: KindIdentity} }
func text(name string) FieldSpec     { return FieldSpec{Name: name, Kind: KindText} }

var payerRecipient = []FieldSpec{
	identity("payerName"),
	identity("payerTIN"),
	identity("payerAddress"),
	identity("recipientName"),
	identity("recipientTIN"),
	identity("recipientAddress"),
}

var categoryFields = map[constants.DocumentCategory][]FieldSpec{
	constants.W2: {
		identity("employeeName"),
		identity("employeeSSN"),
		identity("employeeAddress"),
		identity("employerName"),
		identity("employerEIN"),
		identity("employerAddress"),
		money("wages"),
		money("federalIncomeTaxWithheld"),
		money("socialSecurityWages"),
		money("socialSecurityTaxWithheld"),
		money("medicareWages"),
		money("medicareTaxWithheld"),
		money("socialSecurityTips"),
		money("allocatedTips"),
		money("stateWages"),
		money("stateTaxWithheld"),
		money("localWages"),
		money("localTaxWithheld"),
	},
	constants.INT1099: append(append([]FieldSpec{}, payerRecipient...),
		money("interestIncome"),
		money("earlyWithdrawalPenalty"),
		money("interestOnUSavingsBonds"),
		money("federalIncomeTaxWithheld"),
		money("investmentExpenses"),
		money("foreignTaxPaid"),
		text("foreignCountry"),
		money("taxExemptInterest"),
		text("stateCode"),
		money("stateTaxWithheld"),
		identity("stateIdNumber"),
	),
	constants.DIV1099: append(append([]FieldSpec{}, payerRecipient...),
		money("ordinaryDividends"),
		money("qualifiedDividends"),
		money("totalCapitalGain"),
		money("nondividendDistributions"),
		money("federalIncomeTaxWithheld"),
		money("section199ADividends"),
		money("investmentExpenses"),
		money("foreignTaxPaid"),
		text("foreignCountry"),
		text("stateCode"),
		money("stateTaxWithheld"),
		identity("stateIdNumber"),
	),
}

var genericFields = []FieldSpec{
	identity("payerName"),
	identity("payerTIN"),
	identity("recipientName"),
	identity("recipientTIN"),
	money("incomeAmount"),
	money("taxWithheld"),
	text("additionalInfo"),
}

var categoryGuidance = map[constants.DocumentCategory][]string{
	constants.W2: {
		"This is a W-2 Wage and Tax Statement. Focus on:",
		"- employee and employer identity (name, SSN/EIN, address)",
		"- Box 1 wages, tips, other compensation",
		"- Box 2 federal income tax withheld",
		"- Box 3/4 social security wages and tax withheld",
		"- Box 5/6 Medicare wages and tax withheld",
		"- Box 7/8 social security and allocated tips",
		"- Boxes 16-19 state and local wages and tax",
	},
	constants.INT1099: {
		"This is a 1099-INT interest income statement. Focus on:",
		"- payer and recipient identity",
		"- Box 1 interest income, Box 2 early withdrawal penalty, Box 3 U.S. savings bond interest",
		"- Box 4 federal income tax withheld, Box 5 investment expenses",
		"- Box 6/7 foreign tax paid and country, Box 8 tax-exempt interest",
		"- Boxes 15-17 state information",
	},
	constants.DIV1099: {
		"This is a 1099-DIV dividends and distributions statement. Focus on:",
		"- payer and recipient identity",
		"- Box 1a ordinary dividends, Box 1b qualified dividends",
		"- Box 2a total capital gain distributions, Box 3 nondividend distributions",
		"- Box 4 federal income tax withheld, Box 5 section 199A dividends, Box 6 investment expenses",
		"- Box 7/8 foreign tax paid and country, Boxes 14-16 state information",
	},
}

var genericGuidance = []string{
	"This is a tax document of an unrecognized type. Extract:",
	"- names, addresses and taxpayer identification numbers",
	"- income amounts and tax withheld amounts",
	"- any other tax-relevant information as a short note in additionalInfo",
}

// BuildPrompt returns the extraction prompt for a category. Unsupported
// categories get the generic field set so processing never fails on category alone.
func BuildPrompt(category constants.DocumentCategory) Prompt {
	fields, ok := categoryFields[category]
	guidance := categoryGuidance[category]
	if !ok {
		fields = genericFields
		guidance = genericGuidance
	}
	return Prompt{
		Category:       category,
		Instructions:   buildInstructions(guidance, fields),
		ExpectedFields: fields,
	}
}

func buildInstructions(guidance []string, fields []FieldSpec) string {
	var b strings.Builder
	b.WriteString("You are an expert tax document processor. Extract information from the attached tax document.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Transcribe all visible text into ocrText.\n")
	b.WriteString("2. Fill every field listed under extractedData; use an empty string when a value is not visible or unclear.\n")
	b.WriteString("3. Monetary amounts are plain numbers without $ signs or thousands separators.\n")
	b.WriteString("4. Double check every amount against the document.\n")
	b.WriteString("5. Set confidence to a number between 0 and 1.\n\n")
	b.WriteString(strings.Join(guidance, "\n"))
	b.WriteString("\n\nRespond with a single JSON object and nothing else, in this format:\n")
	b.WriteString("{\n  \"ocrText\": \"complete text content of the document\",\n  \"extractedData\": {\n")
	for i, f := range fields {
		b.WriteString("    \"")
		b.WriteString(f.Name)
		b.WriteString("\": \"\"")
		if i < len(fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  },\n  \"confidence\": 0.85\n}\n")
	return b.String()
}
