package constants

// FilingStatus of a tax return.
type FilingStatus string

const (
	Single                    FilingStatus = "SINGLE"
	MarriedFilingJointly      FilingStatus = "MARRIED_FILING_JOINTLY"
	MarriedFilingSeparately   FilingStatus = "MARRIED_FILING_SEPARATELY"
	HeadOfHousehold           FilingStatus = "HEAD_OF_HOUSEHOLD"
	QualifyingSurvivingSpouse FilingStatus = "QUALIFYING_SURVIVING_SPOUSE"
)

var FilingStatuses = []string{
	string(Single),
	string(MarriedFilingJointly),
	string(MarriedFilingSeparately),
	string(HeadOfHousehold),
	string(QualifyingSurvivingSpouse),
}
