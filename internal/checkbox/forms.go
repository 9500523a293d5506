package checkbox

import (
	"regexp"
)

// Forms holds the option tables of the disclosure e-forms
type Forms struct {
	Acquisition      []OptionPattern
	Disposal         []OptionPattern
	Other            []OptionPattern
	TypeOfSecurities []OptionPattern
}

// DefaultForms returns the option labels used by the SGX Form 1/3 e-forms
func DefaultForms() Forms {
	return Forms{
		Acquisition: []OptionPattern{
			Pattern("Securities via market transaction", `Securities via market transaction`),
			Pattern("Securities via off-market transaction", `Securities via off-market transaction`),
			Pattern("Securities via physical settlement", `Securities via physical settlement`),
			Pattern("Securities pursuant to rights issue", `Securities pursuant to rights issue`),
			Pattern("Securities via a placement", `Securities via a placement`),
			Pattern("Securities following conversion/exercise", `Securities following conversion`),
			Pattern("Securities as part of management", `Securities as part of management`),
		},
		Disposal: []OptionPattern{
			Pattern("Securities via market transaction", `Securities via market transaction`),
			Pattern("Securities via off-market transaction", `Securities via off-market transaction`),
		},
		Other: []OptionPattern{
			Pattern("Acceptance of take-over offer", `Acceptance of take-over offer`),
			Pattern("Acceptance of employee share options/share awards", `Acceptance of employee share options`),
			Pattern("Vesting of share awards", `Vesting of share awards`),
			Pattern("Exercise of employee share options", `Exercise of employee share options`),
			Pattern("Acceptance of take-over offer for Listed Issuer", `Acceptance of take-over offer`),
		},
		TypeOfSecurities: []OptionPattern{
			Pattern(VotingShares, `^(?:Ordinary\s+)?voting\s+(?:shares|units)`),
			Pattern(RightsOverShares, `Rights/Options/Warrants\s+over\s+(?:voting\s+)?(?:shares/)?units`),
			Pattern(Debentures, `(?:Convertible\s+)?[Dd]ebentures`),
			Pattern(OtherSecurities, `Others.*(?:specify|:)`),
		},
	}
}

// Header and subsection patterns of the circumstance block
var (
	circumstanceHeader = regexp.MustCompile(`(?i)Circumstance\s+giving\s+rise\s+to\s+the\s+interest`)
	securitiesHeader   = regexp.MustCompile(`(?is)Type of securities.*?transaction`)

	acquisitionHeader   = regexp.MustCompile(`(?i)^Acquisition\s+of\s*:\s*$`)
	disposalHeader      = regexp.MustCompile(`(?i)^Disposal\s+of\s*:\s*$`)
	otherHeader         = regexp.MustCompile(`(?i)^Other\s+circumstances\s*:\s*$`)
	othersSpecifyHeader = regexp.MustCompile(`(?i)Others\s*\(\s*please\s+specify\s*\)`)

	corporateActionLabel = regexp.MustCompile(`(?i)Corporate action.*Listed Issuer.*please specify`)
	othersSpecifyLabel   = regexp.MustCompile(`(?i)Others\s*\(\s*please specify\s*\)`)
)
