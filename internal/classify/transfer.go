package classify

import (
	"regexp"
	"strings"
)

// arrow joins the transferor and the transferee in a transfer name
const arrow = " [->] "

const (
	relation   = `(?:his|her|their)?\s*(?:son|daughter|spouse|wife|husband|child|children|family|relative)?\s*,?\s*`
	nameEnding = `(?:\s+by\s+way|,|\.|\s+pursuant|\s+under)`
)

var (
	treasuryShares = regexp.MustCompile(`(?i)treasury\s+shares?`)
	nameFirst      = regexp.MustCompile(`^([A-Z][a-zA-Z\s\.\,]+?)\s+transfer(?:red)?\s+[\d,]+\s+(?:ordinary\s+)?shares?\s+to\s+(?:his|her|their)?\s*(.+?)(?:\.|$)`)
	fromTo         = regexp.MustCompile(`(?i)(?:from|by)\s+([^,]+?)\s+to\s+` + relation + `([^,\.]+?)` + nameEnding)
	transferByTo   = regexp.MustCompile(`(?i)transfer\s+of\s+[\d,]+\s+shares?\s+by\s+([^,]+?)\s+to\s+` + relation + `([^,\.]+?)` + nameEnding)
	capitalisedTo  = regexp.MustCompile(`(?:shares?\s+)?(?:transferred\s+)?(?:by\s+)?([A-Z][a-zA-Z\s\.]+?)\s+to\s+([A-Z][a-zA-Z\s\.]+?)` + nameEnding)
	transferFrom   = regexp.MustCompile(`(?i)transfer\s+(?:of\s+shares?\s+)?from\s+([^,\.]+?)(?:\s+to\s+me|,|\.)`)

	honorific      = regexp.MustCompile(`(?i)^(?:Mr\.?|Mrs\.?|Ms\.?|Dr\.?|Professor)\s+`)
	honorificOrThe = regexp.MustCompile(`(?i)^(?:Mr\.?|Mrs\.?|Ms\.?|Dr\.?|Professor|the)\s+`)
)

// TransferName names a transfer as "transferor [->] transferee" from its
// description. shareholder stands in for the party the description leaves
// implicit. ok is false when the description names neither side.
func TransferName(description, shareholder string) (name string, ok bool) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return "", false
	}

	if treasuryShares.MatchString(desc) {
		return "Company Treasury" + arrow + shareholder, true
	}
	if m := nameFirst.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(m[1]) + arrow + strings.TrimSpace(m[2]), true
	}
	for _, re := range []*regexp.Regexp{fromTo, transferByTo, capitalisedTo} {
		if m := re.FindStringSubmatch(desc); m != nil {
			return stripTitle(honorific, m[1]) + arrow + stripTitle(honorific, m[2]), true
		}
	}
	if m := transferFrom.FindStringSubmatch(desc); m != nil {
		return stripTitle(honorificOrThe, m[1]) + arrow + shareholder, true
	}
	return "", false
}

func stripTitle(re *regexp.Regexp, s string) string {
	return strings.TrimSpace(re.ReplaceAllString(strings.TrimSpace(s), ""))
}
