package detail

import (
	"regexp"
	"strconv"
	"strings"
)

// Number surface forms seen in consideration and quantity answers
var (
	leadingNumbering  = regexp.MustCompile(`^\d+\.\s+`)
	trailingNumbering = regexp.MustCompile(`\s*\n\s*\d+\.\s*$`)

	referenceClauses = []*regexp.Regexp{
		regexp.MustCompile(`(?is)refer\s+to\s+(?:paragraph|section|item|page|note|schedule|appendix|exhibit).*`),
		regexp.MustCompile(`(?is)see\s+(?:paragraph|section|item|page|note|schedule|appendix|exhibit).*`),
		regexp.MustCompile(`(?is)as\s+(?:described|stated|mentioned)\s+in.*`),
		regexp.MustCompile(`(?is)please\s+refer.*`),
		regexp.MustCompile(`(?is)refer\s+to\s+the\s+(?:above|below|attached).*`),
	}

	currencyNumber = regexp.MustCompile(`(?i)(?:(?:sg\$|us\$|hk\$|s\$|usd|sgd|hkd|\$)\s*(\d[\d,]*(?:\.\d+)?)|(\d[\d,]*(?:\.\d+)?)\s*(?:sg\$|us\$|hk\$|s\$|usd|sgd|hkd|\$))`)
	sharesNumber   = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(?:shares?|units?|securities|stocks?)`)
	malformed      = regexp.MustCompile(`\b\d{1,3}(?:\.\d{3})+\.\d{2}\b`)
	malformedDot   = regexp.MustCompile(`(\d)\.(\d{3}\.)`)
	lettersOrTag   = regexp.MustCompile(`[a-zA-Z$]`)
	embeddedDate   = regexp.MustCompile(`\([^)]*\d{2}/\d{2}/\d{4}[^)]*\)`)
	anyNumber      = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
)

// notApplicable answers carry no number
var notApplicable = map[string]bool{
	"N/A":             true,
	"NA":              true,
	"NIL":             true,
	"NONE":            true,
	"-":               true,
	"NOT APPLICABLE.": true,
	"NOT APPLICABLE":  true,
	"N.A.":            true,
	"N.A":             true,
}

// ParseNumber normalizes a free-text numeric answer. It returns nil for
// not-applicable answers and text without any number.
//
// In order: question numbering is stripped, reference clauses are removed,
// the first currency-tagged amount wins, then the sum of "<n> shares/units"
// occurrences, then the sum of every remaining number outside parenthesised
// dates. Thousands grouped with dots (68.640.19) are repaired when the text
// holds nothing but digits and punctuation.
func ParseNumber(raw string) *float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	if loc := leadingNumbering.FindStringIndex(value); loc != nil {
		if rest := value[loc[1]:]; rest == "" || !isDigit(rest[0]) {
			value = rest
		}
	}
	value = trailingNumbering.ReplaceAllString(value, "")

	if notApplicable[strings.ToUpper(strings.TrimSpace(value))] {
		return nil
	}

	for _, re := range referenceClauses {
		value = re.ReplaceAllString(value, "")
	}

	if m := currencyNumber.FindStringSubmatch(value); m != nil {
		n := m[1]
		if n == "" {
			n = m[2]
		}
		return parseFloat(n)
	}

	if matches := sharesNumber.FindAllStringSubmatch(value, -1); len(matches) > 0 {
		groups := make([]string, 0, len(matches))
		for _, m := range matches {
			groups = append(groups, m[1])
		}
		return sum(groups)
	}

	if malformed.MatchString(value) && !lettersOrTag.MatchString(value) {
		for {
			repaired := malformedDot.ReplaceAllString(value, "$1$2")
			if repaired == value {
				break
			}
			value = repaired
		}
	}

	value = embeddedDate.ReplaceAllString(value, "")
	numbers := anyNumber.FindAllString(value, -1)
	if len(numbers) == 0 {
		return nil
	}
	return sum(numbers)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

func sum(numbers []string) *float64 {
	total := 0.0
	for _, n := range numbers {
		f := parseFloat(n)
		if f == nil {
			return nil
		}
		total += *f
	}
	return &total
}
