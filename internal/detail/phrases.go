package detail

import (
	"regexp"
	"strings"
	"time"
)

const roles = `(?:Director/CEO|Substantial Shareholders?/Unitholders?|Trustee-Manager/Responsible Person)`

var (
	datePhrase = regexp.MustCompile(`(?s)Date of acquisition of or change in interest:.*?(\d{2}[-/](?:[A-Za-z]{3}|\d{2})[-/]\d{4})`)

	// the answer runs to the next numbered question or the end of the text
	quantityPhrase = regexp.MustCompile(`(?is)acquired or\s+(?:\d+\.\s+)?disposed of by\s+` + roles + `\s*:\s*(.+?)(?:\n\s*\d+\.|\z)`)

	// the answer starts on the line after the question and also stops at a
	// blank line or a line opening with a capital
	considerationPhrase = regexp.MustCompile(`(?is)Amount of consideration.*?by\s+` + roles + `[^:]*:\s*\n\s*(.+?)(?:\n\s*\d+\.|\n\n|\n(?-i:[A-Z])|\z)`)
)

// dateLayouts are tried in order; the first that parses wins
var dateLayouts = []string{
	"2/1/2006",
	"2-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ExtractDate returns the raw date answer of the "Date of acquisition of or
// change in interest" question
func ExtractDate(text string) string {
	m := datePhrase.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// NormalizeDate converts a filing date to YYYY-MM-DD
func NormalizeDate(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}

// ExtractQuantityPhrase returns the answer to the number of securities
// acquired or disposed of
func ExtractQuantityPhrase(text string) string {
	m := quantityPhrase.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ExtractConsiderationPhrase returns the answer to the amount of
// consideration paid or received
func ExtractConsiderationPhrase(text string) string {
	m := considerationPhrase.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
