package filing

import (
	"regexp"
	"strings"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/sections"
)

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Name of Substantial Shareholder/Unitholder:[ \t]*([^\n]+)`),
	regexp.MustCompile(`(?i)Name of Director/CEO:[ \t]*([^\n]+)`),
	regexp.MustCompile(`(?i)(?:\d+\.\s*)?Name of Trustee-Manager(?:/Responsible Person)?:[ \t]*([^\n]+)`),
}

var (
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	spaces        = regexp.MustCompile(`\s+`)
)

// CleanName strips abbreviations in parentheses and a trailing full stop.
// It returns false for answers that are not names.
func CleanName(raw string) (string, bool) {
	name := parenthetical.ReplaceAllString(raw, " ")
	name = strings.TrimSpace(spaces.ReplaceAllString(name, " "))
	name = strings.TrimSpace(strings.TrimRight(name, "."))
	if name == "" || name == ":" || strings.HasPrefix(name, "(") {
		return "", false
	}
	return name, true
}

func matchName(text string) *string {
	for _, re := range namePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if name, ok := CleanName(m[1]); ok {
			return &name
		}
	}
	return nil
}

// namePages lists the pages searched after the section page: the two
// before it, then every earlier page down to the second one
func namePages(page int) []int {
	var out []int
	seen := make(map[int]bool)
	add := func(i int) {
		if i >= 0 && !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	add(page - 1)
	add(page - 2)
	for i := page - 1; i >= 1; i-- {
		add(i)
	}
	return out
}

// ShareholderName reads the party named by a section's anchor. The section
// text is tried first, then the whole page, then earlier pages.
func ShareholderName(src layout.Source, sec sections.Section) *string {
	page, ok := layout.Load(src, sec.PageNumber)
	if !ok {
		return nil
	}
	opts := layout.DefaultTextOptions()

	if name := matchName(page.Crop(sec.BBox).Text(opts)); name != nil {
		return name
	}
	if name := matchName(page.Text(opts)); name != nil {
		return name
	}
	for _, i := range namePages(sec.PageNumber) {
		prev, ok := layout.Load(src, i)
		if !ok {
			continue
		}
		if name := matchName(prev.Text(opts)); name != nil {
			return name
		}
	}
	return nil
}
