package symbol

import (
	"regexp"
	"sort"
	"strings"
)

var (
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)
	article       = regexp.MustCompile(`\bthe\b`)
)

// Normalize lower-cases a company name and folds the legal suffixes that
// filings spell inconsistently
func Normalize(name string) string {
	s := parenthetical.ReplaceAllString(name, "")
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))

	s = strings.ReplaceAll(s, "public company", "")
	s = strings.ReplaceAll(s, "corporation", "corp")
	if strings.Contains(s, "limited") {
		s = article.ReplaceAllString(s, "")
		s = strings.ReplaceAll(s, "limited", "ltd")
	}
	return strings.Join(strings.Fields(s), " ")
}

// tokens splits on the separators company names use
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', ',', '(', ')', '[', ']', '&', '/':
			return true
		}
		return false
	})
}

// Ratio is the indel similarity of two strings on a 0 to 100 scale
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 100
	}
	return 200 * float64(lcs(ra, rb)) / float64(len(ra)+len(rb))
}

// PartialRatio is the best Ratio of the shorter string against every
// window of the longer one
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := Ratio(string(short), string(long[i:i+len(short)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the words of both strings in sorted order
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedJoin(tokens(a)), sortedJoin(tokens(b)))
}

// TokenSetRatio compares the shared words of both strings against each
// side's remainder
func TokenSetRatio(a, b string) float64 {
	setA, setB := uniq(tokens(a)), uniq(tokens(b))
	var common, onlyA, onlyB []string
	for w := range setA {
		if setB[w] {
			common = append(common, w)
		} else {
			onlyA = append(onlyA, w)
		}
	}
	for w := range setB {
		if !setA[w] {
			onlyB = append(onlyB, w)
		}
	}

	base := sortedJoin(common)
	withA := strings.TrimSpace(base + " " + sortedJoin(onlyA))
	withB := strings.TrimSpace(base + " " + sortedJoin(onlyB))

	best := Ratio(withA, withB)
	if base != "" {
		if r := Ratio(base, withA); r > best {
			best = r
		}
		if r := Ratio(base, withB); r > best {
			best = r
		}
	}
	return best
}

func sortedJoin(words []string) string {
	out := append([]string(nil), words...)
	sort.Strings(out)
	return strings.Join(out, " ")
}

func uniq(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// lcs is the length of the longest common subsequence
func lcs(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
