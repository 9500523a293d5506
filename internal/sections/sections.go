// Package sections splits a filing into the disclosure regions of each
// shareholder or transaction.
package sections

import (
	"regexp"
	"sort"
	"strings"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
)

// Section is the region of one party's disclosure. Sections never span
// pages; callers look ahead or behind when they need to.
type Section struct {
	PageNumber int         `json:"page_number"`
	BBox       layout.BBox `json:"bbox"`
	Anchor     string      `json:"anchor"`
}

// Shape tells how a document was segmented
type Shape int

const (
	ShapeNone Shape = iota
	ShapeSingle
	ShapeMultiShareholder
	ShapeMultiTransaction
)

// String returns the shape name
func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeMultiShareholder:
		return "multi_shareholder"
	case ShapeMultiTransaction:
		return "multi_transaction"
	default:
		return "none"
	}
}

// DefaultAnchors are the literal labels that open a disclosure
var DefaultAnchors = []string{
	"Name of Substantial Shareholder/Unitholder:",
	"Name of Director/CEO:",
	"Name of Trustee-Manager",
	"Quantum of interests in securities held by Trustee-Manager",
	"Part II - Substantial Shareholder/Unitholder and Transaction(s) Details",
}

var transactionAnchor = regexp.MustCompile(`^Transaction ?[A-Z]$`)

type anchor struct {
	text string
	page int
	top  float64
}

type pageSize struct {
	width, height float64
}

// Locate returns the disclosure sections of the document in document order
func Locate(src layout.Source) []Section {
	secs, _ := LocateWith(src, DefaultAnchors)
	return secs
}

// LocateWith segments the document with a custom anchor list and reports the
// detected shape
func LocateWith(src layout.Source, anchors []string) ([]Section, Shape) {
	var literal, transactions []anchor
	sizes := make(map[int]pageSize)

	for i := 0; i < src.NumPages(); i++ {
		page, ok := layout.Load(src, i)
		if !ok {
			continue
		}
		sizes[i] = pageSize{width: page.Width, height: page.Height}

		for _, text := range anchors {
			for _, box := range page.Search(text) {
				literal = append(literal, anchor{text: text, page: i, top: box.Top})
			}
		}
		for _, line := range page.Lines() {
			if transactionAnchor.MatchString(strings.TrimSpace(line.Text)) {
				transactions = append(transactions, anchor{text: line.Text, page: i, top: line.BBox.Top})
			}
		}
	}
	sortAnchors(literal)
	sortAnchors(transactions)

	var chosen []anchor
	shape := ShapeNone
	switch {
	case repeating(literal, anchors) != "":
		text := repeating(literal, anchors)
		for _, a := range literal {
			if a.text == text {
				chosen = append(chosen, a)
			}
		}
		shape = ShapeMultiShareholder
	case len(transactions) > 1:
		chosen = transactions
		shape = ShapeMultiTransaction
	case len(literal) > 0:
		chosen = literal[:1]
		shape = ShapeSingle
	default:
		return nil, ShapeNone
	}

	return build(chosen, sizes), shape
}

// repeating returns the anchor text occurring most often, provided it occurs
// more than once. Ties go to the earlier anchor of the list.
func repeating(found []anchor, anchors []string) string {
	counts := make(map[string]int)
	for _, a := range found {
		counts[a.text]++
	}
	best, bestCount := "", 1
	for _, text := range anchors {
		if counts[text] > bestCount {
			best, bestCount = text, counts[text]
		}
	}
	return best
}

func sortAnchors(as []anchor) {
	sort.SliceStable(as, func(i, j int) bool {
		if as[i].page != as[j].page {
			return as[i].page < as[j].page
		}
		return as[i].top < as[j].top
	})
}

func build(anchors []anchor, sizes map[int]pageSize) []Section {
	out := make([]Section, 0, len(anchors))
	for i, a := range anchors {
		size := sizes[a.page]
		bottom := size.height
		if i+1 < len(anchors) && anchors[i+1].page == a.page {
			bottom = anchors[i+1].top
		}
		out = append(out, Section{
			PageNumber: a.page,
			BBox:       layout.BBox{X0: 0, Top: a.top, X1: size.width, Bottom: bottom},
			Anchor:     strings.TrimSpace(a.text),
		})
	}
	return out
}
