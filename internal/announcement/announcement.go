// Package announcement reads the SGX announcement page that links a
// disclosure filing.
package announcement

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BaseURL prefixes relative attachment links
const BaseURL = "https://links.sgx.com"

// Section titles and field labels of the announcement page
const (
	IssuerSection     = "Issuer & Securities"
	AttachmentSection = "Attachments"
	SecuritiesField   = "Securities"
	IssuerField       = "Issuer/ Manager"
)

// Announcement is the part of an announcement page the pipeline needs
type Announcement struct {
	IssuerName     string
	IssuerSecurity string
	Attachments    []string
	// Sections maps section titles to their label/value pairs
	Sections map[string]map[string]string
}

// PDFURL returns the last attachment, which carries the filled e-form
func (a *Announcement) PDFURL() (string, bool) {
	if len(a.Attachments) == 0 {
		return "", false
	}
	return a.Attachments[len(a.Attachments)-1], true
}

// Parse reads an announcement page
func Parse(r io.Reader) (*Announcement, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse announcement: %w", err)
	}

	a := &Announcement{Sections: make(map[string]map[string]string)}
	walk(doc, func(n *html.Node) {
		if n.DataAtom != atom.H2 || !hasClass(n, "announcement-group-header") {
			return
		}
		title := strings.TrimSpace(textOf(n))
		group := nextElement(n)
		if group == nil || group.DataAtom != atom.Div || !hasClass(group, "announcement-group") {
			return
		}

		fields := definitions(group)
		a.Sections[title] = fields
		if title == AttachmentSection {
			a.Attachments = append(a.Attachments, attachments(group)...)
		}
	})

	if issuer, ok := a.Sections[IssuerSection]; ok {
		a.IssuerName = issuer[IssuerField]
		a.IssuerSecurity = issuer[SecuritiesField]
	}
	return a, nil
}

// ExtractSymbol takes the trading code from a "Securities" value such as
// "ACME HOLDINGS LIMITED - SG1A12345678 - A12"
func ExtractSymbol(security string) (string, bool) {
	parts := strings.Split(security, " - ")
	if len(parts) < 2 || len(parts) > 3 {
		return "", false
	}
	symbol := strings.TrimSpace(parts[len(parts)-1])
	return symbol, symbol != ""
}

// definitions reads dt/dd pairs. Values holding tables are skipped.
func definitions(group *html.Node) map[string]string {
	out := make(map[string]string)
	walk(group, func(n *html.Node) {
		if n.DataAtom != atom.Dt {
			return
		}
		dd := nextElement(n)
		if dd == nil || dd.DataAtom != atom.Dd || contains(dd, atom.Table) {
			return
		}
		key := collapse(textOf(n))
		if key != "" {
			out[key] = collapse(textOf(dd))
		}
	})
	return out
}

func attachments(group *html.Node) []string {
	var out []string
	walk(group, func(n *html.Node) {
		if n.DataAtom != atom.A || !hasClass(n, "announcement-attachment") {
			return
		}
		href := strings.TrimSpace(attr(n, "href"))
		if href == "" {
			return
		}
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			href = BaseURL + href
		}
		out = append(out, href)
	})
	return out
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func contains(n *html.Node, a atom.Atom) bool {
	found := false
	walk(n, func(c *html.Node) {
		if c != n && c.DataAtom == a {
			found = true
		}
	})
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
