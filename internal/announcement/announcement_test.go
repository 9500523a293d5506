package announcement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html><body>
<div class="announcement">
  <h2 class="announcement-group-header">Issuer &amp; Securities</h2>
  <div class="announcement-group">
    <dl>
      <dt>Issuer/ Manager</dt>
      <dd>ACME HOLDINGS LIMITED</dd>
      <dt>Securities</dt>
      <dd>ACME HOLDINGS LIMITED - SG1A12345678 - A12</dd>
      <dt>Stapled Security</dt>
      <dd>No</dd>
    </dl>
  </div>
  <h2 class="announcement-group-header">Announcement Details</h2>
  <div class="announcement-group">
    <dl>
      <dt>Announcement Title</dt>
      <dd>Disclosure of Interest/ Changes in Interest of Substantial Shareholder/ Unitholder</dd>
      <dt>Details</dt>
      <dd><table><tr><td>nested</td></tr></table></dd>
    </dl>
  </div>
  <h2 class="announcement-group-header">Attachments</h2>
  <div class="announcement-group">
    <a class="announcement-attachment" href="/1.0.0/corporate-announcements/X1/cover.pdf">cover.pdf</a>
    <a class="announcement-attachment" href="/1.0.0/corporate-announcements/X1/form.pdf">form.pdf</a>
  </div>
</div>
</body></html>`

func TestParse(t *testing.T) {
	a, err := Parse(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "ACME HOLDINGS LIMITED", a.IssuerName)
	assert.Equal(t, "ACME HOLDINGS LIMITED - SG1A12345678 - A12", a.IssuerSecurity)
	assert.Equal(t, "No", a.Sections[IssuerSection]["Stapled Security"])

	details := a.Sections["Announcement Details"]
	assert.Contains(t, details["Announcement Title"], "Substantial Shareholder")
	_, ok := details["Details"]
	assert.False(t, ok, "values holding tables are skipped")

	require.Len(t, a.Attachments, 2)
	pdf, ok := a.PDFURL()
	require.True(t, ok)
	assert.Equal(t, BaseURL+"/1.0.0/corporate-announcements/X1/form.pdf", pdf)
}

func TestParse_AbsoluteAttachment(t *testing.T) {
	doc := `<h2 class="announcement-group-header">Attachments</h2>
<div class="announcement-group"><a class="announcement-attachment" href="https://cdn.example.com/f.pdf">f</a></div>`

	a, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/f.pdf"}, a.Attachments)
}

func TestParse_NoAttachments(t *testing.T) {
	a, err := Parse(strings.NewReader(`<html><body><p>withdrawn</p></body></html>`))
	require.NoError(t, err)

	_, ok := a.PDFURL()
	assert.False(t, ok)
	assert.Empty(t, a.IssuerName)
}

func TestExtractSymbol(t *testing.T) {
	tests := []struct {
		security string
		want     string
		ok       bool
	}{
		{"ACME HOLDINGS LIMITED - SG1A12345678 - A12", "A12", true},
		{"ACME REIT - AU2U", "AU2U", true},
		{"ACME HOLDINGS LIMITED", "", false},
		{"A - B - C - D", "", false},
		{"ACME - ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.security, func(t *testing.T) {
			got, ok := ExtractSymbol(tt.security)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
