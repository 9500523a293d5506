package checkbox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout/layouttest"
)

func TestFindOptions_CheckboxFidelity(t *testing.T) {
	label := "Securities via market transaction"
	options := []OptionPattern{Pattern(label, label)}

	tests := []struct {
		name  string
		build func(b *layouttest.Builder)
		want  State
	}{
		{
			name: "filled box within band",
			build: func(b *layouttest.Builder) {
				b.Text(100, 200, label).
					FilledBox(layout.BBox{X0: 85, Top: 205, X1: 93, Bottom: 213}, layout.Black)
			},
			want: Checked,
		},
		{
			name: "filled box outside band",
			build: func(b *layouttest.Builder) {
				b.Text(100, 200, label).
					FilledBox(layout.BBox{X0: 85, Top: 212, X1: 93, Bottom: 220}, layout.Black)
			},
			want: Unchecked,
		},
		{
			name: "white box",
			build: func(b *layouttest.Builder) {
				b.Text(100, 200, label).
					FilledBox(layout.BBox{X0: 85, Top: 200, X1: 93, Bottom: 208}, layout.White)
			},
			want: Unchecked,
		},
		{
			name: "box right of label",
			build: func(b *layouttest.Builder) {
				b.Text(100, 200, label).
					FilledBox(layout.BBox{X0: 400, Top: 200, X1: 408, Bottom: 208}, layout.Black)
			},
			want: Unchecked,
		},
		{
			name: "stroked box only",
			build: func(b *layouttest.Builder) {
				b.Text(100, 200, label).
					StrokedBox(layout.BBox{X0: 85, Top: 200, X1: 93, Bottom: 208})
			},
			want: Unchecked,
		},
		{
			name: "label missing",
			build: func(b *layouttest.Builder) {
				b.Text(100, 200, "Something unrelated").
					FilledBox(layout.BBox{X0: 85, Top: 200, X1: 93, Bottom: 208}, layout.Black)
			},
			want: NotFound,
		},
		{
			name: "label outside search band",
			build: func(b *layouttest.Builder) {
				b.Text(100, 500, label).
					FilledBox(layout.BBox{X0: 85, Top: 500, X1: 93, Bottom: 508}, layout.Black)
			},
			want: NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := layouttest.NewPage(0)
			tt.build(b)
			page := b.Page()

			got := FindOptions(page.Blocks(), page.Drawings, options, 150, 300)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got.Get(label))
		})
	}
}

func TestState_JSON(t *testing.T) {
	data, err := json.Marshal(Options{
		{Name: "a", State: Checked},
		{Name: "b", State: Unchecked},
		{Name: "c", State: NotFound},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"a","checked":true},{"name":"b","checked":false},{"name":"c","checked":null}]`, string(data))
}

func TestOptions_Helpers(t *testing.T) {
	opts := Options{{Name: "a", State: Unchecked}, {Name: "b", State: Checked}, {Name: "c", State: Checked}}

	name, ok := opts.FirstChecked()
	assert.True(t, ok)
	assert.Equal(t, "b", name)
	assert.Equal(t, NotFound, opts.Get("missing"))
	assert.True(t, opts.Located())
	assert.False(t, Options{{Name: "x"}}.Located())
}

// circumstancePage lays out a complete circumstance block starting at top
func circumstancePage(number int, top float64) *layouttest.Builder {
	return layouttest.NewPage(number).
		Text(50, top, "Circumstance giving rise to the interest or change in interest:").
		Text(50, top+30, "Acquisition of:").
		Option(80, top+50, "Securities via market transaction", true).
		Option(80, top+70, "Securities via off-market transaction", false).
		Text(50, top+100, "Disposal of:").
		Option(80, top+120, "Securities via market transaction", false).
		Text(50, top+160, "Other circumstances:").
		Option(80, top+180, "Vesting of share awards", false).
		Option(80, top+200, "Corporate action by the Listed Issuer (please specify):", true).
		Text(80, top+220, "Bonus issue of shares").
		Option(80, top+260, "Others (please specify):", true).
		Text(80, top+280, "Transfer of shares to spouse").
		Text(80, top+300, "ok")
}

func TestReader_Circumstance(t *testing.T) {
	src := layout.Pages{circumstancePage(0, 100).Page()}
	r := NewReader(nil)

	c, ok := r.Circumstance(src, 0, 90)
	require.True(t, ok)
	assert.Equal(t, 0, c.Page)

	assert.Equal(t, Checked, c.Acquisition.Get("Securities via market transaction"))
	assert.Equal(t, Unchecked, c.Acquisition.Get("Securities via off-market transaction"))
	assert.Equal(t, NotFound, c.Acquisition.Get("Securities via a placement"))
	assert.Len(t, c.Acquisition, len(DefaultForms().Acquisition))

	assert.Equal(t, Unchecked, c.Disposal.Get("Securities via market transaction"))
	assert.Equal(t, Unchecked, c.OtherCircumstances.Get("Vesting of share awards"))
	assert.Equal(t, NotFound, c.OtherCircumstances.Get("Exercise of employee share options"))

	assert.Equal(t, Checked, c.CorporateAction.State)
	assert.Equal(t, "Bonus issue of shares", c.CorporateAction.Description)

	assert.Equal(t, Checked, c.OthersSpecify.State)
	assert.Equal(t, "Transfer of shares to spouse", c.OthersSpecify.Description, "short fragments are dropped")
}

func TestReader_CircumstanceAcrossPages(t *testing.T) {
	first := layouttest.NewPage(0).
		Text(50, 790, "Circumstance giving rise to the interest or change in interest:").
		Page()
	second := layouttest.NewPage(1).
		Text(50, 40, "Acquisition of:").
		Option(80, 60, "Securities via off-market transaction", true).
		Page()

	r := NewReader(nil)
	c, ok := r.Circumstance(layout.Pages{first, second}, 0, 700)
	require.True(t, ok)
	assert.Equal(t, 0, c.Page)
	assert.Equal(t, Checked, c.Acquisition.Get("Securities via off-market transaction"))
	assert.Empty(t, c.Disposal)
	assert.Equal(t, NotFound, c.OthersSpecify.State)
}

func TestReader_CircumstanceHeaderAboveSection(t *testing.T) {
	src := layout.Pages{
		circumstancePage(0, 100).Page(),
		layouttest.NewPage(1).Text(50, 100, "unrelated").Page(),
	}
	r := NewReader(nil)

	_, ok := r.Circumstance(src, 0, 500)
	assert.False(t, ok, "header more than 50pt above the section is ignored")

	_, ok = r.Circumstance(src, 0, 140)
	assert.True(t, ok)
}

func TestReader_CircumstanceRequiresAcquisition(t *testing.T) {
	page := layouttest.NewPage(0).
		Text(50, 100, "Circumstance giving rise to the interest or change in interest:").
		Text(50, 130, "Disposal of:").
		Option(80, 150, "Securities via market transaction", true).
		Page()

	_, ok := NewReader(nil).Circumstance(layout.Pages{page}, 0, 100)
	assert.False(t, ok)
}

func TestReader_CircumstanceFallback(t *testing.T) {
	src := layout.Pages{
		circumstancePage(0, 100).Page(),
		layouttest.NewPage(1).Text(50, 100, "Part II").Page(),
		layouttest.NewPage(2).Text(50, 100, "Part III").Page(),
		circumstancePage(3, 300).Page(),
	}

	c, ok := NewReader(nil).CircumstanceFallback(src)
	require.True(t, ok)
	assert.Equal(t, 3, c.Page)
	assert.Equal(t, Checked, c.Acquisition.Get("Securities via market transaction"))

	_, ok = NewReader(nil).CircumstanceFallback(src[:3])
	assert.False(t, ok)
}

func TestReader_TypeOfSecurities(t *testing.T) {
	tests := []struct {
		name       string
		header     func(b *layouttest.Builder) *layouttest.Builder
		voting     bool
		wantVoting State
	}{
		{
			name: "single line header voting checked",
			header: func(b *layouttest.Builder) *layouttest.Builder {
				return b.Text(50, 100, "Type of securities which are the subject of the transaction:")
			},
			voting:     true,
			wantVoting: Checked,
		},
		{
			name: "wrapped header voting unchecked",
			header: func(b *layouttest.Builder) *layouttest.Builder {
				return b.Text(50, 96, "Type of securities which are the subject of the").Text(50, 108, "transaction:")
			},
			voting:     false,
			wantVoting: Unchecked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.header(layouttest.NewPage(1)).
				Option(80, 130, "Voting shares/units", tt.voting).
				Option(80, 150, "Rights/Options/Warrants over voting shares/units", !tt.voting).
				Option(80, 170, "Convertible debentures over voting shares/units", false).
				Option(80, 190, "Others (please specify):", false)
			src := layout.Pages{layouttest.NewPage(0).Text(50, 100, "cover").Page(), b.Page()}

			types, ok := NewReader(nil).TypeOfSecurities(src)
			require.True(t, ok)
			assert.Equal(t, 1, types.Page)
			assert.Equal(t, tt.wantVoting, types.Options.Get(VotingShares))
			assert.Equal(t, tt.voting, types.Voting())
			assert.Equal(t, Unchecked, types.Options.Get(Debentures))
			assert.Equal(t, Unchecked, types.Options.Get(OtherSecurities))
		})
	}

	_, ok := NewReader(nil).TypeOfSecurities(layout.Pages{layouttest.NewPage(0).Text(50, 100, "cover").Page()})
	assert.False(t, ok)

	var none *SecurityTypes
	assert.False(t, none.Voting())
}

func TestGather_ShiftsLaterPages(t *testing.T) {
	src := layout.Pages{
		layouttest.NewPage(0).Text(50, 100, "first").Page(),
		layouttest.NewPage(1).Text(50, 100, "second").Checkbox(50, 100, true).Page(),
		layouttest.NewPage(2).Text(50, 100, "third").Page(),
		layouttest.NewPage(3).Text(50, 100, "fourth").Page(),
	}

	blocks, drawings := Gather(src, 0, 3)
	require.Len(t, blocks, 3)
	assert.Equal(t, 100.0, blocks[0].BBox.Top)
	assert.Equal(t, 942.0, blocks[1].BBox.Top)
	assert.Equal(t, 1784.0, blocks[2].BBox.Top)
	require.Len(t, drawings, 1)
	assert.Equal(t, 942.0, drawings[0].Rect.Top)

	blocks, _ = Gather(src, 3, 3)
	assert.Len(t, blocks, 1)
}
