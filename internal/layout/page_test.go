package layout_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/layout/layouttest"
)

func TestPage_Blocks(t *testing.T) {
	page := layouttest.NewPage(0).
		Text(50, 100, "Hello world").
		Text(300, 100, "Right side").
		Text(50, 130, "Second line").
		Page()

	blocks := page.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, "Hello world", blocks[0].Text)
	assert.Equal(t, "Right side", blocks[1].Text)
	assert.Equal(t, "Second line", blocks[2].Text)

	assert.Equal(t, 50.0, blocks[0].BBox.X0)
	assert.Equal(t, 100.0, blocks[0].BBox.Top)
	assert.Equal(t, layouttest.TextEnd(50, "Hello world"), blocks[0].BBox.X1)
	assert.Equal(t, 300.0, blocks[1].BBox.X0)
}

func TestPage_Text(t *testing.T) {
	page := layouttest.NewPage(0).
		Text(50, 200, "second").
		Text(50, 100, "Date of acquisition:").
		Text(200, 101, "01/02/2024").
		Page()

	assert.Equal(t, "Date of acquisition: 01/02/2024\nsecond", page.Text(layout.DefaultTextOptions()))

	lines := page.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 100.0, lines[0].BBox.Top)
}

func TestPage_Crop(t *testing.T) {
	page := layouttest.NewPage(3).
		Text(50, 100, "inside").
		Text(50, 300, "outside").
		FilledBox(layout.BBox{X0: 40, Top: 98, X1: 48, Bottom: 106}, layout.Black).
		FilledBox(layout.BBox{X0: 40, Top: 400, X1: 48, Bottom: 408}, layout.Black).
		Page()

	cropped := page.Crop(layout.BBox{X0: 0, Top: 90, X1: 595, Bottom: 200})
	assert.Equal(t, 3, cropped.Number)
	assert.Equal(t, "inside", cropped.Text(layout.DefaultTextOptions()))
	assert.Len(t, cropped.Drawings, 1)
	assert.Len(t, page.Drawings, 2, "crop must not modify the source page")
}

func TestPage_Shift(t *testing.T) {
	page := layouttest.NewPage(0).
		Text(50, 100, "x").
		Checkbox(50, 100, true).
		Page()

	shifted := page.Shift(842)
	assert.Equal(t, 942.0, shifted.Glyphs[0].BBox.Top)
	assert.Equal(t, 942.0, shifted.Drawings[0].Rect.Top)
	assert.Equal(t, 942.0, shifted.Drawings[0].Segments[0].From.Y)
	assert.Equal(t, 100.0, page.Glyphs[0].BBox.Top)
}

func TestPage_Search(t *testing.T) {
	page := layouttest.NewPage(0).
		Text(50, 100, "1. Name of Director/CEO: John Tan").
		Text(50, 400, "Name of  Director/CEO: Mary Lim").
		Text(50, 600, "Something else").
		Page()

	found := page.Search("name of director/ceo:")
	require.Len(t, found, 2)
	assert.Equal(t, 100.0, found[0].Top)
	assert.Equal(t, 400.0, found[1].Top)

	assert.Empty(t, page.Search("Trustee-Manager"))
	assert.Empty(t, page.Search("  "))
}

func TestPages_Source(t *testing.T) {
	src := layout.Pages{
		layouttest.NewPage(0).Text(50, 100, "cover").Page(),
		layouttest.NewPage(1).Text(50, 100, "first").Text(50, 120, "second").Page(),
		layouttest.NewPage(2).Text(50, 100, "last").Page(),
	}

	assert.Equal(t, 3, src.NumPages())

	_, err := src.Page(5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, layout.ErrPageOutOfRange))
	var readErr *layout.ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, 5, readErr.Page)

	page, ok := layout.Load(src, 1)
	require.True(t, ok)
	assert.Equal(t, 1, page.Number)
	_, ok = layout.Load(src, -1)
	assert.False(t, ok)

	assert.Equal(t, "first\nsecond\nlast", layout.DocumentText(src, 1))
}

func TestOpen_RejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not a pdf", data: []byte("hello, this is not a PDF document")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := layout.Open(tt.data)
			assert.Error(t, err)
			assert.Nil(t, doc)
			var readErr *layout.ReadError
			assert.True(t, errors.As(err, &readErr))
		})
	}
}
