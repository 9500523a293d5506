package layout

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// maxInheritDepth bounds the walk up the page tree for inherited attributes
const maxInheritDepth = 16

// Source is a paged document that can hand out page layouts on demand
type Source interface {
	NumPages() int
	Page(i int) (*Page, error)
}

// Pages is an in-memory Source, used for synthetic documents and stitched
// page sets
type Pages []*Page

// NumPages returns the number of pages
func (p Pages) NumPages() int { return len(p) }

// Page returns page i (zero-based)
func (p Pages) Page(i int) (*Page, error) {
	if i < 0 || i >= len(p) {
		return nil, &ReadError{Op: "page", Page: i, Err: ErrPageOutOfRange}
	}
	return p[i], nil
}

// Document is an opened PDF. Pages are re-read on every Page call.
type Document struct {
	reader *pdf.Reader
	dims   []pageDim
	logger *log.Logger
	closed bool
}

type pageDim struct {
	width, height float64
}

// Option configures Open
type Option func(*Document)

// WithLogger routes per-page diagnostics to logger
func WithLogger(logger *log.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Open validates the PDF bytes and prepares them for page reads
func Open(data []byte, opts ...Option) (*Document, error) {
	doc := &Document{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(doc)
	}

	if len(data) == 0 {
		return nil, &ReadError{Op: "open", Page: -1, Err: ErrEmptyDocument}
	}

	dims, err := pageDims(data)
	if err != nil {
		// pdfcpu is stricter than the content reader; carry on with MediaBox sizes
		doc.logger.Printf("pdfcpu validation failed, using page boxes: %v", err)
	}
	doc.dims = dims

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ReadError{Op: "open", Page: -1, Err: fmt.Errorf("failed to parse PDF: %w", err)}
	}
	if reader.NumPage() == 0 {
		return nil, &ReadError{Op: "open", Page: -1, Err: ErrEmptyDocument}
	}
	doc.reader = reader
	return doc, nil
}

// pageDims reads the effective page sizes with pdfcpu in relaxed mode
func pageDims(data []byte) ([]pageDim, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to get page dimensions: %w", err)
	}
	out := make([]pageDim, len(dims))
	for i, d := range dims {
		out[i] = pageDim{width: d.Width, height: d.Height}
	}
	return out, nil
}

// NumPages returns the page count
func (d *Document) NumPages() int {
	if d.closed || d.reader == nil {
		return 0
	}
	return d.reader.NumPage()
}

// Close releases the document. Further Page calls fail with ErrClosed.
func (d *Document) Close() error {
	d.closed = true
	d.reader = nil
	return nil
}

// Page reads page i (zero-based). A page whose content stream panics the
// reader comes back empty together with a ReadError.
func (d *Document) Page(i int) (page *Page, err error) {
	if d.closed {
		return nil, &ReadError{Op: "page", Page: i, Err: ErrClosed}
	}
	if i < 0 || i >= d.reader.NumPage() {
		return nil, &ReadError{Op: "page", Page: i, Err: ErrPageOutOfRange}
	}

	raw := d.reader.Page(i + 1)
	if raw.V.IsNull() {
		return nil, &ReadError{Op: "page", Page: i, Err: fmt.Errorf("page object missing")}
	}

	box := d.mediaBox(raw, i)
	page = &Page{Number: i, Width: box.width, Height: box.height}

	page.Glyphs, err = d.glyphs(raw, i, box)
	if err != nil {
		return page, err
	}
	page.Drawings, err = d.drawings(raw, i, box)
	return page, err
}

type pageBox struct {
	llx, ury      float64
	width, height float64
}

func (d *Document) mediaBox(raw pdf.Page, i int) pageBox {
	box := pageBox{ury: defaultPageHeight, width: defaultPageWidth, height: defaultPageHeight}

	if mb, ok := parseMediaBox(inherited(raw.V, "MediaBox")); ok {
		box.llx = mb[0]
		box.ury = mb[3]
		box.width = mb[2] - mb[0]
		box.height = mb[3] - mb[1]
	}
	if i < len(d.dims) && d.dims[i].width > 0 && d.dims[i].height > 0 {
		box.width = d.dims[i].width
		box.height = d.dims[i].height
	}
	return box
}

// inherited looks key up on the page and then on its ancestors
func inherited(v pdf.Value, key string) pdf.Value {
	for depth := 0; depth < maxInheritDepth && !v.IsNull(); depth++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

// parseMediaBox normalises a [llx lly urx ury] array
func parseMediaBox(v pdf.Value) ([4]float64, bool) {
	var box [4]float64
	if v.Kind() != pdf.Array || v.Len() != 4 {
		return box, false
	}
	for i := 0; i < 4; i++ {
		elem := v.Index(i)
		switch elem.Kind() {
		case pdf.Integer, pdf.Real:
			box[i] = elem.Float64()
		default:
			return box, false
		}
	}
	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	if box[2]-box[0] <= 0 || box[3]-box[1] <= 0 {
		return box, false
	}
	return box, true
}

func (d *Document) glyphs(raw pdf.Page, i int, box pageBox) (glyphs []Glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("recovered from panic reading text of page %d: %v", i, r)
			glyphs = nil
			err = &ReadError{Op: "text", Page: i, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	content := raw.Content()
	glyphs = make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		size := math.Abs(t.FontSize)
		if size == 0 {
			size = defaultFontSize
		}
		width := t.W
		if width <= 0 {
			width = size * 0.5
		}
		x0 := t.X - box.llx
		baseline := box.ury - t.Y
		glyphs = append(glyphs, Glyph{
			Text:     t.S,
			FontSize: size,
			BBox: BBox{
				X0:     x0,
				Top:    baseline - ascent*size,
				X1:     x0 + width,
				Bottom: baseline + descent*size,
			},
		})
	}
	return glyphs, nil
}

func (d *Document) drawings(raw pdf.Page, i int, box pageBox) (drawings []Drawing, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("recovered from panic reading drawings of page %d: %v", i, r)
			drawings = nil
			err = &ReadError{Op: "drawings", Page: i, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return drawingsOf(raw, box.llx, box.ury), nil
}
