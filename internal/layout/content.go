package layout

import (
	"math"

	"github.com/ledongthuc/pdf"
)

// maxFormDepth bounds recursion through nested form XObjects
const maxFormDepth = 4

// matrix is a PDF transformation [a b c d e f] in row-vector convention
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// then returns the transform that applies m first and n second
func (m matrix) then(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

type gstate struct {
	ctm    matrix
	fill   Color
	stroke Color
}

type subpath struct {
	points []Point
	segs   []Segment
	start  Point
	cur    Point
}

// painter replays path and colour operators and records painted subpaths in
// page space (top-left origin)
type painter struct {
	state    gstate
	stack    []gstate
	path     []*subpath
	originX  float64
	originY  float64 // top edge of the page in user space
	drawings []Drawing
}

func newPainter(originX, originY float64) *painter {
	return &painter{
		state:   gstate{ctm: identity, fill: Black, stroke: Black},
		originX: originX,
		originY: originY,
	}
}

func (p *painter) toPage(x, y float64) Point {
	ux, uy := p.state.ctm.apply(x, y)
	return Point{X: ux - p.originX, Y: p.originY - uy}
}

func (p *painter) current() *subpath {
	if len(p.path) == 0 {
		return nil
	}
	return p.path[len(p.path)-1]
}

func (p *painter) moveTo(pt Point) {
	p.path = append(p.path, &subpath{points: []Point{pt}, start: pt, cur: pt})
}

func (p *painter) lineTo(pt Point) {
	sp := p.current()
	if sp == nil {
		p.moveTo(pt)
		return
	}
	sp.segs = append(sp.segs, Segment{From: sp.cur, To: pt})
	sp.points = append(sp.points, pt)
	sp.cur = pt
}

func (p *painter) curveTo(ctrl []Point, end Point) {
	sp := p.current()
	if sp == nil {
		p.moveTo(end)
		return
	}
	sp.points = append(sp.points, ctrl...)
	sp.points = append(sp.points, end)
	sp.cur = end
}

func (p *painter) closePath() {
	sp := p.current()
	if sp == nil || sp.cur == sp.start {
		return
	}
	sp.segs = append(sp.segs, Segment{From: sp.cur, To: sp.start})
	sp.cur = sp.start
}

func (p *painter) paint(kind DrawingKind, closeFirst bool) {
	if closeFirst {
		for _, sp := range p.path {
			if sp.cur != sp.start {
				sp.segs = append(sp.segs, Segment{From: sp.cur, To: sp.start})
				sp.cur = sp.start
			}
		}
	}
	for _, sp := range p.path {
		if len(sp.points) == 0 {
			continue
		}
		d := Drawing{Rect: pointsBBox(sp.points), Kind: kind, Segments: sp.segs}
		if kind == KindFill || kind == KindFillStroke {
			fill := p.state.fill
			d.Fill = &fill
		}
		if kind == KindStroke || kind == KindFillStroke {
			stroke := p.state.stroke
			d.Stroke = &stroke
		}
		p.drawings = append(p.drawings, d)
	}
	p.path = nil
}

// op applies one content-stream operator with its numeric operands
func (p *painter) op(name string, args []float64) {
	switch name {
	case "q":
		p.stack = append(p.stack, p.state)
	case "Q":
		if n := len(p.stack); n > 0 {
			p.state = p.stack[n-1]
			p.stack = p.stack[:n-1]
		}
	case "cm":
		if len(args) == 6 {
			m := matrix{args[0], args[1], args[2], args[3], args[4], args[5]}
			p.state.ctm = m.then(p.state.ctm)
		}

	case "g", "rg", "k", "sc", "scn":
		if c, ok := colorFrom(args); ok {
			p.state.fill = c
		}
	case "G", "RG", "K", "SC", "SCN":
		if c, ok := colorFrom(args); ok {
			p.state.stroke = c
		}
	case "cs":
		p.state.fill = Black
	case "CS":
		p.state.stroke = Black

	case "m":
		if len(args) == 2 {
			p.moveTo(p.toPage(args[0], args[1]))
		}
	case "l":
		if len(args) == 2 {
			p.lineTo(p.toPage(args[0], args[1]))
		}
	case "c":
		if len(args) == 6 {
			p.curveTo([]Point{p.toPage(args[0], args[1]), p.toPage(args[2], args[3])}, p.toPage(args[4], args[5]))
		}
	case "v", "y":
		if len(args) == 4 {
			p.curveTo([]Point{p.toPage(args[0], args[1])}, p.toPage(args[2], args[3]))
		}
	case "h":
		p.closePath()
	case "re":
		if len(args) == 4 {
			x, y, w, h := args[0], args[1], args[2], args[3]
			p.moveTo(p.toPage(x, y))
			p.lineTo(p.toPage(x+w, y))
			p.lineTo(p.toPage(x+w, y+h))
			p.lineTo(p.toPage(x, y+h))
			p.closePath()
		}

	case "f", "F", "f*":
		p.paint(KindFill, false)
	case "S":
		p.paint(KindStroke, false)
	case "s":
		p.paint(KindStroke, true)
	case "B", "B*":
		p.paint(KindFillStroke, false)
	case "b", "b*":
		p.paint(KindFillStroke, true)
	case "n":
		p.path = nil
	}
}

// colorFrom converts gray, RGB or CMYK operands to RGB
func colorFrom(args []float64) (Color, bool) {
	switch len(args) {
	case 1:
		return Color{R: args[0], G: args[0], B: args[0]}, true
	case 3:
		return Color{R: args[0], G: args[1], B: args[2]}, true
	case 4:
		c, m, y, k := args[0], args[1], args[2], args[3]
		return Color{
			R: 1 - math.Min(1, c+k),
			G: 1 - math.Min(1, m+k),
			B: 1 - math.Min(1, y+k),
		}, true
	default:
		return Color{}, false
	}
}

func pointsBBox(pts []Point) BBox {
	box := BBox{X0: pts[0].X, Top: pts[0].Y, X1: pts[0].X, Bottom: pts[0].Y}
	for _, pt := range pts[1:] {
		box.X0 = math.Min(box.X0, pt.X)
		box.X1 = math.Max(box.X1, pt.X)
		box.Top = math.Min(box.Top, pt.Y)
		box.Bottom = math.Max(box.Bottom, pt.Y)
	}
	return box
}

// interpret walks one content stream, following form XObjects
func (p *painter) interpret(strm, resources pdf.Value, depth int) {
	pdf.Interpret(strm, func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		if op == "Do" {
			if n == 1 && depth < maxFormDepth {
				p.doForm(resources, args[0].Name(), depth)
			}
			return
		}

		nums := make([]float64, 0, n)
		for _, a := range args {
			switch a.Kind() {
			case pdf.Integer, pdf.Real:
				nums = append(nums, a.Float64())
			}
		}
		p.op(op, nums)
	})
}

func (p *painter) doForm(resources pdf.Value, name string, depth int) {
	if resources.IsNull() || name == "" {
		return
	}
	xobj := resources.Key("XObject").Key(name)
	if xobj.Kind() != pdf.Stream || xobj.Key("Subtype").Name() != "Form" {
		return
	}

	p.op("q", nil)
	defer p.op("Q", nil)

	if m := xobj.Key("Matrix"); m.Kind() == pdf.Array && m.Len() == 6 {
		args := make([]float64, 6)
		for i := range args {
			args[i] = m.Index(i).Float64()
		}
		p.op("cm", args)
	}

	formResources := xobj.Key("Resources")
	if formResources.IsNull() {
		formResources = resources
	}
	p.interpret(xobj, formResources, depth+1)
}

// drawingsOf replays every content stream of a page
func drawingsOf(page pdf.Page, originX, originY float64) []Drawing {
	p := newPainter(originX, originY)
	resources := page.Resources()
	contents := page.V.Key("Contents")
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			p.interpret(contents.Index(i), resources, 0)
		}
	} else if !contents.IsNull() {
		p.interpret(contents, resources, 0)
	}
	return p.drawings
}
