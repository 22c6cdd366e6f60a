package templates

import (
	"math/rand/v2"
	"unicode/utf8"
)

// Color is the stroke color of generated elements. It reads on both light
// and dark canvases.
const Color = "#64748b"

// Canvas anchor that layouts are placed around.
const (
	cx = 300.0
	cy = 200.0
)

type point [2]float64

// builder creates excalidraw element records.
type builder struct {
	env Env
	rng *rand.Rand
	out []map[string]any
}

func (b *builder) base(kind string, x, y, w, h float64) map[string]any {
	return map[string]any{
		"id":              b.env.NewID(),
		"type":            kind,
		"x":               x,
		"y":               y,
		"width":           w,
		"height":          h,
		"strokeColor":     Color,
		"angle":           0,
		"backgroundColor": "transparent",
		"fillStyle":       "hachure",
		"strokeWidth":     2,
		"strokeStyle":     "solid",
		"roughness":       1,
		"opacity":         100,
		"groupIds":        []string{},
		"roundness":       nil,
		"seed":            b.rng.IntN(100000),
		"version":         1,
		"versionNonce":    b.rng.IntN(100000),
		"isDeleted":       false,
		"boundElements":   nil,
		"updated":         b.env.Now,
		"link":            nil,
		"locked":          false,
	}
}

type textOpts struct {
	align string
	width float64
}

func (b *builder) text(x, y float64, s string, size float64, o textOpts) {
	w := o.width
	if w == 0 {
		w = float64(utf8.RuneCountInString(s)) * size * 0.6
	}
	align := o.align
	if align == "" {
		align = "left"
	}
	el := b.base("text", x, y, w, size*1.2)
	el["text"] = s
	el["fontSize"] = size
	el["fontFamily"] = 1
	el["textAlign"] = align
	el["verticalAlign"] = "top"
	el["baseline"] = int(size * 0.9)
	el["lineHeight"] = 1.2
	el["strokeWidth"] = 1
	el["roughness"] = 0
	b.out = append(b.out, el)
}

func (b *builder) rect(x, y, w, h float64, dashed bool) {
	el := b.base("rectangle", x, y, w, h)
	if dashed {
		el["strokeStyle"] = "dashed"
	}
	b.out = append(b.out, el)
}

func (b *builder) ellipse(x, y, w, h float64) {
	b.out = append(b.out, b.base("ellipse", x, y, w, h))
}

func (b *builder) line(x, y float64, pts ...point) {
	b.out = append(b.out, b.linear("line", x, y, pts))
}

func (b *builder) arrow(x, y float64, pts ...point) {
	el := b.linear("arrow", x, y, pts)
	el["lastCommittedPoint"] = pts[len(pts)-1]
	el["startArrowhead"] = nil
	el["endArrowhead"] = "arrow"
	b.out = append(b.out, el)
}

func (b *builder) linear(kind string, x, y float64, pts []point) map[string]any {
	first, last := pts[0], pts[len(pts)-1]
	el := b.base(kind, x, y, abs(last[0]-first[0]), abs(last[1]-first[1]))
	el["points"] = pts
	return el
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
