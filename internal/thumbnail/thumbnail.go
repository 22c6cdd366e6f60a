// Package thumbnail rasterizes excalidraw slides into small PNG previews
// for the preview store. Only the primitive shapes templates produce are
// drawn: rectangles, ellipses, lines, arrows and text. Tldraw snapshots are
// opaque here and render as a blank card.
package thumbnail

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roach88/slideboard/internal/model"
)

// Default preview size, 16:9.
const (
	DefaultWidth  = 320
	DefaultHeight = 180
)

const padding = 12.0

type element struct {
	Type        string       `json:"type"`
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Text        string       `json:"text"`
	FontSize    float64      `json:"fontSize"`
	StrokeColor string       `json:"strokeColor"`
	StrokeStyle string       `json:"strokeStyle"`
	Points      [][2]float64 `json:"points"`
	IsDeleted   bool         `json:"isDeleted"`
}

// Renderer draws slides at a fixed size.
type Renderer struct {
	width, height int
	font          *truetype.Font
}

// New returns a Renderer producing width x height images. Non-positive
// sizes use the defaults.
func New(width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("thumbnail font: %w", err)
	}
	return &Renderer{width: width, height: height, font: f}, nil
}

// PNG renders s.
func (r *Renderer) PNG(s model.Slide) ([]byte, error) {
	dc := gg.NewContext(r.width, r.height)

	bg := color.Color(color.White)
	var elements []element
	if p, ok := s.Payload.(model.ExcalidrawPayload); ok {
		if c, ok := parseColor(stringOf(p.AppState["viewBackgroundColor"])); ok {
			bg = c
		}
		elements = decodeElements(p.Elements)
	}
	dc.SetColor(bg)
	dc.Clear()

	if len(elements) > 0 {
		r.draw(dc, elements)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL renders s as a base64 PNG data URL.
func (r *Renderer) DataURL(s model.Slide) (string, error) {
	png, err := r.PNG(s)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// draw fits the bounding box of elements into the image.
func (r *Renderer) draw(dc *gg.Context, elements []element) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, el := range elements {
		minX = math.Min(minX, el.X)
		minY = math.Min(minY, el.Y)
		maxX = math.Max(maxX, el.X+el.Width)
		maxY = math.Max(maxY, el.Y+el.Height)
	}
	w, h := math.Max(maxX-minX, 1), math.Max(maxY-minY, 1)
	scale := math.Min((float64(r.width)-2*padding)/w, (float64(r.height)-2*padding)/h)
	offX := (float64(r.width) - w*scale) / 2
	offY := (float64(r.height) - h*scale) / 2

	tx := func(x float64) float64 { return offX + (x-minX)*scale }
	ty := func(y float64) float64 { return offY + (y-minY)*scale }

	for _, el := range elements {
		c, ok := parseColor(el.StrokeColor)
		if !ok {
			c = color.Black
		}
		dc.SetColor(c)
		dc.SetLineWidth(math.Max(1, 2*scale))
		if el.StrokeStyle == "dashed" {
			dc.SetDash(4, 3)
		} else {
			dc.SetDash()
		}

		switch el.Type {
		case "rectangle":
			dc.DrawRectangle(tx(el.X), ty(el.Y), el.Width*scale, el.Height*scale)
			dc.Stroke()
		case "ellipse":
			dc.DrawEllipse(tx(el.X+el.Width/2), ty(el.Y+el.Height/2), el.Width*scale/2, el.Height*scale/2)
			dc.Stroke()
		case "line", "arrow":
			r.polyline(dc, el, tx, ty)
		case "text":
			size := math.Max(4, el.FontSize*scale)
			dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone}))
			dc.DrawStringAnchored(el.Text, tx(el.X), ty(el.Y), 0, 1)
		}
	}
}

func (r *Renderer) polyline(dc *gg.Context, el element, tx, ty func(float64) float64) {
	if len(el.Points) < 2 {
		return
	}
	for i, p := range el.Points {
		x, y := tx(el.X+p[0]), ty(el.Y+p[1])
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()

	if el.Type != "arrow" {
		return
	}
	from, to := el.Points[len(el.Points)-2], el.Points[len(el.Points)-1]
	fx, fy := tx(el.X+from[0]), ty(el.Y+from[1])
	ex, ey := tx(el.X+to[0]), ty(el.Y+to[1])
	dx, dy := ex-fx, ey-fy
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx, dy = dx/length, dy/length
	const size, spread = 6.0, 0.5
	dc.SetDash()
	dc.MoveTo(ex, ey)
	dc.LineTo(ex-size*dx+size*dy*spread, ey-size*dy-size*dx*spread)
	dc.LineTo(ex-size*dx-size*dy*spread, ey-size*dy+size*dx*spread)
	dc.ClosePath()
	dc.Fill()
}

func decodeElements(raw []json.RawMessage) []element {
	out := make([]element, 0, len(raw))
	for _, r := range raw {
		var el element
		if err := json.Unmarshal(r, &el); err != nil || el.IsDeleted {
			continue
		}
		out = append(out, el)
	}
	return out
}

func stringOf(raw json.RawMessage) string {
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}

// parseColor reads #rgb and #rrggbb.
func parseColor(s string) (color.Color, bool) {
	if len(s) == 0 || s[0] != '#' {
		return nil, false
	}
	var r, g, b uint8
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return nil, false
		}
	case 4:
		if _, err := fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b); err != nil {
			return nil, false
		}
		r, g, b = r*17, g*17, b*17
	default:
		return nil, false
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, true
}
