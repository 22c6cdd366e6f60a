// Package templates holds the slide layout catalogue. A template turns a
// few prompt values into excalidraw element records for ApplyTemplate.
package templates

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrUnknownTemplate is returned by Generate for an id not in the catalogue.
var ErrUnknownTemplate = errors.New("unknown template")

// Prompt is a value a template asks for.
type Prompt struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Default     string `json:"defaultValue"`
}

// Template is one entry of the catalogue.
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Prompts     []Prompt `json:"prompts"`

	layout func(b *builder, v values)
}

// Env supplies element ids, the update timestamp and the seed of the
// hand-drawn stroke jitter.
type Env struct {
	NewID func() string
	Now   int64
	Seed  uint64
}

type values map[string]string

// get returns the value of key, or def when it is empty.
func (v values) get(key, def string) string {
	if s := v[key]; s != "" {
		return s
	}
	return def
}

func prompt(id, label, placeholder, def string) Prompt {
	return Prompt{ID: id, Label: label, Placeholder: placeholder, Default: def}
}

func titlePrompt(def string) Prompt {
	return prompt("title", "Title", "Enter title", def)
}

var catalogue = []Template{
	{
		ID: "blank", Name: "Blank", Description: "Empty canvas",
		Prompts: []Prompt{},
		layout:  func(*builder, values) {},
	},
	{
		ID: "title-only", Name: "Title Only", Description: "Large centered title",
		Prompts: []Prompt{titlePrompt("Title")},
		layout: func(b *builder, v values) {
			b.text(cx-100, cy-20, v.get("title", "Title"), 36, textOpts{"center", 200})
		},
	},
	{
		ID: "title-subtitle", Name: "Title + Subtitle", Description: "Title with subtitle below",
		Prompts: []Prompt{titlePrompt("Title"), prompt("subtitle", "Subtitle", "Enter subtitle", "Subtitle")},
		layout: func(b *builder, v values) {
			b.text(cx-120, cy-40, v.get("title", "Title"), 36, textOpts{"center", 240})
			b.text(cx-80, cy+20, v.get("subtitle", "Subtitle"), 20, textOpts{"center", 160})
		},
	},
	{
		ID: "section-header", Name: "Section Header", Description: "Bold section divider",
		Prompts: []Prompt{prompt("section", "Section Name", "Enter section name", "Section")},
		layout: func(b *builder, v values) {
			b.line(cx-150, cy-50, point{0, 0}, point{300, 0})
			b.text(cx-80, cy-30, v.get("section", "Section"), 32, textOpts{"center", 160})
			b.line(cx-150, cy+20, point{0, 0}, point{300, 0})
		},
	},
	{
		ID: "title-bullets", Name: "Title + Bullets", Description: "Title at top, bullet list area",
		Prompts: []Prompt{titlePrompt("Title")},
		layout: func(b *builder, v values) {
			b.text(cx-150, 60, v.get("title", "Title"), 28, textOpts{width: 300})
			b.line(cx-150, 100, point{0, 0}, point{300, 0})
			for i, label := range []string{"Point one", "Point two", "Point three"} {
				y := 130 + float64(i)*35
				b.ellipse(cx-150, y, 8, 8)
				b.text(cx-135, y-5, label, 18, textOpts{})
			}
		},
	},
	{
		ID: "two-columns", Name: "Two Columns", Description: "Title with two side-by-side areas",
		Prompts: []Prompt{
			titlePrompt("Title"),
			prompt("left", "Left Label", "Left column label", "Left"),
			prompt("right", "Right Label", "Right column label", "Right"),
		},
		layout: func(b *builder, v values) {
			b.text(cx-120, 50, v.get("title", "Title"), 28, textOpts{"center", 240})
			b.rect(cx-160, 100, 140, 180, false)
			b.text(cx-130, 110, v.get("left", "Left"), 16, textOpts{"center", 80})
			b.rect(cx+20, 100, 140, 180, false)
			b.text(cx+50, 110, v.get("right", "Right"), 16, textOpts{"center", 80})
		},
	},
	{
		ID: "comparison", Name: "Comparison", Description: "Two options with vs in middle",
		Prompts: []Prompt{
			titlePrompt("Comparison"),
			prompt("optionA", "Option A", "First option", "Option A"),
			prompt("optionB", "Option B", "Second option", "Option B"),
		},
		layout: func(b *builder, v values) {
			b.text(cx-100, 40, v.get("title", "Comparison"), 28, textOpts{"center", 200})
			b.rect(cx-170, 90, 130, 160, false)
			b.text(cx-155, 100, v.get("optionA", "Option A"), 16, textOpts{width: 100})
			b.text(cx-20, cy, "vs", 24, textOpts{"center", 40})
			b.rect(cx+40, 90, 130, 160, false)
			b.text(cx+55, 100, v.get("optionB", "Option B"), 16, textOpts{width: 100})
		},
	},
	{
		ID: "diagram", Name: "Diagram", Description: "Title with centered diagram area",
		Prompts: []Prompt{titlePrompt("Diagram")},
		layout: func(b *builder, v values) {
			b.text(cx-100, 40, v.get("title", "Diagram"), 28, textOpts{"center", 200})
			b.rect(cx-120, 90, 240, 200, true)
			b.text(cx-60, cy, "Diagram Area", 16, textOpts{"center", 120})
		},
	},
	{
		ID: "flowchart", Name: "Flowchart", Description: "Three connected steps",
		Prompts: []Prompt{
			titlePrompt("Process"),
			prompt("step1", "Step 1", "First step", "Step 1"),
			prompt("step2", "Step 2", "Second step", "Step 2"),
			prompt("step3", "Step 3", "Third step", "Step 3"),
		},
		layout: func(b *builder, v values) {
			b.text(cx-80, 40, v.get("title", "Process"), 28, textOpts{"center", 160})
			for i, key := range []string{"step1", "step2", "step3"} {
				x := cx - 160 + float64(i)*120
				b.rect(x, 100, 80, 50, false)
				b.text(x+10, 115, v.get(key, fmt.Sprintf("Step %d", i+1)), 14, textOpts{"center", 60})
				if i < 2 {
					b.arrow(x+80, 125, point{0, 0}, point{40, 0})
				}
			}
		},
	},
	{
		ID: "timeline", Name: "Timeline", Description: "Horizontal timeline with markers",
		Prompts: []Prompt{titlePrompt("Timeline")},
		layout: func(b *builder, v values) {
			b.text(cx-80, 40, v.get("title", "Timeline"), 28, textOpts{"center", 160})
			b.line(cx-180, cy, point{0, 0}, point{360, 0})
			labelX := []float64{cx - 130, cx - 20, cx + 100}
			for i, off := range []float64{-120, 0, 120} {
				b.ellipse(cx+off-6, cy-6, 12, 12)
				b.text(labelX[i], cy+20, fmt.Sprintf("Event %d", i+1), 14, textOpts{})
			}
		},
	},
	{
		ID: "image-placeholder", Name: "Image Placeholder", Description: "Title with image area",
		Prompts: []Prompt{titlePrompt("Title"), prompt("caption", "Caption", "Image caption", "Image")},
		layout: func(b *builder, v values) {
			b.text(cx-100, 40, v.get("title", "Title"), 28, textOpts{"center", 200})
			b.rect(cx-120, 90, 240, 180, true)
			b.text(cx-40, cy, v.get("caption", "Image"), 18, textOpts{"center", 80})
		},
	},
	{
		ID: "quote", Name: "Quote", Description: "Large quote with attribution",
		Prompts: []Prompt{
			prompt("quote", "Quote", "Enter quote", "Quote goes here"),
			prompt("author", "Author", "Author name", "Author"),
		},
		layout: func(b *builder, v values) {
			b.text(cx-180, cy-60, `"`, 72, textOpts{})
			b.text(cx-140, cy-30, v.get("quote", "Quote goes here"), 22, textOpts{width: 280})
			b.text(cx-140, cy+40, "- "+v.get("author", "Author"), 16, textOpts{})
		},
	},
	{
		ID: "equation", Name: "Equation", Description: "Title with equation area",
		Prompts: []Prompt{titlePrompt("Equation")},
		layout: func(b *builder, v values) {
			b.text(cx-100, 50, v.get("title", "Equation"), 28, textOpts{"center", 200})
			b.rect(cx-140, 100, 280, 120, true)
			b.text(cx-80, cy-10, "f(x) = ...", 24, textOpts{"center", 160})
		},
	},
	{
		ID: "thank-you", Name: "Thank You", Description: "Closing slide",
		Prompts: []Prompt{prompt("message", "Message", "Closing message", "Thank You")},
		layout: func(b *builder, v values) {
			b.text(cx-120, cy-30, v.get("message", "Thank You"), 48, textOpts{"center", 240})
		},
	},
}

// All returns the catalogue in display order.
func All() []Template {
	return append([]Template(nil), catalogue...)
}

// Lookup finds a template by id.
func Lookup(id string) (Template, bool) {
	for _, t := range catalogue {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Generate renders template id with vals. Missing or empty values fall back
// to the template's defaults.
func Generate(id string, vals map[string]string, env Env) ([]json.RawMessage, error) {
	t, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}

	b := &builder{env: env, rng: rand.New(rand.NewPCG(env.Seed, env.Seed^0x9e3779b97f4a7c15))}
	t.layout(b, values(vals))

	out := make([]json.RawMessage, 0, len(b.out))
	for _, el := range b.out {
		raw, err := json.Marshal(el)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", id, err)
		}
		out = append(out, raw)
	}
	return out, nil
}
