package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/slideboard/internal/model"
)

// ImportSuffix is appended to the name of an imported deck.
const ImportSuffix = " (Imported)"

// ImportError reports why a document was rejected.
type ImportError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	return fmt.Sprintf("invalid presentation document: %s %s", e.Field, e.Reason)
}

// IsImportError reports whether err is, or wraps, an *ImportError.
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}

// Encode renders a deck as an indented presentation document.
func Encode(d model.Deck) ([]byte, error) {
	data, err := model.MarshalPretty(d)
	if err != nil {
		return nil, fmt.Errorf("encode presentation %s: %w", d.ID, err)
	}
	return data, nil
}

// Option adjusts Decode.
type Option func(*decodeOptions)

type decodeOptions struct {
	onCoerce func(deckID, slideID string, from model.Engine)
}

// OnCoerce registers fn to hear about every slide whose own engine
// disagrees with the deck engine. Such a slide loses its content.
func OnCoerce(fn func(deckID, slideID string, from model.Engine)) Option {
	return func(o *decodeOptions) { o.onCoerce = fn }
}

// Decode parses a presentation document into a new deck.
//
// The document must be an object with a non-empty string name and a slides
// array. The deck engine is the document's canvasEngine when valid, else
// excalidraw when any slide has elements, else tldraw. Every slide is
// normalized to that engine with a new id; an empty slides array yields one
// empty slide. The cursor is clamped, folderId is dropped and the name gets
// ImportSuffix.
func Decode(doc []byte, now int64, newID func() string, opts ...Option) (model.Deck, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil || fields == nil {
		return model.Deck{}, &ImportError{Field: "document", Reason: "must be a JSON object"}
	}

	var name string
	if err := json.Unmarshal(fields["name"], &name); err != nil || name == "" {
		return model.Deck{}, &ImportError{Field: "name", Reason: "must be a non-empty string"}
	}

	var slides []json.RawMessage
	rawSlides, ok := fields["slides"]
	if !ok {
		return model.Deck{}, &ImportError{Field: "slides", Reason: "is required"}
	}
	if err := json.Unmarshal(rawSlides, &slides); err != nil || slides == nil {
		return model.Deck{}, &ImportError{Field: "slides", Reason: "must be an array"}
	}

	var tag string
	_ = json.Unmarshal(fields["canvasEngine"], &tag)
	engine := model.InferDeckEngine(tag, slides)

	d := model.Deck{
		ID:           newID(),
		Name:         name + ImportSuffix,
		CanvasEngine: engine,
		Slides:       make([]model.Slide, 0, max(len(slides), 1)),
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      model.SchemaVersion,
	}
	for _, raw := range slides {
		s := model.NormalizeSlideAs(raw, engine, now, newID())
		if from, ok := model.ConflictingEngine(raw, engine); ok && o.onCoerce != nil {
			o.onCoerce(d.ID, s.ID, from)
		}
		d.Slides = append(d.Slides, s)
	}
	if len(d.Slides) == 0 {
		d.Slides = append(d.Slides, model.NewEmptySlide(engine, now, newID()))
	}

	var cursor int
	_ = json.Unmarshal(fields["currentSlideIndex"], &cursor)
	d.CurrentSlideIndex = model.ClampIndex(cursor, len(d.Slides))
	return d, nil
}
