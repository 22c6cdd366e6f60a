package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// Engine identifies the canvas backend that owns a slide's content.
type Engine string

const (
	// EngineExcalidraw stores an ordered element list, view state and files.
	EngineExcalidraw Engine = "excalidraw"
	// EngineTldraw stores a single document snapshot.
	EngineTldraw Engine = "tldraw"
)

// DefaultEngine is used for new decks when the caller does not pick one.
const DefaultEngine = EngineTldraw

// Valid reports whether e is one of the supported engines.
func (e Engine) Valid() bool {
	return e == EngineExcalidraw || e == EngineTldraw
}

// ParseEngine converts a user supplied engine name.
func ParseEngine(s string) (Engine, error) {
	e := Engine(s)
	if !e.Valid() {
		return "", fmt.Errorf("unknown canvas engine %q: must be %q or %q", s, EngineExcalidraw, EngineTldraw)
	}
	return e, nil
}

// Payload is the engine-specific content of a slide.
// The only implementations are ExcalidrawPayload and TldrawPayload.
type Payload interface {
	Engine() Engine
	clonePayload() Payload
}

// ExcalidrawPayload is the content of an excalidraw slide.
type ExcalidrawPayload struct {
	Elements []json.RawMessage
	AppState map[string]json.RawMessage
	Files    map[string]json.RawMessage
}

// Engine implements Payload.
func (ExcalidrawPayload) Engine() Engine { return EngineExcalidraw }

// TldrawPayload is the content of a tldraw slide. A nil Snapshot is an
// empty document.
type TldrawPayload struct {
	Snapshot json.RawMessage
}

// Engine implements Payload.
func (TldrawPayload) Engine() Engine { return EngineTldraw }

// BlankBackground is the view background of a fresh excalidraw slide.
const BlankBackground = "#ffffff"

// EmptyPayload returns the zero-content payload for engine.
func EmptyPayload(engine Engine) Payload {
	if engine == EngineExcalidraw {
		return ExcalidrawPayload{
			Elements: []json.RawMessage{},
			AppState: map[string]json.RawMessage{
				"viewBackgroundColor": json.RawMessage(`"` + BlankBackground + `"`),
			},
			Files: map[string]json.RawMessage{},
		}
	}
	return TldrawPayload{}
}

// Slide is one canvas page of a deck.
type Slide struct {
	ID string
	// SceneVersion is bumped whenever the payload is replaced wholesale so
	// a mounted canvas view discards its internal state.
	SceneVersion int64
	CreatedAt    int64
	UpdatedAt    int64
	Payload      Payload

	// Baseline is the saved problem state; nil when none was saved.
	Baseline          Payload
	BaselineUpdatedAt int64
}

// Engine returns the engine tag of the slide's payload.
func (s Slide) Engine() Engine {
	if s.Payload == nil {
		return ""
	}
	return s.Payload.Engine()
}

// HasBaseline reports whether a problem baseline was saved for the slide.
func (s Slide) HasBaseline() bool {
	return s.Baseline != nil
}

// SlidePatch carries canvas output for UpdateSlide. A nil field is left
// untouched. Snapshot set to the JSON literal null empties a tldraw slide.
type SlidePatch struct {
	Elements []json.RawMessage         `json:"elements,omitempty"`
	AppState map[string]json.RawMessage `json:"appState,omitempty"`
	Files    map[string]json.RawMessage `json:"files,omitempty"`
	Snapshot json.RawMessage            `json:"snapshot,omitempty"`
}

// ApplyPatch merges the fields of patch that belong to the payload's engine.
// Fields of the other engine are ignored. The second result is false when
// nothing applicable was present.
func ApplyPatch(p Payload, patch SlidePatch) (Payload, bool) {
	switch cur := p.(type) {
	case ExcalidrawPayload:
		changed := false
		if patch.Elements != nil {
			cur.Elements = compactRawSlice(patch.Elements)
			changed = true
		}
		if patch.AppState != nil {
			cur.AppState = compactRawMap(maps.Clone(patch.AppState))
			changed = true
		}
		if patch.Files != nil {
			cur.Files = compactRawMap(maps.Clone(patch.Files))
			changed = true
		}
		return cur, changed
	case TldrawPayload:
		if patch.Snapshot == nil {
			return cur, false
		}
		if isNull(patch.Snapshot) {
			cur.Snapshot = nil
		} else {
			cur.Snapshot = compactRaw(patch.Snapshot)
		}
		return cur, true
	default:
		return p, false
	}
}

// slideWire is the persisted and exported shape of a Slide: one flat
// object whose payload fields depend on the engine tag.
type slideWire struct {
	ID                       string          `json:"id"`
	Engine                   Engine          `json:"engine"`
	SceneVersion             int64           `json:"sceneVersion"`
	Elements                 json.RawMessage `json:"elements,omitempty"`
	AppState                 json.RawMessage `json:"appState,omitempty"`
	Files                    json.RawMessage `json:"files,omitempty"`
	Snapshot                 json.RawMessage `json:"snapshot,omitempty"`
	ProblemBaseline          json.RawMessage `json:"problemBaseline,omitempty"`
	ProblemBaselineUpdatedAt *int64          `json:"problemBaselineUpdatedAt,omitempty"`
	CreatedAt                int64           `json:"createdAt"`
	UpdatedAt                int64           `json:"updatedAt"`
}

// payloadWire is the shape of a payload nested under problemBaseline.
type payloadWire struct {
	Elements json.RawMessage `json:"elements,omitempty"`
	AppState json.RawMessage `json:"appState,omitempty"`
	Files    json.RawMessage `json:"files,omitempty"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s Slide) MarshalJSON() ([]byte, error) {
	payload := s.Payload
	if payload == nil {
		payload = EmptyPayload(DefaultEngine)
	}
	w := slideWire{
		ID:           s.ID,
		Engine:       payload.Engine(),
		SceneVersion: s.SceneVersion,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	pw, err := encodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("slide %s: %w", s.ID, err)
	}
	w.Elements, w.AppState, w.Files, w.Snapshot = pw.Elements, pw.AppState, pw.Files, pw.Snapshot

	if s.Baseline != nil {
		bw, err := encodePayload(s.Baseline)
		if err != nil {
			return nil, fmt.Errorf("slide %s baseline: %w", s.ID, err)
		}
		w.ProblemBaseline, err = json.Marshal(bw)
		if err != nil {
			return nil, fmt.Errorf("slide %s baseline: %w", s.ID, err)
		}
		at := s.BaselineUpdatedAt
		w.ProblemBaselineUpdatedAt = &at
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. The id is kept; missing or
// malformed payload fields are replaced by engine defaults.
func (s *Slide) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("slide: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("slide: expected object, got null")
	}
	*s = decodeSlide(fields, DefaultEngine, false)
	return nil
}

func encodePayload(p Payload) (payloadWire, error) {
	var w payloadWire
	var err error
	switch v := p.(type) {
	case ExcalidrawPayload:
		elements := v.Elements
		if elements == nil {
			elements = []json.RawMessage{}
		}
		if w.Elements, err = json.Marshal(elements); err != nil {
			return w, fmt.Errorf("elements: %w", err)
		}
		if w.AppState, err = marshalRawMap(v.AppState); err != nil {
			return w, fmt.Errorf("appState: %w", err)
		}
		if w.Files, err = marshalRawMap(v.Files); err != nil {
			return w, fmt.Errorf("files: %w", err)
		}
	case TldrawPayload:
		if v.Snapshot == nil {
			w.Snapshot = json.RawMessage("null")
		} else {
			w.Snapshot = v.Snapshot
		}
	default:
		return w, fmt.Errorf("unsupported payload type %T", p)
	}
	return w, nil
}

func marshalRawMap(m map[string]json.RawMessage) (json.RawMessage, error) {
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	return json.Marshal(m)
}

// decodeSlide builds a Slide from the fields of a raw slide object.
// With force set, the payload is read as fallback regardless of the tag.
func decodeSlide(fields map[string]json.RawMessage, fallback Engine, force bool) Slide {
	engine := fallback
	if !force || !engine.Valid() {
		engine = inferSlideEngine(fields, fallback)
	}

	s := Slide{
		ID:           stringField(fields, "id"),
		SceneVersion: intField(fields, "sceneVersion"),
		CreatedAt:    intField(fields, "createdAt"),
		UpdatedAt:    intField(fields, "updatedAt"),
		Payload:      decodePayload(fields, engine),
	}
	if s.SceneVersion < 0 {
		s.SceneVersion = 0
	}

	if raw, ok := fields["problemBaseline"]; ok && !isNull(raw) {
		var baseline map[string]json.RawMessage
		if err := json.Unmarshal(raw, &baseline); err == nil && baseline != nil {
			s.Baseline = decodePayload(baseline, engine)
			s.BaselineUpdatedAt = intField(fields, "problemBaselineUpdatedAt")
		}
	}
	return s
}

// inferSlideEngine reads the engine tag, then falls back to field presence:
// elements means excalidraw, snapshot means tldraw.
func inferSlideEngine(fields map[string]json.RawMessage, fallback Engine) Engine {
	if tag := Engine(stringField(fields, "engine")); tag.Valid() {
		return tag
	}
	if _, ok := fields["elements"]; ok {
		return EngineExcalidraw
	}
	if _, ok := fields["snapshot"]; ok {
		return EngineTldraw
	}
	if fallback.Valid() {
		return fallback
	}
	return DefaultEngine
}

func decodePayload(fields map[string]json.RawMessage, engine Engine) Payload {
	if engine == EngineExcalidraw {
		p := ExcalidrawPayload{
			Elements: []json.RawMessage{},
			AppState: map[string]json.RawMessage{},
			Files:    map[string]json.RawMessage{},
		}
		if raw, ok := fields["elements"]; ok {
			var elements []json.RawMessage
			if err := json.Unmarshal(raw, &elements); err == nil && elements != nil {
				for i := range elements {
					elements[i] = compactRaw(elements[i])
				}
				p.Elements = elements
			}
		}
		if raw, ok := fields["appState"]; ok {
			var appState map[string]json.RawMessage
			if err := json.Unmarshal(raw, &appState); err == nil && appState != nil {
				p.AppState = compactRawMap(appState)
			}
		}
		if raw, ok := fields["files"]; ok {
			var files map[string]json.RawMessage
			if err := json.Unmarshal(raw, &files); err == nil && files != nil {
				p.Files = compactRawMap(files)
			}
		}
		return p
	}

	p := TldrawPayload{}
	if raw, ok := fields["snapshot"]; ok && !isNull(raw) && json.Valid(raw) {
		p.Snapshot = compactRaw(raw)
	}
	return p
}

// compactRaw strips insignificant whitespace so decoded payloads compare
// equal regardless of how the document was indented. It always returns a
// fresh slice.
func compactRaw(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return cloneRaw(raw)
	}
	return json.RawMessage(buf.Bytes())
}

func compactRawSlice(in []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(in))
	for i, r := range in {
		out[i] = compactRaw(r)
	}
	return out
}

func compactRawMap(m map[string]json.RawMessage) map[string]json.RawMessage {
	for k, v := range m {
		m[k] = compactRaw(v)
	}
	return m
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// intField accepts integers and JSON numbers with a fraction or exponent
// (timestamps written by JavaScript clients), truncating toward zero.
func intField(fields map[string]json.RawMessage, key string) int64 {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return int64(f)
	}
	return 0
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
