package model

import "encoding/json"

// NewEmptySlide returns a slide with no content for engine.
func NewEmptySlide(engine Engine, now int64, id string) Slide {
	if !engine.Valid() {
		engine = DefaultEngine
	}
	return Slide{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   EmptyPayload(engine),
	}
}

// NormalizeSlide turns an arbitrary stored or imported slide record into a
// well-formed Slide. It never fails: the engine is taken from the tag, then
// inferred from field presence, then from fallback, and missing payload
// fields get engine defaults. The result always carries id, never the
// record's own id. Scene version, timestamps and a baseline are kept.
func NormalizeSlide(raw json.RawMessage, fallback Engine, now int64, id string) Slide {
	return normalize(raw, fallback, false, now, id)
}

// NormalizeSlideAs is NormalizeSlide with the engine fixed to engine. Fields
// of the other variant are discarded, so a record of the wrong engine comes
// out empty.
func NormalizeSlideAs(raw json.RawMessage, engine Engine, now int64, id string) Slide {
	return normalize(raw, engine, true, now, id)
}

// ConflictingEngine reports the engine a record claims when it differs from
// engine, meaning NormalizeSlideAs would discard the record's content.
func ConflictingEngine(raw json.RawMessage, engine Engine) (Engine, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return "", false
	}
	own := inferSlideEngine(fields, engine)
	return own, own != engine
}

func normalize(raw json.RawMessage, engine Engine, force bool, now int64, id string) Slide {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return NewEmptySlide(engine, now, id)
	}

	s := decodeSlide(fields, engine, force)
	s.ID = id
	if s.CreatedAt <= 0 {
		s.CreatedAt = now
	}
	if s.UpdatedAt <= 0 {
		s.UpdatedAt = s.CreatedAt
	}
	if s.Baseline != nil && s.BaselineUpdatedAt <= 0 {
		s.BaselineUpdatedAt = s.UpdatedAt
	}
	return s
}

// InferDeckEngine picks the engine of a legacy deck with no valid tag: any
// slide carrying an elements field makes it excalidraw, otherwise tldraw.
func InferDeckEngine(tag string, slides []json.RawMessage) Engine {
	if e := Engine(tag); e.Valid() {
		return e
	}
	for _, raw := range slides {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		if _, ok := fields["elements"]; ok {
			return EngineExcalidraw
		}
	}
	return EngineTldraw
}
