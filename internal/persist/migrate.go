package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/roach88/slideboard/internal/model"
)

// DefaultDeckName names a stored deck that has none.
const DefaultDeckName = "Untitled Presentation"

var errCorrupt = errors.New("corrupt state document")

// Env supplies the time and ids that migration needs.
type Env struct {
	Now   int64
	NewID func() string

	// OnCoerce, when set, is told about every slide whose own engine
	// disagrees with its deck's and whose content is therefore dropped.
	OnCoerce func(deckID, slideID string, from model.Engine)
}

func (env Env) normalizeSlide(deckID string, raw json.RawMessage, engine model.Engine, id string) model.Slide {
	if from, ok := model.ConflictingEngine(raw, engine); ok && env.OnCoerce != nil {
		env.OnCoerce(deckID, id, from)
	}
	return model.NormalizeSlideAs(raw, engine, env.Now, id)
}

type rawFields = map[string]json.RawMessage

// rawState is a stored state before it is trusted.
type rawState struct {
	Folders       json.RawMessage
	Presentations []rawFields
	CurrentID     *string
}

// Migrate decodes a stored envelope and upgrades it to the current schema.
// It returns the state and the version the document was written at.
//
// Decks at the current version keep their slide ids. Decks from before
// engine tagging get their slides renormalized with fresh ids. Running
// Migrate on its own output yields the same state.
func Migrate(doc []byte, env Env) (model.State, int, error) {
	var top rawFields
	if err := json.Unmarshal(doc, &top); err != nil || top == nil {
		return model.State{}, 0, fmt.Errorf("%w: envelope is not an object", errCorrupt)
	}

	version := 0
	if v, ok := top["version"]; ok {
		n, ok := intValue(v)
		if !ok {
			return model.State{}, 0, fmt.Errorf("%w: version is not a number", errCorrupt)
		}
		version = int(n)
	}

	body, ok := top["state"]
	if !ok {
		// Very early builds wrote the state without an envelope.
		body = doc
	}
	raw, err := decodeRawState(body)
	if err != nil {
		return model.State{}, version, err
	}

	if version < 2 {
		migrateToV2(raw)
	}
	if version < 3 {
		migrateToV3(raw, env)
	}
	// v4 only added the optional problem baseline; nothing to rewrite.

	return buildState(raw, env), version, nil
}

func decodeRawState(body json.RawMessage) (*rawState, error) {
	var fields rawFields
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: state is not an object", errCorrupt)
	}

	raw := &rawState{Folders: fields["folders"]}
	if p, ok := fields["presentations"]; ok && !isNull(p) {
		var items []json.RawMessage
		if err := json.Unmarshal(p, &items); err != nil {
			return nil, fmt.Errorf("%w: presentations is not an array", errCorrupt)
		}
		for _, item := range items {
			var deck rawFields
			if err := json.Unmarshal(item, &deck); err != nil || deck == nil {
				continue
			}
			raw.Presentations = append(raw.Presentations, deck)
		}
	}
	if id := stringValue(fields["currentPresentationId"]); id != "" {
		raw.CurrentID = &id
	}
	return raw, nil
}

// migrateToV2 introduces folders. Every deck starts unfiled.
func migrateToV2(raw *rawState) {
	raw.Folders = json.RawMessage(`[]`)
	for _, deck := range raw.Presentations {
		deck["folderId"] = json.RawMessage(`null`)
	}
}

// migrateToV3 tags every deck with a canvas engine and every slide with the
// deck's engine. Slides get fresh ids.
func migrateToV3(raw *rawState, env Env) {
	for _, deck := range raw.Presentations {
		if v, ok := intValue(deck["version"]); ok && v >= 3 {
			continue
		}
		slides := rawSlides(deck)
		engine := model.InferDeckEngine(stringValue(deck["canvasEngine"]), slides)
		deck["canvasEngine"] = mustMarshal(engine)

		out := make([]model.Slide, 0, len(slides))
		for _, s := range slides {
			out = append(out, env.normalizeSlide(stringValue(deck["id"]), s, engine, env.NewID()))
		}
		deck["slides"] = mustMarshal(out)
		deck["version"] = mustMarshal(3)
	}
}

// buildState turns a raw state at the current shape into a model.State,
// repairing anything that would break an invariant.
func buildState(raw *rawState, env Env) model.State {
	st := model.EmptyState()
	st.Folders = decodeFolders(raw.Folders, env)

	seen := make(map[string]struct{}, len(raw.Presentations))
	for _, fields := range raw.Presentations {
		d := buildDeck(fields, env)
		if _, dup := seen[d.ID]; dup {
			d.ID = env.NewID()
		}
		seen[d.ID] = struct{}{}
		st.Presentations = append(st.Presentations, d)
	}

	if raw.CurrentID != nil && st.DeckIndex(*raw.CurrentID) >= 0 {
		st.CurrentPresentationID = model.StringPtr(*raw.CurrentID)
	}
	return st
}

func buildDeck(fields rawFields, env Env) model.Deck {
	slides := rawSlides(fields)
	engine := model.InferDeckEngine(stringValue(fields["canvasEngine"]), slides)

	d := model.Deck{
		ID:           stringValue(fields["id"]),
		Name:         stringValue(fields["name"]),
		CanvasEngine: engine,
		CreatedAt:    timeValue(fields["createdAt"]),
		UpdatedAt:    timeValue(fields["updatedAt"]),
		Version:      model.SchemaVersion,
	}
	if d.ID == "" {
		d.ID = env.NewID()
	}
	if d.Name == "" {
		d.Name = DefaultDeckName
	}
	if d.CreatedAt <= 0 {
		d.CreatedAt = env.Now
	}
	if d.UpdatedAt <= 0 {
		d.UpdatedAt = d.CreatedAt
	}
	if f := stringValue(fields["folderId"]); f != "" {
		d.FolderID = model.StringPtr(f)
	}

	ids := make(map[string]struct{}, len(slides))
	for _, s := range slides {
		id := stringValue(slideID(s))
		if _, dup := ids[id]; id == "" || dup {
			id = env.NewID()
		}
		ids[id] = struct{}{}
		d.Slides = append(d.Slides, env.normalizeSlide(d.ID, s, engine, id))
	}
	if len(d.Slides) == 0 {
		d.Slides = []model.Slide{model.NewEmptySlide(engine, env.Now, env.NewID())}
	}

	cursor, _ := intValue(fields["currentSlideIndex"])
	d.CurrentSlideIndex = model.ClampIndex(int(cursor), len(d.Slides))
	return d
}

func decodeFolders(raw json.RawMessage, env Env) []model.Folder {
	var items []rawFields
	if err := json.Unmarshal(raw, &items); err != nil {
		return []model.Folder{}
	}
	out := make([]model.Folder, 0, len(items))
	for _, fields := range items {
		id := stringValue(fields["id"])
		if id == "" {
			continue
		}
		f := model.Folder{
			ID:        id,
			Name:      stringValue(fields["name"]),
			CreatedAt: timeValue(fields["createdAt"]),
			UpdatedAt: timeValue(fields["updatedAt"]),
		}
		if p := stringValue(fields["parentId"]); p != "" {
			f.ParentID = model.StringPtr(p)
		}
		if f.CreatedAt <= 0 {
			f.CreatedAt = env.Now
		}
		if f.UpdatedAt <= 0 {
			f.UpdatedAt = f.CreatedAt
		}
		out = append(out, f)
	}
	return out
}

func rawSlides(deck rawFields) []json.RawMessage {
	var slides []json.RawMessage
	if err := json.Unmarshal(deck["slides"], &slides); err != nil {
		return nil
	}
	return slides
}

func slideID(raw json.RawMessage) json.RawMessage {
	var fields rawFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields["id"]
}

func stringValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func intValue(raw json.RawMessage) (int64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// timeValue reads epoch milliseconds. Some old builds stored RFC 3339
// strings instead.
func timeValue(raw json.RawMessage) int64 {
	if n, ok := intValue(raw); ok {
		return n
	}
	if s := stringValue(raw); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("persist: marshal %T: %v", v, err))
	}
	return data
}
