package model

import (
	"encoding/json"

	"github.com/tiendc/go-deepcopy"
)

func (p ExcalidrawPayload) clonePayload() Payload {
	var out ExcalidrawPayload
	if err := deepcopy.Copy(&out, &p); err != nil {
		return ExcalidrawPayload{
			Elements: cloneRawSlice(p.Elements),
			AppState: cloneRawMap(p.AppState),
			Files:    cloneRawMap(p.Files),
		}
	}
	if out.Elements == nil {
		out.Elements = []json.RawMessage{}
	}
	if out.AppState == nil {
		out.AppState = map[string]json.RawMessage{}
	}
	if out.Files == nil {
		out.Files = map[string]json.RawMessage{}
	}
	return out
}

func (p TldrawPayload) clonePayload() Payload {
	return TldrawPayload{Snapshot: cloneRaw(p.Snapshot)}
}

// ClonePayload returns a copy of p that shares no memory with it.
func ClonePayload(p Payload) Payload {
	if p == nil {
		return nil
	}
	return p.clonePayload()
}

// Clone returns a deep copy of the slide.
func (s Slide) Clone() Slide {
	out := s
	out.Payload = ClonePayload(s.Payload)
	out.Baseline = ClonePayload(s.Baseline)
	return out
}

// Clone returns a deep copy of the deck.
func (d Deck) Clone() Deck {
	out := d
	out.FolderID = cloneStringPtr(d.FolderID)
	out.Slides = make([]Slide, len(d.Slides))
	for i, s := range d.Slides {
		out.Slides[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the folder.
func (f Folder) Clone() Folder {
	out := f
	out.ParentID = cloneStringPtr(f.ParentID)
	return out
}

// Clone returns a deep copy of the whole state.
func (st State) Clone() State {
	out := State{
		Folders:               make([]Folder, len(st.Folders)),
		Presentations:         make([]Deck, len(st.Presentations)),
		CurrentPresentationID: cloneStringPtr(st.CurrentPresentationID),
	}
	for i, f := range st.Folders {
		out.Folders[i] = f.Clone()
	}
	for i, d := range st.Presentations {
		out.Presentations[i] = d.Clone()
	}
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func cloneRawSlice(in []json.RawMessage) []json.RawMessage {
	if in == nil {
		return nil
	}
	out := make([]json.RawMessage, len(in))
	for i, r := range in {
		out[i] = cloneRaw(r)
	}
	return out
}

func cloneRawMap(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = cloneRaw(v)
	}
	return out
}
