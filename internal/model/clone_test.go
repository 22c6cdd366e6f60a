package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func excalidrawSlide() Slide {
	return Slide{
		ID: "s1",
		Payload: ExcalidrawPayload{
			Elements: []json.RawMessage{json.RawMessage(`{"id":"e1"}`)},
			AppState: map[string]json.RawMessage{"zoom": json.RawMessage(`1`)},
			Files:    map[string]json.RawMessage{"f1": json.RawMessage(`{"a":1}`)},
		},
		Baseline: ExcalidrawPayload{
			Elements: []json.RawMessage{},
			AppState: map[string]json.RawMessage{},
			Files:    map[string]json.RawMessage{},
		},
	}
}

func TestSlide_Clone_Independent(t *testing.T) {
	orig := excalidrawSlide()
	cp := orig.Clone()

	assert.Equal(t, orig, cp)

	cpPayload := cp.Payload.(ExcalidrawPayload)
	cpPayload.Elements[0][2] = 'X'
	cpPayload.AppState["zoom"] = json.RawMessage(`5`)
	delete(cpPayload.Files, "f1")

	origPayload := orig.Payload.(ExcalidrawPayload)
	assert.JSONEq(t, `{"id":"e1"}`, string(origPayload.Elements[0]))
	assert.JSONEq(t, `1`, string(origPayload.AppState["zoom"]))
	assert.Contains(t, origPayload.Files, "f1")
}

func TestSlide_Clone_Tldraw(t *testing.T) {
	orig := Slide{ID: "s", Payload: TldrawPayload{Snapshot: json.RawMessage(`{"a":1}`)}}
	cp := orig.Clone()

	cp.Payload.(TldrawPayload).Snapshot[1] = 'X'
	assert.JSONEq(t, `{"a":1}`, string(orig.Payload.(TldrawPayload).Snapshot))
	assert.Nil(t, cp.Baseline)
}

func TestDeck_Clone(t *testing.T) {
	d := Deck{ID: "d", FolderID: StringPtr("f"), Slides: []Slide{excalidrawSlide()}}
	cp := d.Clone()

	*cp.FolderID = "g"
	cp.Slides[0].ID = "changed"

	assert.Equal(t, "f", *d.FolderID)
	assert.Equal(t, "s1", d.Slides[0].ID)
}

func TestState_Clone(t *testing.T) {
	st := State{
		Folders:               []Folder{{ID: "f", ParentID: StringPtr("p")}},
		Presentations:         []Deck{{ID: "d", Slides: []Slide{excalidrawSlide()}}},
		CurrentPresentationID: StringPtr("d"),
	}
	cp := st.Clone()
	require.Equal(t, st, cp)

	*cp.Folders[0].ParentID = "q"
	*cp.CurrentPresentationID = "x"
	assert.Equal(t, "p", *st.Folders[0].ParentID)
	assert.Equal(t, "d", *st.CurrentPresentationID)
}

func TestMarshalCanonical_NoHTMLEscapeNoNewline(t *testing.T) {
	data, err := MarshalCanonical(map[string]string{"b": "<x>", "a": "&"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"&","b":"<x>"}`, string(data))

	pretty, err := MarshalPretty(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(pretty))
}

func TestState_Lookup(t *testing.T) {
	st := EmptyState()
	st.Presentations = append(st.Presentations, Deck{ID: "d1"}, Deck{ID: "d2"})

	assert.Equal(t, 1, st.DeckIndex("d2"))
	assert.Equal(t, -1, st.DeckIndex("nope"))
	_, ok := st.CurrentPresentation()
	assert.False(t, ok)

	st.CurrentPresentationID = StringPtr("d1")
	d, ok := st.CurrentPresentation()
	require.True(t, ok)
	assert.Equal(t, "d1", d.ID)
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 0, ClampIndex(-3, 5))
	assert.Equal(t, 4, ClampIndex(9, 5))
	assert.Equal(t, 2, ClampIndex(2, 5))
	assert.Equal(t, 0, ClampIndex(2, 0))
}
