package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmptySlide_Excalidraw(t *testing.T) {
	s := NewEmptySlide(EngineExcalidraw, 1000, "s1")

	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, EngineExcalidraw, s.Engine())
	assert.Equal(t, int64(0), s.SceneVersion)
	assert.Equal(t, int64(1000), s.CreatedAt)
	assert.Equal(t, int64(1000), s.UpdatedAt)
	assert.False(t, s.HasBaseline())

	p, ok := s.Payload.(ExcalidrawPayload)
	require.True(t, ok)
	assert.Empty(t, p.Elements)
	assert.Empty(t, p.Files)
	assert.JSONEq(t, `"#ffffff"`, string(p.AppState["viewBackgroundColor"]))
}

func TestNewEmptySlide_Tldraw(t *testing.T) {
	s := NewEmptySlide(EngineTldraw, 1000, "s1")

	p, ok := s.Payload.(TldrawPayload)
	require.True(t, ok)
	assert.Nil(t, p.Snapshot)
}

func TestNewEmptySlide_InvalidEngineFallsBackToDefault(t *testing.T) {
	s := NewEmptySlide(Engine("paint"), 1, "s1")
	assert.Equal(t, DefaultEngine, s.Engine())
}

func TestParseEngine(t *testing.T) {
	e, err := ParseEngine("excalidraw")
	require.NoError(t, err)
	assert.Equal(t, EngineExcalidraw, e)

	_, err = ParseEngine("paint")
	assert.Error(t, err)
}

func TestSlide_MarshalJSON_Excalidraw(t *testing.T) {
	s := Slide{
		ID:           "s1",
		SceneVersion: 2,
		CreatedAt:    10,
		UpdatedAt:    20,
		Payload: ExcalidrawPayload{
			Elements: []json.RawMessage{json.RawMessage(`{"id":"e1"}`)},
			AppState: map[string]json.RawMessage{"zoom": json.RawMessage(`1`)},
			Files:    map[string]json.RawMessage{},
		},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "s1",
		"engine": "excalidraw",
		"sceneVersion": 2,
		"elements": [{"id": "e1"}],
		"appState": {"zoom": 1},
		"files": {},
		"createdAt": 10,
		"updatedAt": 20
	}`, string(data))
}

func TestSlide_MarshalJSON_TldrawNullSnapshot(t *testing.T) {
	s := NewEmptySlide(EngineTldraw, 5, "s1")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","engine":"tldraw","sceneVersion":0,"snapshot":null,"createdAt":5,"updatedAt":5}`, string(data))
}

func TestSlide_MarshalJSON_Baseline(t *testing.T) {
	s := NewEmptySlide(EngineTldraw, 5, "s1")
	s.Payload = TldrawPayload{Snapshot: json.RawMessage(`{"doc":1}`)}
	s.Baseline = TldrawPayload{Snapshot: json.RawMessage(`{"doc":0}`)}
	s.BaselineUpdatedAt = 7

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Slide
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "s1", back.ID)
	require.True(t, back.HasBaseline())
	assert.JSONEq(t, `{"doc":0}`, string(back.Baseline.(TldrawPayload).Snapshot))
	assert.Equal(t, int64(7), back.BaselineUpdatedAt)
}

func TestSlide_UnmarshalJSON_RejectsNonObject(t *testing.T) {
	var s Slide
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`null`), &s))
}

func TestApplyPatch_ExcalidrawIgnoresSnapshot(t *testing.T) {
	p := EmptyPayload(EngineExcalidraw)

	next, changed := ApplyPatch(p, SlidePatch{
		Elements: []json.RawMessage{json.RawMessage(`{"id":"e1"}`)},
		AppState: map[string]json.RawMessage{"zoom": json.RawMessage(`2`)},
		Files:    map[string]json.RawMessage{"f1": json.RawMessage(`{}`)},
		Snapshot: json.RawMessage(`{"doc":1}`),
	})

	require.True(t, changed)
	ex := next.(ExcalidrawPayload)
	assert.Len(t, ex.Elements, 1)
	assert.Len(t, ex.Files, 1)
	// AppState is replaced, not merged.
	assert.NotContains(t, ex.AppState, "viewBackgroundColor")
	assert.Contains(t, ex.AppState, "zoom")
}

func TestApplyPatch_TldrawIgnoresElements(t *testing.T) {
	p := EmptyPayload(EngineTldraw)

	next, changed := ApplyPatch(p, SlidePatch{Elements: []json.RawMessage{json.RawMessage(`{}`)}})
	assert.False(t, changed)
	assert.Equal(t, p, next)

	next, changed = ApplyPatch(p, SlidePatch{Snapshot: json.RawMessage(`{"doc":1}`)})
	assert.True(t, changed)
	assert.JSONEq(t, `{"doc":1}`, string(next.(TldrawPayload).Snapshot))

	next, changed = ApplyPatch(next, SlidePatch{Snapshot: json.RawMessage(`null`)})
	assert.True(t, changed)
	assert.Nil(t, next.(TldrawPayload).Snapshot)
}

func TestApplyPatch_CopiesInput(t *testing.T) {
	elements := []json.RawMessage{json.RawMessage(`{"id":"e1"}`)}
	next, _ := ApplyPatch(EmptyPayload(EngineExcalidraw), SlidePatch{Elements: elements})

	elements[0][2] = 'X'
	assert.JSONEq(t, `{"id":"e1"}`, string(next.(ExcalidrawPayload).Elements[0]))
}
