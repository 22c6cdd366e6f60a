package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSlide_EngineInference(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fallback Engine
		want     Engine
	}{
		{"tag wins over fields", `{"engine":"tldraw","elements":[]}`, EngineExcalidraw, EngineTldraw},
		{"elements means excalidraw", `{"elements":[]}`, EngineTldraw, EngineExcalidraw},
		{"snapshot means tldraw", `{"snapshot":null}`, EngineExcalidraw, EngineTldraw},
		{"unknown tag uses fields", `{"engine":"paint","snapshot":{}}`, EngineExcalidraw, EngineTldraw},
		{"nothing uses fallback", `{"id":"x"}`, EngineExcalidraw, EngineExcalidraw},
		{"invalid fallback uses default", `{}`, Engine(""), DefaultEngine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NormalizeSlide(json.RawMessage(tt.raw), tt.fallback, 100, "new-id")
			assert.Equal(t, tt.want, s.Engine())
		})
	}
}

func TestNormalizeSlide_MintsNewID(t *testing.T) {
	s := NormalizeSlide(json.RawMessage(`{"id":"old","elements":[]}`), EngineExcalidraw, 100, "new-id")
	assert.Equal(t, "new-id", s.ID)
}

func TestNormalizeSlide_FillsDefaults(t *testing.T) {
	s := NormalizeSlide(json.RawMessage(`{"elements":null}`), EngineExcalidraw, 100, "id")

	p := s.Payload.(ExcalidrawPayload)
	assert.NotNil(t, p.Elements)
	assert.Empty(t, p.Elements)
	assert.NotNil(t, p.AppState)
	assert.Empty(t, p.AppState)
	assert.NotNil(t, p.Files)
	assert.Equal(t, int64(100), s.CreatedAt)
	assert.Equal(t, int64(100), s.UpdatedAt)
	assert.Equal(t, int64(0), s.SceneVersion)
}

func TestNormalizeSlide_KeepsContentAndTimestamps(t *testing.T) {
	raw := `{
		"id": "old",
		"engine": "excalidraw",
		"sceneVersion": 3,
		"elements": [{"id":"e1","type":"rectangle"}],
		"appState": {"viewBackgroundColor":"#000"},
		"files": {"f": {"mimeType":"image/png"}},
		"snapshot": {"dropped": true},
		"createdAt": 1700000000000.0,
		"updatedAt": 1700000000500
	}`
	s := NormalizeSlide(json.RawMessage(raw), EngineTldraw, 1, "id")

	p := s.Payload.(ExcalidrawPayload)
	require.Len(t, p.Elements, 1)
	assert.JSONEq(t, `{"id":"e1","type":"rectangle"}`, string(p.Elements[0]))
	assert.Contains(t, p.Files, "f")
	assert.Equal(t, int64(3), s.SceneVersion)
	assert.Equal(t, int64(1700000000000), s.CreatedAt)
	assert.Equal(t, int64(1700000000500), s.UpdatedAt)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
}

func TestNormalizeSlide_Baseline(t *testing.T) {
	raw := `{"snapshot":{"doc":2},"problemBaseline":{"snapshot":{"doc":1}},"problemBaselineUpdatedAt":50,"updatedAt":60}`
	s := NormalizeSlide(json.RawMessage(raw), EngineExcalidraw, 1, "id")

	require.True(t, s.HasBaseline())
	assert.Equal(t, EngineTldraw, s.Baseline.Engine())
	assert.JSONEq(t, `{"doc":1}`, string(s.Baseline.(TldrawPayload).Snapshot))
	assert.Equal(t, int64(50), s.BaselineUpdatedAt)
}

func TestNormalizeSlide_GarbageYieldsEmptySlide(t *testing.T) {
	for _, raw := range []string{``, `42`, `"text"`, `null`, `[`} {
		s := NormalizeSlide(json.RawMessage(raw), EngineExcalidraw, 9, "id")
		assert.Equal(t, "id", s.ID)
		assert.Equal(t, EngineExcalidraw, s.Engine())
		assert.Equal(t, int64(9), s.CreatedAt)
	}
}

func TestNormalizeSlideAs_DropsOtherVariant(t *testing.T) {
	s := NormalizeSlideAs(json.RawMessage(`{"engine":"tldraw","snapshot":{"doc":1}}`), EngineExcalidraw, 1, "id")

	assert.Equal(t, EngineExcalidraw, s.Engine())
	assert.Empty(t, s.Payload.(ExcalidrawPayload).Elements)
}

func TestInferDeckEngine(t *testing.T) {
	assert.Equal(t, EngineExcalidraw, InferDeckEngine("excalidraw", nil))
	assert.Equal(t, EngineTldraw, InferDeckEngine("tldraw", []json.RawMessage{json.RawMessage(`{"elements":[]}`)}))
	assert.Equal(t, EngineExcalidraw, InferDeckEngine("", []json.RawMessage{
		json.RawMessage(`{"snapshot":null}`),
		json.RawMessage(`{"elements":[]}`),
	}))
	assert.Equal(t, EngineTldraw, InferDeckEngine("bogus", []json.RawMessage{json.RawMessage(`{}`)}))
	assert.Equal(t, EngineTldraw, InferDeckEngine("", nil))
}
