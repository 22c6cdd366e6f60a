package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slideboard/internal/model"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Action: "create_presentation", Args: map[string]any{"name": "A"}, Changed: true},
		{Seq: 2, Action: "add_slide", Args: map[string]any{"deck": "A"}, Changed: true},
		{Seq: 3, Action: "delete_slide", Args: map[string]any{"deck": "A", "index": 7}, Changed: false},
		{Seq: 4, Action: "add_slide", Args: map[string]any{"deck": "A"}, Changed: true},
	}
}

func sampleState() model.State {
	st := model.EmptyState()
	st.Folders = []model.Folder{{ID: "f1", Name: "Courses"}}
	st.Presentations = []model.Deck{
		{
			ID: "d1", Name: "A", CanvasEngine: model.EngineExcalidraw, FolderID: model.StringPtr("f1"),
			Slides: []model.Slide{
				model.NewEmptySlide(model.EngineExcalidraw, 1, "s1"),
				model.NewEmptySlide(model.EngineExcalidraw, 1, "s2"),
			},
			CurrentSlideIndex: 1,
		},
		{ID: "d2", Name: "B", CanvasEngine: model.EngineTldraw, Slides: []model.Slide{model.NewEmptySlide(model.EngineTldraw, 1, "s3")}},
	}
	st.CurrentPresentationID = model.StringPtr("d2")
	return st
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Action: "delete_slide", Args: map[string]any{"index": int64(7)}}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: "add_slide"}))

	err := assertTraceContains(trace, Assertion{Action: "delete_slide", Args: map[string]any{"index": 8}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in trace")
	assert.Contains(t, err.Error(), "[3] delete_slide {deck=A index=7} changed=false")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Actions: []string{"create_presentation", "delete_slide"}}))
	assert.ErrorContains(t, assertTraceOrder(trace, Assertion{Actions: []string{"delete_slide", "add_slide"}}),
		"delete_slide (pos 3) should be before add_slide (pos 2)")
	assert.ErrorContains(t, assertTraceOrder(trace, Assertion{Actions: []string{"rename_folder"}}),
		"missing action: rename_folder")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()
	yes, no := true, false

	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "add_slide", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "delete_slide", Changed: &no, Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "delete_slide", Changed: &yes, Count: 0}))
	assert.ErrorContains(t, assertTraceCount(trace, Assertion{Action: "add_slide", Count: 3}), "3 occurrences of add_slide")
}

func TestAssertFinalState(t *testing.T) {
	st := sampleState()

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"deck fields", Assertion{Table: TablePresentations, Where: map[string]any{"name": "A"},
			Expect: map[string]any{"folder": "Courses", "slideCount": 2, "currentSlideIndex": 1, "current": false}}, ""},
		{"current deck", Assertion{Table: TablePresentations, Where: map[string]any{"id": "d2"},
			Expect: map[string]any{"current": true, "folder": nil}}, ""},
		{"folder", Assertion{Table: TableFolders, Where: map[string]any{"name": "Courses"},
			Expect: map[string]any{"deckCount": 1, "parent": nil}}, ""},
		{"slide", Assertion{Table: TableSlides, Where: map[string]any{"deck": "B"},
			Expect: map[string]any{"engine": "tldraw", "hasSnapshot": false}}, ""},
		{"value mismatch", Assertion{Table: TablePresentations, Where: map[string]any{"name": "A"},
			Expect: map[string]any{"slideCount": 3}}, `field "slideCount" = 3`},
		{"missing field", Assertion{Table: TableSlides, Where: map[string]any{"deck": "B"},
			Expect: map[string]any{"elementCount": 0}}, `field "elementCount" to exist`},
		{"no row", Assertion{Table: TablePresentations, Where: map[string]any{"name": "Z"},
			Expect: map[string]any{"slideCount": 1}}, "row not found"},
		{"ambiguous", Assertion{Table: TableSlides, Where: map[string]any{"deck": "A"},
			Expect: map[string]any{"engine": "excalidraw"}}, "2 rows matched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(st, tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_CollectsFailures(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()
	result.State = sampleState()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Action: "add_slide", Count: 2},
		{Type: AssertTraceCount, Action: "add_slide", Count: 5},
		{Type: "nope"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[1], `unknown assertion type "nope"`)
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(int64(3), 3))
	assert.True(t, valuesEqual(3.0, int64(3)))
	assert.False(t, valuesEqual(int64(3), "3"))
	assert.True(t, valuesEqual(nil, nil))
	assert.True(t, valuesEqual(map[string]any{"a": 1}, map[string]any{"a": 1}))
}
