package engine

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slideboard/internal/model"
)

func TestDebouncer_LaterCallSupersedes(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		require.True(t, d.Schedule("k", func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}

	require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3}, got)
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var calls atomic.Int32

	d.Schedule("a", func() { calls.Add(1) })
	d.Schedule("b", func() { calls.Add(1) })
	assert.Equal(t, 2, d.Pending())

	assert.True(t, d.Flush("a"))
	assert.False(t, d.Flush("a"))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var calls atomic.Int32

	d.Schedule("a", func() { calls.Add(1) })
	assert.True(t, d.Cancel("a"))
	assert.False(t, d.Cancel("a"))

	d.FlushAll()
	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncer_StopFlushesAndRefuses(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var calls atomic.Int32

	d.Schedule("a", func() { calls.Add(1) })
	d.Schedule("b", func() { calls.Add(1) })
	d.Stop()

	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, d.Schedule("c", func() { calls.Add(1) }))
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_FlushWaitsForRunningCall(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var order []int

	d.Schedule("k", func() {
		close(started)
		<-release
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})
	<-started

	d.Schedule("k", func() {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	})
	flushed := make(chan bool)
	go func() { flushed <- d.Flush("k") }()

	time.Sleep(20 * time.Millisecond)
	close(release)
	assert.True(t, <-flushed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, order)
}

func TestCanvasSync_NewerEditSurvivesBusyStore(t *testing.T) {
	s, _ := setupTestStore(t)
	id := deckWithSlides(t, s, model.EngineTldraw, 1)
	slideID := deck(t, s, id).Slides[0].ID

	entered := make(chan struct{})
	release := make(chan struct{})
	s.Subscribe(func(_, _ model.State, a Action) {
		if a.Kind() == "rename_presentation" {
			close(entered)
			<-release
		}
	})
	renamed := make(chan struct{})
	go func() {
		s.RenamePresentation(id, "busy")
		close(renamed)
	}()
	<-entered

	cs := NewCanvasSync(s, 5*time.Millisecond)
	cs.OnChange(id, slideID, model.SlidePatch{Snapshot: json.RawMessage(`{"v":1}`)})
	require.Eventually(t, func() bool { return cs.Pending() == 0 }, time.Second, time.Millisecond)

	cs.OnChange(id, slideID, model.SlidePatch{Snapshot: json.RawMessage(`{"v":2}`)})
	flushed := make(chan bool)
	go func() { flushed <- cs.Flush(id, slideID) }()

	time.Sleep(20 * time.Millisecond)
	close(release)
	<-renamed
	assert.True(t, <-flushed)

	d := deck(t, s, id)
	assert.JSONEq(t, `{"v":2}`, string(d.Slides[0].Payload.(model.TldrawPayload).Snapshot))
}

func TestCanvasSync_DebouncesIntoStore(t *testing.T) {
	s, _ := setupTestStore(t)
	id := deckWithSlides(t, s, model.EngineTldraw, 2)
	slideID := deck(t, s, id).Slides[1].ID

	var dispatches atomic.Int32
	s.Subscribe(func(_, _ model.State, a Action) {
		if a.Kind() == "update_slide" {
			dispatches.Add(1)
		}
	})

	cs := NewCanvasSync(s, time.Hour)
	cs.OnChange(id, slideID, model.SlidePatch{Snapshot: json.RawMessage(`{"v":1}`)})
	cs.OnChange(id, slideID, model.SlidePatch{Snapshot: json.RawMessage(`{"v":2}`)})
	assert.Equal(t, 1, cs.Pending())

	// the slide moves while the edit is pending
	s.ReorderSlides(id, 1, 0)

	cs.Close()
	assert.Equal(t, int32(1), dispatches.Load())

	d := deck(t, s, id)
	assert.Equal(t, slideID, d.Slides[0].ID)
	assert.JSONEq(t, `{"v":2}`, string(d.Slides[0].Payload.(model.TldrawPayload).Snapshot))

	assert.False(t, cs.OnChange(id, slideID, model.SlidePatch{}))
}

func TestCanvasSync_DropsEditForDeletedSlide(t *testing.T) {
	s, _ := setupTestStore(t)
	id := deckWithSlides(t, s, model.EngineTldraw, 2)
	slideID := deck(t, s, id).Slides[1].ID

	cs := NewCanvasSync(s, time.Hour)
	cs.OnChange(id, slideID, model.SlidePatch{Snapshot: json.RawMessage(`{"v":1}`)})
	s.DeleteSlide(id, 1)

	before := s.State()
	assert.True(t, cs.Flush(id, slideID))
	assert.Equal(t, before, s.State())
}
