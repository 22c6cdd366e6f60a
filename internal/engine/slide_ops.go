package engine

import (
	"encoding/json"
	"slices"

	"github.com/roach88/slideboard/internal/model"
)

func deckEngine(d *model.Deck) model.Engine {
	if d.CanvasEngine.Valid() {
		return d.CanvasEngine
	}
	return model.DefaultEngine
}

// addSlide inserts an empty slide right after the cursor and moves the
// cursor onto it.
func addSlide(st model.State, a AddSlide, env Env) (model.State, Outcome) {
	var slideID string
	next, out := updateDeck(st, a.DeckID, env.Now, func(d *model.Deck) bool {
		pos := min(d.CurrentSlideIndex+1, len(d.Slides))
		slide := model.NewEmptySlide(deckEngine(d), env.Now, env.NewID())
		d.Slides = slices.Insert(d.Slides, pos, slide)
		d.CurrentSlideIndex = pos
		slideID = slide.ID
		return true
	})
	if out.Changed {
		out.ID = slideID
	}
	return next, out
}

// deleteSlide refuses to remove the last slide of a deck.
func deleteSlide(st model.State, a DeleteSlide, env Env) (model.State, Outcome) {
	return updateDeck(st, a.DeckID, env.Now, func(d *model.Deck) bool {
		if len(d.Slides) <= 1 || !d.ValidIndex(a.Index) {
			return false
		}
		d.Slides = slices.Delete(d.Slides, a.Index, a.Index+1)
		d.CurrentSlideIndex = min(d.CurrentSlideIndex, len(d.Slides)-1)
		return true
	})
}

// duplicateSlide inserts a deep copy right after the source slide and moves
// the cursor onto it.
func duplicateSlide(st model.State, a DuplicateSlide, env Env) (model.State, Outcome) {
	var slideID string
	next, out := updateDeck(st, a.DeckID, env.Now, func(d *model.Deck) bool {
		if !d.ValidIndex(a.Index) {
			return false
		}
		cp := d.Slides[a.Index].Clone()
		cp.ID = env.NewID()
		cp.CreatedAt = env.Now
		cp.UpdatedAt = env.Now
		d.Slides = slices.Insert(d.Slides, a.Index+1, cp)
		d.CurrentSlideIndex = a.Index + 1
		slideID = cp.ID
		return true
	})
	if out.Changed {
		out.ID = slideID
	}
	return next, out
}

// reorderSlides moves the slide at From to To, the same order a splice
// based remove-then-insert produces. The cursor stays on the slide it was
// on. From must be a valid index; To may overshoot and is clamped to the
// last position, a negative To is refused.
func reorderSlides(st model.State, a ReorderSlides, env Env) (model.State, Outcome) {
	return updateDeck(st, a.DeckID, env.Now, func(d *model.Deck) bool {
		if !d.ValidIndex(a.From) || a.To < 0 {
			return false
		}
		to := min(a.To, len(d.Slides)-1)
		if to == a.From {
			return false
		}

		moved := d.Slides[a.From]
		d.Slides = slices.Delete(d.Slides, a.From, a.From+1)
		d.Slides = slices.Insert(d.Slides, to, moved)
		d.CurrentSlideIndex = RebaseCursor(d.CurrentSlideIndex, a.From, to)
		return true
	})
}

// RebaseCursor returns the new cursor position after moving the slide at
// from to to, so that the cursor keeps pointing at the same slide.
func RebaseCursor(cursor, from, to int) int {
	switch {
	case cursor == from:
		return to
	case from < cursor && cursor <= to:
		return cursor - 1
	case to <= cursor && cursor < from:
		return cursor + 1
	default:
		return cursor
	}
}

func updateSlide(st model.State, a UpdateSlide, env Env) (model.State, Outcome) {
	index := a.Index
	if a.SlideID != "" {
		d, ok := st.Deck(a.DeckID)
		if !ok {
			return st, Outcome{}
		}
		if index = d.SlideIndex(a.SlideID); index < 0 {
			return st, Outcome{}
		}
	}
	return updateSlideAt(st, a.DeckID, index, env.Now, func(s *model.Slide) bool {
		payload, changed := model.ApplyPatch(s.Payload, a.Patch)
		if !changed {
			return false
		}
		s.Payload = payload
		return true
	})
}

func clearSlide(st model.State, a ClearSlide, env Env) (model.State, Outcome) {
	return updateSlideAt(st, a.DeckID, a.Index, env.Now, func(s *model.Slide) bool {
		s.Payload = model.EmptyPayload(s.Engine())
		s.SceneVersion++
		return true
	})
}

func applyTemplate(st model.State, a ApplyTemplate, env Env) (model.State, Outcome) {
	return updateSlideAt(st, a.DeckID, a.Index, env.Now, func(s *model.Slide) bool {
		if s.Engine() != model.EngineExcalidraw {
			return false
		}
		elements := a.Elements
		if elements == nil {
			elements = []json.RawMessage{}
		}
		s.Payload, _ = model.ApplyPatch(s.Payload, model.SlidePatch{Elements: elements})
		s.SceneVersion++
		return true
	})
}

func saveProblemState(st model.State, a SaveProblemState, env Env) (model.State, Outcome) {
	return updateSlideAt(st, a.DeckID, a.Index, env.Now, func(s *model.Slide) bool {
		s.Baseline = model.ClonePayload(s.Payload)
		s.BaselineUpdatedAt = env.Now
		return true
	})
}

func resetToProblemState(st model.State, a ResetToProblemState, env Env) (model.State, Outcome) {
	return updateSlideAt(st, a.DeckID, a.Index, env.Now, func(s *model.Slide) bool {
		if s.Baseline == nil {
			return false
		}
		s.Payload = model.ClonePayload(s.Baseline)
		s.SceneVersion++
		return true
	})
}

func clearProblemState(st model.State, a ClearProblemState, env Env) (model.State, Outcome) {
	return updateSlideAt(st, a.DeckID, a.Index, env.Now, func(s *model.Slide) bool {
		if s.Baseline == nil {
			return false
		}
		s.Baseline = nil
		s.BaselineUpdatedAt = 0
		return true
	})
}

// moveCursor clamps target(cursor) into bounds. Moving to the slide that is
// already current is a no-op, which makes next/previous saturate.
func moveCursor(st model.State, deckID string, now int64, target func(int) int) (model.State, Outcome) {
	return updateDeck(st, deckID, now, func(d *model.Deck) bool {
		i := model.ClampIndex(target(d.CurrentSlideIndex), len(d.Slides))
		if i == d.CurrentSlideIndex {
			return false
		}
		d.CurrentSlideIndex = i
		return true
	})
}
