package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/slideboard/internal/model"
)

// Env carries the inputs a reducer may not compute itself.
type Env struct {
	Now   int64
	NewID func() string
}

// Outcome reports what an action did.
type Outcome struct {
	// Changed is false when the action was a no-op: unknown id, refused
	// structural change, or nothing to apply.
	Changed bool
	// ID is the id of the created deck, slide copy or folder, if any.
	ID string
}

// Apply is the reducer: it derives the next state from st and a. It never
// modifies st; slices that change are copied and everything else is shared.
func Apply(st model.State, a Action, env Env) (model.State, Outcome) {
	switch a := a.(type) {
	case CreatePresentation:
		return createPresentation(st, a, env)
	case DeletePresentation:
		return deletePresentation(st, a)
	case RenamePresentation:
		return updateDeck(st, a.ID, env.Now, func(d *model.Deck) bool {
			d.Name = a.Name
			return true
		})
	case MovePresentationToFolder:
		return updateDeck(st, a.ID, env.Now, func(d *model.Deck) bool {
			d.FolderID = cloneID(a.FolderID)
			return true
		})
	case DuplicatePresentation:
		return duplicatePresentation(st, a, env)
	case SetCurrentPresentation:
		return setCurrentPresentation(st, a)
	case AppendPresentation:
		return appendPresentation(st, a)

	case AddSlide:
		return addSlide(st, a, env)
	case DeleteSlide:
		return deleteSlide(st, a, env)
	case DuplicateSlide:
		return duplicateSlide(st, a, env)
	case ReorderSlides:
		return reorderSlides(st, a, env)
	case UpdateSlide:
		return updateSlide(st, a, env)
	case ClearSlide:
		return clearSlide(st, a, env)
	case ApplyTemplate:
		return applyTemplate(st, a, env)
	case SaveProblemState:
		return saveProblemState(st, a, env)
	case ResetToProblemState:
		return resetToProblemState(st, a, env)
	case ClearProblemState:
		return clearProblemState(st, a, env)
	case SetCurrentSlide:
		return moveCursor(st, a.DeckID, env.Now, func(int) int { return a.Index })
	case GoToNextSlide:
		return moveCursor(st, a.DeckID, env.Now, func(i int) int { return i + 1 })
	case GoToPreviousSlide:
		return moveCursor(st, a.DeckID, env.Now, func(i int) int { return i - 1 })

	case CreateFolder:
		return createFolder(st, a, env)
	case RenameFolder:
		return renameFolder(st, a, env)
	case DeleteFolder:
		return deleteFolder(st, a, env)

	default:
		panic(fmt.Sprintf("engine: unhandled action %T", a))
	}
}

// updateDeck replaces the deck with id by the result of fn. fn receives a
// copy whose Slides slice is already private to it; returning false
// discards the copy. The touched deck gets UpdatedAt = now and its cursor
// re-clamped.
func updateDeck(st model.State, id string, now int64, fn func(d *model.Deck) bool) (model.State, Outcome) {
	i := st.DeckIndex(id)
	if i < 0 {
		return st, Outcome{}
	}

	d := st.Presentations[i]
	d.Slides = slices.Clone(d.Slides)
	if !fn(&d) {
		return st, Outcome{}
	}
	d.CurrentSlideIndex = model.ClampIndex(d.CurrentSlideIndex, len(d.Slides))
	d.UpdatedAt = now

	next := st
	next.Presentations = slices.Clone(st.Presentations)
	next.Presentations[i] = d
	return next, Outcome{Changed: true, ID: id}
}

// updateSlideAt runs fn on a copy of slide index of deck deckID. The slide's
// UpdatedAt is set to now when fn accepts the change.
func updateSlideAt(st model.State, deckID string, index int, now int64, fn func(s *model.Slide) bool) (model.State, Outcome) {
	return updateDeck(st, deckID, now, func(d *model.Deck) bool {
		if !d.ValidIndex(index) {
			return false
		}
		s := d.Slides[index]
		if !fn(&s) {
			return false
		}
		s.UpdatedAt = now
		d.Slides[index] = s
		return true
	})
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	return model.StringPtr(*id)
}
