package engine

import (
	"slices"

	"github.com/roach88/slideboard/internal/model"
)

// CopySuffix is appended to the name of a duplicated deck.
const CopySuffix = " (Copy)"

func createPresentation(st model.State, a CreatePresentation, env Env) (model.State, Outcome) {
	engine := a.Engine
	if !engine.Valid() {
		engine = model.DefaultEngine
	}

	id := env.NewID()
	deck := model.Deck{
		ID:           id,
		Name:         a.Name,
		CanvasEngine: engine,
		FolderID:     cloneID(a.FolderID),
		Slides:       []model.Slide{model.NewEmptySlide(engine, env.Now, env.NewID())},
		CreatedAt:    env.Now,
		UpdatedAt:    env.Now,
		Version:      model.SchemaVersion,
	}

	next := st
	next.Presentations = append(slices.Clip(st.Presentations), deck)
	next.CurrentPresentationID = model.StringPtr(id)
	return next, Outcome{Changed: true, ID: id}
}

func deletePresentation(st model.State, a DeletePresentation) (model.State, Outcome) {
	i := st.DeckIndex(a.ID)
	if i < 0 {
		return st, Outcome{}
	}

	next := st
	next.Presentations = slices.Delete(slices.Clone(st.Presentations), i, i+1)
	if st.CurrentPresentationID != nil && *st.CurrentPresentationID == a.ID {
		next.CurrentPresentationID = nil
	}
	return next, Outcome{Changed: true, ID: a.ID}
}

// duplicatePresentation deep-copies a deck. The copy and each of its slides
// get new ids and fresh timestamps; payloads and baselines are kept.
func duplicatePresentation(st model.State, a DuplicatePresentation, env Env) (model.State, Outcome) {
	src, ok := st.Deck(a.ID)
	if !ok {
		return st, Outcome{}
	}

	cp := src.Clone()
	cp.ID = env.NewID()
	cp.Name = src.Name + CopySuffix
	cp.CreatedAt = env.Now
	cp.UpdatedAt = env.Now
	for i := range cp.Slides {
		cp.Slides[i].ID = env.NewID()
		cp.Slides[i].CreatedAt = env.Now
		cp.Slides[i].UpdatedAt = env.Now
	}

	next := st
	next.Presentations = append(slices.Clip(st.Presentations), cp)
	return next, Outcome{Changed: true, ID: cp.ID}
}

func setCurrentPresentation(st model.State, a SetCurrentPresentation) (model.State, Outcome) {
	if a.ID != nil && st.DeckIndex(*a.ID) < 0 {
		return st, Outcome{}
	}
	if a.ID == nil && st.CurrentPresentationID == nil {
		return st, Outcome{}
	}
	if a.ID != nil && st.CurrentPresentationID != nil && *a.ID == *st.CurrentPresentationID {
		return st, Outcome{}
	}

	next := st
	next.CurrentPresentationID = cloneID(a.ID)
	id := ""
	if a.ID != nil {
		id = *a.ID
	}
	return next, Outcome{Changed: true, ID: id}
}

// appendPresentation adds an already normalized deck. A deck without slides
// or with an id that is already taken is refused.
func appendPresentation(st model.State, a AppendPresentation) (model.State, Outcome) {
	if len(a.Deck.Slides) == 0 || a.Deck.ID == "" || st.DeckIndex(a.Deck.ID) >= 0 {
		return st, Outcome{}
	}

	d := a.Deck.Clone()
	d.CurrentSlideIndex = model.ClampIndex(d.CurrentSlideIndex, len(d.Slides))

	next := st
	next.Presentations = append(slices.Clip(st.Presentations), d)
	return next, Outcome{Changed: true, ID: d.ID}
}
