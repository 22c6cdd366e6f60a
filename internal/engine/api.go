package engine

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/codec"
	"github.com/roach88/slideboard/internal/model"
)

// The methods below are thin wrappers over Dispatch, one per store
// operation, for callers that prefer a method call to building an Action.

// CreatePresentation adds a deck and returns its id.
func (s *Store) CreatePresentation(name string, folderID *string, engine model.Engine) string {
	return s.Dispatch(CreatePresentation{Name: name, FolderID: folderID, Engine: engine}).ID
}

func (s *Store) DeletePresentation(id string) {
	s.Dispatch(DeletePresentation{ID: id})
}

func (s *Store) RenamePresentation(id, name string) {
	s.Dispatch(RenamePresentation{ID: id, Name: name})
}

func (s *Store) MovePresentationToFolder(id string, folderID *string) {
	s.Dispatch(MovePresentationToFolder{ID: id, FolderID: folderID})
}

// DuplicatePresentation returns the id of the copy, or "" for an unknown id.
func (s *Store) DuplicatePresentation(id string) string {
	return s.Dispatch(DuplicatePresentation{ID: id}).ID
}

func (s *Store) SetCurrentPresentation(id *string) {
	s.Dispatch(SetCurrentPresentation{ID: id})
}

// AddSlide returns the id of the new slide, or "" for an unknown deck.
func (s *Store) AddSlide(deckID string) string {
	return s.Dispatch(AddSlide{DeckID: deckID}).ID
}

func (s *Store) DeleteSlide(deckID string, index int) {
	s.Dispatch(DeleteSlide{DeckID: deckID, Index: index})
}

// DuplicateSlide returns the id of the copy, or "" when nothing was copied.
func (s *Store) DuplicateSlide(deckID string, index int) string {
	return s.Dispatch(DuplicateSlide{DeckID: deckID, Index: index}).ID
}

func (s *Store) ReorderSlides(deckID string, from, to int) {
	s.Dispatch(ReorderSlides{DeckID: deckID, From: from, To: to})
}

func (s *Store) UpdateSlide(deckID string, index int, patch model.SlidePatch) {
	s.Dispatch(UpdateSlide{DeckID: deckID, Index: index, Patch: patch})
}

func (s *Store) ClearSlide(deckID string, index int) {
	s.Dispatch(ClearSlide{DeckID: deckID, Index: index})
}

func (s *Store) ApplyTemplate(deckID string, index int, elements []json.RawMessage) {
	s.Dispatch(ApplyTemplate{DeckID: deckID, Index: index, Elements: elements})
}

func (s *Store) SaveProblemState(deckID string, index int) {
	s.Dispatch(SaveProblemState{DeckID: deckID, Index: index})
}

func (s *Store) ResetToProblemState(deckID string, index int) {
	s.Dispatch(ResetToProblemState{DeckID: deckID, Index: index})
}

func (s *Store) ClearProblemState(deckID string, index int) {
	s.Dispatch(ClearProblemState{DeckID: deckID, Index: index})
}

func (s *Store) SetCurrentSlide(deckID string, index int) {
	s.Dispatch(SetCurrentSlide{DeckID: deckID, Index: index})
}

func (s *Store) GoToNextSlide(deckID string) {
	s.Dispatch(GoToNextSlide{DeckID: deckID})
}

func (s *Store) GoToPreviousSlide(deckID string) {
	s.Dispatch(GoToPreviousSlide{DeckID: deckID})
}

// CreateFolder returns the id of the new folder.
func (s *Store) CreateFolder(name string, parentID *string) string {
	return s.Dispatch(CreateFolder{Name: name, ParentID: parentID}).ID
}

func (s *Store) RenameFolder(id, name string) {
	s.Dispatch(RenameFolder{ID: id, Name: name})
}

func (s *Store) DeleteFolder(id string) {
	s.Dispatch(DeleteFolder{ID: id})
}

// ExportPresentation renders one deck as a presentation document.
// It returns "", false when the deck does not exist.
func (s *Store) ExportPresentation(id string) (string, bool) {
	d, ok := s.State().Deck(id)
	if !ok {
		return "", false
	}
	doc, err := codec.Encode(d)
	if err != nil {
		s.log.Error("export failed", zap.String("deck", id), zap.Error(err))
		return "", false
	}
	return string(doc), true
}

// ImportPresentation adds the deck described by doc and returns its id.
// It returns "", false and leaves the state untouched when doc is invalid.
func (s *Store) ImportPresentation(doc string) (string, bool) {
	id, err := s.Import([]byte(doc))
	if err != nil {
		s.log.Warn("import rejected", zap.Error(err))
		return "", false
	}
	return id, true
}

// Import is ImportPresentation with the rejection reason. Validation
// failures are *codec.ImportError.
func (s *Store) Import(doc []byte) (string, error) {
	d, err := codec.Decode(doc, s.clock.Now(), s.ids.Generate, codec.OnCoerce(func(deckID, slideID string, from model.Engine) {
		s.log.Warn("import dropping slide content of mismatched engine",
			zap.String("deck", deckID),
			zap.String("slide", slideID),
			zap.String("slideEngine", string(from)))
	}))
	if err != nil {
		return "", fmt.Errorf("import presentation: %w", err)
	}
	out := s.Dispatch(AppendPresentation{Deck: d})
	if !out.Changed {
		return "", fmt.Errorf("import presentation: deck id %s already exists", d.ID)
	}
	return out.ID, nil
}
