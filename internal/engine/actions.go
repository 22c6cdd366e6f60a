package engine

import (
	"encoding/json"

	"github.com/roach88/slideboard/internal/model"
)

// Action is a request to change the state. Kind names the action in logs,
// metrics and scenario files.
type Action interface {
	Kind() string
}

// Deck actions.
type (
	// CreatePresentation adds a deck with one empty slide and selects it.
	// An invalid Engine falls back to model.DefaultEngine.
	CreatePresentation struct {
		Name     string
		FolderID *string
		Engine   model.Engine
	}

	DeletePresentation struct {
		ID string
	}

	RenamePresentation struct {
		ID   string
		Name string
	}

	// MovePresentationToFolder files a deck. FolderID is not validated; a
	// nil FolderID unfiles the deck.
	MovePresentationToFolder struct {
		ID       string
		FolderID *string
	}

	DuplicatePresentation struct {
		ID string
	}

	// SetCurrentPresentation selects a deck. A nil ID clears the selection;
	// an unknown ID is ignored.
	SetCurrentPresentation struct {
		ID *string
	}

	// AppendPresentation adds a fully built deck, as produced by the
	// import codec. The deck is appended as given.
	AppendPresentation struct {
		Deck model.Deck
	}
)

// Slide actions. Index always addresses a slide of the deck DeckID.
type (
	AddSlide struct {
		DeckID string
	}

	DeleteSlide struct {
		DeckID string
		Index  int
	}

	DuplicateSlide struct {
		DeckID string
		Index  int
	}

	ReorderSlides struct {
		DeckID string
		From   int
		To     int
	}

	// UpdateSlide merges canvas output into a slide. A non-empty SlideID
	// addresses the slide by id instead of Index.
	UpdateSlide struct {
		DeckID  string
		Index   int
		SlideID string
		Patch   model.SlidePatch
	}

	ClearSlide struct {
		DeckID string
		Index  int
	}

	// ApplyTemplate replaces the elements of an excalidraw slide. It is
	// ignored for tldraw slides.
	ApplyTemplate struct {
		DeckID   string
		Index    int
		Elements []json.RawMessage
	}

	SaveProblemState struct {
		DeckID string
		Index  int
	}

	ResetToProblemState struct {
		DeckID string
		Index  int
	}

	ClearProblemState struct {
		DeckID string
		Index  int
	}

	SetCurrentSlide struct {
		DeckID string
		Index  int
	}

	GoToNextSlide struct {
		DeckID string
	}

	GoToPreviousSlide struct {
		DeckID string
	}
)

// Folder actions.
type (
	CreateFolder struct {
		Name     string
		ParentID *string
	}

	RenameFolder struct {
		ID   string
		Name string
	}

	// DeleteFolder removes a folder with all its descendants and unfiles
	// the decks that were in any of them.
	DeleteFolder struct {
		ID string
	}
)

func (CreatePresentation) Kind() string       { return "create_presentation" }
func (DeletePresentation) Kind() string       { return "delete_presentation" }
func (RenamePresentation) Kind() string       { return "rename_presentation" }
func (MovePresentationToFolder) Kind() string { return "move_presentation_to_folder" }
func (DuplicatePresentation) Kind() string    { return "duplicate_presentation" }
func (SetCurrentPresentation) Kind() string   { return "set_current_presentation" }
func (AppendPresentation) Kind() string       { return "append_presentation" }
func (AddSlide) Kind() string                 { return "add_slide" }
func (DeleteSlide) Kind() string              { return "delete_slide" }
func (DuplicateSlide) Kind() string           { return "duplicate_slide" }
func (ReorderSlides) Kind() string            { return "reorder_slides" }
func (UpdateSlide) Kind() string              { return "update_slide" }
func (ClearSlide) Kind() string               { return "clear_slide" }
func (ApplyTemplate) Kind() string            { return "apply_template" }
func (SaveProblemState) Kind() string         { return "save_problem_state" }
func (ResetToProblemState) Kind() string      { return "reset_to_problem_state" }
func (ClearProblemState) Kind() string        { return "clear_problem_state" }
func (SetCurrentSlide) Kind() string          { return "set_current_slide" }
func (GoToNextSlide) Kind() string            { return "go_to_next_slide" }
func (GoToPreviousSlide) Kind() string        { return "go_to_previous_slide" }
func (CreateFolder) Kind() string             { return "create_folder" }
func (RenameFolder) Kind() string             { return "rename_folder" }
func (DeleteFolder) Kind() string             { return "delete_folder" }
