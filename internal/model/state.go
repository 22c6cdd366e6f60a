package model

// State is the aggregate root owning every folder and deck.
type State struct {
	Folders               []Folder `json:"folders"`
	Presentations         []Deck   `json:"presentations"`
	CurrentPresentationID *string  `json:"currentPresentationId"`
}

// EmptyState returns a state with no folders and no decks.
func EmptyState() State {
	return State{Folders: []Folder{}, Presentations: []Deck{}}
}

// DeckIndex returns the position of the deck with id, or -1.
func (st State) DeckIndex(id string) int {
	for i, d := range st.Presentations {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Deck looks up a deck by id.
func (st State) Deck(id string) (Deck, bool) {
	if i := st.DeckIndex(id); i >= 0 {
		return st.Presentations[i], true
	}
	return Deck{}, false
}

// FolderIndex returns the position of the folder with id, or -1.
func (st State) FolderIndex(id string) int {
	for i, f := range st.Folders {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// CurrentPresentation returns the selected deck, if any.
func (st State) CurrentPresentation() (Deck, bool) {
	if st.CurrentPresentationID == nil {
		return Deck{}, false
	}
	return st.Deck(*st.CurrentPresentationID)
}

// SlideIDs returns the ids of every slide in every deck.
func (st State) SlideIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, d := range st.Presentations {
		for _, s := range d.Slides {
			ids[s.ID] = struct{}{}
		}
	}
	return ids
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}
