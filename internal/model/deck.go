package model

// Deck is a presentation: an ordered, never empty list of slides that all
// use CanvasEngine, plus a cursor into that list.
type Deck struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	CanvasEngine      Engine  `json:"canvasEngine"`
	FolderID          *string `json:"folderId"`
	Slides            []Slide `json:"slides"`
	CurrentSlideIndex int     `json:"currentSlideIndex"`
	CreatedAt         int64   `json:"createdAt"`
	UpdatedAt         int64   `json:"updatedAt"`
	Version           int     `json:"version"`
}

// ValidIndex reports whether i addresses a slide of the deck.
func (d Deck) ValidIndex(i int) bool {
	return i >= 0 && i < len(d.Slides)
}

// SlideIndex returns the position of the slide with id, or -1.
func (d Deck) SlideIndex(id string) int {
	for i, s := range d.Slides {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// CurrentSlide returns the slide under the cursor.
func (d Deck) CurrentSlide() (Slide, bool) {
	if !d.ValidIndex(d.CurrentSlideIndex) {
		return Slide{}, false
	}
	return d.Slides[d.CurrentSlideIndex], true
}

// ClampIndex limits i to [0, n-1]. With n <= 0 it returns 0.
func ClampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// InFolder reports whether the deck is filed in folderID.
func (d Deck) InFolder(folderID string) bool {
	return d.FolderID != nil && *d.FolderID == folderID
}
