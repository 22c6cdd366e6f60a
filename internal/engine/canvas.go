package engine

import (
	"time"

	"github.com/roach88/slideboard/internal/model"
)

// CanvasSync feeds canvas edits into a Store through a Debouncer.
//
// Edits are keyed by deck and slide id, not index, so a slide that moves
// while an edit is pending still receives it. An edit for a slide deleted
// in the meantime is dropped.
type CanvasSync struct {
	store     *Store
	debouncer *Debouncer
}

// NewCanvasSync wraps store. A non-positive wait uses DefaultDebounce.
func NewCanvasSync(store *Store, wait time.Duration) *CanvasSync {
	return &CanvasSync{store: store, debouncer: NewDebouncer(wait)}
}

// OnChange records the latest canvas output for a slide. Returns false
// after Close.
func (c *CanvasSync) OnChange(deckID, slideID string, patch model.SlidePatch) bool {
	return c.debouncer.Schedule(canvasKey(deckID, slideID), func() {
		c.apply(deckID, slideID, patch)
	})
}

// Flush writes the pending edit of one slide immediately, as when its view
// is torn down.
func (c *CanvasSync) Flush(deckID, slideID string) bool {
	return c.debouncer.Flush(canvasKey(deckID, slideID))
}

// Pending returns the number of slides with an unwritten edit.
func (c *CanvasSync) Pending() int {
	return c.debouncer.Pending()
}

// Close flushes every pending edit and stops accepting new ones.
func (c *CanvasSync) Close() {
	c.debouncer.Stop()
}

func (c *CanvasSync) apply(deckID, slideID string, patch model.SlidePatch) {
	c.store.Dispatch(UpdateSlide{DeckID: deckID, SlideID: slideID, Patch: patch})
}

func canvasKey(deckID, slideID string) string {
	return deckID + "/" + slideID
}
