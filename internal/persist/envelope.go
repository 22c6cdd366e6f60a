package persist

import (
	"context"
	"fmt"

	"github.com/roach88/slideboard/internal/model"
)

// StorageKey is the slot key of the presentation state.
const StorageKey = "slideboard-storage"

// Slot is a named document store. Implemented by *store.Store and MemorySlot.
type Slot interface {
	ReadSlot(ctx context.Context, key string) ([]byte, bool, error)
	WriteSlot(ctx context.Context, key string, data []byte) error
}

type envelope struct {
	Version int         `json:"version"`
	State   model.State `json:"state"`
}

// Encode renders st as a current-version envelope.
func Encode(st model.State) ([]byte, error) {
	if st.Folders == nil {
		st.Folders = []model.Folder{}
	}
	if st.Presentations == nil {
		st.Presentations = []model.Deck{}
	}
	data, err := model.MarshalCanonical(envelope{Version: model.SchemaVersion, State: st})
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}
