package persist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/model"
)

// Report describes what Load found in the slot.
type Report struct {
	Found       bool  // the slot held a document
	Corrupt     bool  // the document could not be read and was ignored
	FromVersion int   // version the document was written at
	Migrated    bool  // FromVersion was older than model.SchemaVersion
	Decks       int   // decks restored
	Cause       error // why the document was ignored, when Corrupt
}

// Load restores the state stored under key. Bad data never fails: it yields
// an empty state and a Report with Corrupt set. Only a slot read error is
// returned.
func Load(ctx context.Context, slot Slot, key string, env Env, log *zap.Logger) (model.State, Report, error) {
	if log == nil {
		log = zap.NewNop()
	}

	data, ok, err := slot.ReadSlot(ctx, key)
	if err != nil {
		return model.State{}, Report{}, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		log.Debug("no stored state", zap.String("key", key))
		return model.EmptyState(), Report{}, nil
	}

	if env.OnCoerce == nil {
		env.OnCoerce = func(deckID, slideID string, from model.Engine) {
			log.Warn("dropping slide content of mismatched engine",
				zap.String("key", key),
				zap.String("deck", deckID),
				zap.String("slide", slideID),
				zap.String("slideEngine", string(from)))
		}
	}

	rep := Report{Found: true}
	st, version, err := Migrate(data, env)
	rep.FromVersion = version
	if err != nil {
		rep.Corrupt = true
		rep.Cause = err
		log.Warn("discarding unreadable stored state",
			zap.String("key", key),
			zap.Int("bytes", len(data)),
			zap.Error(err))
		return model.EmptyState(), rep, nil
	}

	rep.Migrated = version < model.SchemaVersion
	rep.Decks = len(st.Presentations)
	if rep.Migrated {
		log.Info("migrated stored state",
			zap.String("key", key),
			zap.Int("from", version),
			zap.Int("to", model.SchemaVersion),
			zap.Int("decks", rep.Decks))
	}
	return st, rep, nil
}
