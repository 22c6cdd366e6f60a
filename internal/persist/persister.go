package persist

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/model"
)

// DefaultWriteTimeout bounds a single write issued from a listener.
const DefaultWriteTimeout = 5 * time.Second

// WriteObserver is told the outcome of every write. Implemented by
// metrics.Recorder.
type WriteObserver interface {
	ObservePersist(ok bool, bytes int)
}

// Persister writes the state envelope to a slot.
type Persister struct {
	slot     Slot
	key      string
	log      *zap.Logger
	observer WriteObserver
	timeout  time.Duration

	writes   atomic.Int64
	failures atomic.Int64
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithKey overrides StorageKey.
func WithKey(key string) PersisterOption {
	return func(p *Persister) { p.key = key }
}

// WithLogger sets the logger for write failures.
func WithLogger(l *zap.Logger) PersisterOption {
	return func(p *Persister) { p.log = l }
}

// WithWriteObserver reports write outcomes to o.
func WithWriteObserver(o WriteObserver) PersisterOption {
	return func(p *Persister) { p.observer = o }
}

// WithWriteTimeout bounds each listener write.
func WithWriteTimeout(d time.Duration) PersisterOption {
	return func(p *Persister) { p.timeout = d }
}

// NewPersister returns a Persister writing to slot under StorageKey.
func NewPersister(slot Slot, opts ...PersisterOption) *Persister {
	p := &Persister{
		slot:    slot,
		key:     StorageKey,
		log:     zap.NewNop(),
		timeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Save writes st.
func (p *Persister) Save(ctx context.Context, st model.State) error {
	data, err := Encode(st)
	if err == nil {
		err = p.slot.WriteSlot(ctx, p.key, data)
	}
	if p.observer != nil {
		p.observer.ObservePersist(err == nil, len(data))
	}
	if err != nil {
		p.failures.Add(1)
		return err
	}
	p.writes.Add(1)
	return nil
}

// Listener returns an engine.Listener that saves every accepted state.
// Failures are logged; the engine keeps running on its in-memory state.
func (p *Persister) Listener() engine.Listener {
	return func(next, _ model.State, a engine.Action) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.Save(ctx, next); err != nil {
			p.log.Error("persist failed",
				zap.String("key", p.key),
				zap.String("action", a.Kind()),
				zap.Int64("failures", p.failures.Load()),
				zap.Error(err))
		}
	}
}

// Attach subscribes p to s and returns the unsubscribe func.
func (p *Persister) Attach(s *engine.Store) func() {
	return s.Subscribe(p.Listener())
}

// Writes returns the number of successful writes.
func (p *Persister) Writes() int64 { return p.writes.Load() }

// Failures returns the number of failed writes.
func (p *Persister) Failures() int64 { return p.failures.Load() }
