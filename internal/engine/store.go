package engine

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/model"
)

// Listener is called after every accepted action with the new and the
// previous snapshot. Listeners run on the dispatching goroutine while the
// writer lock is held: they must not call Dispatch.
type Listener func(next, prev model.State, action Action)

// Observer receives one call per dispatched action. Implemented by
// metrics.Recorder.
type Observer interface {
	ObserveAction(kind string, changed bool)
}

// Store is the single-writer container for model.State.
//
// Thread-safety model:
//   - State(): safe from any goroutine, lock-free
//   - Dispatch(): safe from any goroutine, serialized by the writer lock
//   - Subscribe(): safe from any goroutine
type Store struct {
	mu      sync.Mutex // writer lock, held for reduce + publish + notify
	current atomic.Pointer[model.State]

	listenersMu sync.Mutex
	listeners   []subscription
	nextSubID   int

	clock    Clock
	ids      IDGenerator
	log      *zap.Logger
	observer Observer
}

type subscription struct {
	id int
	fn Listener
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the timestamp source. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDs sets the id generator. Default: UUIDv7Generator.
func WithIDs(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithObserver registers an action observer, typically the metrics recorder.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New creates a Store holding initial. The caller gives up ownership of
// initial: it becomes the first published snapshot.
func New(initial model.State, opts ...Option) *Store {
	s := &Store{
		clock: SystemClock{},
		ids:   UUIDv7Generator{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if initial.Folders == nil {
		initial.Folders = []model.Folder{}
	}
	if initial.Presentations == nil {
		initial.Presentations = []model.Deck{}
	}
	s.current.Store(&initial)
	return s
}

// State returns the current snapshot. The snapshot is shared: callers must
// treat it as read-only and use Clone before modifying anything in it.
func (s *Store) State() model.State {
	return *s.current.Load()
}

// Dispatch applies a and notifies listeners if the state changed.
//
// Mutations never fail. An action that cannot apply (unknown id, deleting
// the last slide, index out of range) leaves the state untouched and
// returns an Outcome with Changed == false.
func (s *Store) Dispatch(a Action) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := *s.current.Load()
	env := Env{Now: s.clock.Now(), NewID: s.ids.Generate}
	next, out := Apply(prev, a, env)

	s.log.Debug("dispatch",
		zap.String("action", a.Kind()),
		zap.Bool("changed", out.Changed),
		zap.String("id", out.ID),
	)
	if s.observer != nil {
		s.observer.ObserveAction(a.Kind(), out.Changed)
	}
	if !out.Changed {
		return out
	}

	s.current.Store(&next)
	for _, sub := range s.snapshotListeners() {
		sub.fn(next, prev, a)
	}
	return out
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) snapshotListeners() []subscription {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return append([]subscription(nil), s.listeners...)
}

// Now returns the store clock's current time.
func (s *Store) Now() int64 {
	return s.clock.Now()
}
