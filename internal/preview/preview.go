// Package preview stores rendered slide thumbnails.
//
// Previews are data URLs keyed by slide id. An ARC cache sits in front of a
// durable Backend (the SQLite store). Every Set and Delete is broadcast to
// subscribers so open views can refresh their thumbnail.
package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// DefaultCacheSize is the number of previews kept in memory.
const DefaultCacheSize = 256

// ErrInvalidPreview is returned for an empty slide id or a value that is not
// a data URL.
var ErrInvalidPreview = errors.New("invalid preview")

// Backend is the durable preview table. Implemented by *store.Store.
type Backend interface {
	ReadPreview(ctx context.Context, slideID string) (string, bool, error)
	WritePreview(ctx context.Context, slideID, dataURL string) error
	DeletePreview(ctx context.Context, slideID string) error
	ListPreviewIDs(ctx context.Context) ([]string, error)
}

// Observer counts preview operations. Implemented by metrics.Recorder.
type Observer interface {
	ObservePreview(op string)
}

// Event announces that the preview of a slide changed.
type Event struct {
	SlideID string `json:"slideId"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Store is the cached preview store.
type Store struct {
	backend  Backend
	cache    *lru.ARCCache
	log      *zap.Logger
	observer Observer

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithObserver reports operations to o.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New returns a Store over backend with an in-memory cache of size entries.
// A non-positive size uses DefaultCacheSize.
func New(backend Backend, size int, opts ...Option) (*Store, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("preview cache: %w", err)
	}
	s := &Store{
		backend: backend,
		cache:   cache,
		log:     zap.NewNop(),
		subs:    make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the preview of slideID.
func (s *Store) Get(ctx context.Context, slideID string) (string, bool, error) {
	if v, ok := s.cache.Get(slideID); ok {
		s.observe("hit")
		return v.(string), true, nil
	}
	s.observe("miss")

	dataURL, ok, err := s.backend.ReadPreview(ctx, slideID)
	if err != nil {
		return "", false, fmt.Errorf("get preview %s: %w", slideID, err)
	}
	if ok {
		s.cache.Add(slideID, dataURL)
	}
	return dataURL, ok, nil
}

// Set stores the preview of slideID and notifies subscribers. The cached
// value is kept even when the durable write fails; the error is returned.
func (s *Store) Set(ctx context.Context, slideID, dataURL string) error {
	if slideID == "" || !strings.HasPrefix(dataURL, "data:") {
		return ErrInvalidPreview
	}
	s.observe("set")

	s.cache.Add(slideID, dataURL)
	err := s.backend.WritePreview(ctx, slideID, dataURL)
	s.broadcast(Event{SlideID: slideID})
	if err != nil {
		s.log.Error("preview write failed", zap.String("slide", slideID), zap.Error(err))
		return fmt.Errorf("set preview %s: %w", slideID, err)
	}
	return nil
}

// Delete removes the preview of slideID and notifies subscribers.
func (s *Store) Delete(ctx context.Context, slideID string) error {
	s.observe("delete")

	s.cache.Remove(slideID)
	err := s.backend.DeletePreview(ctx, slideID)
	s.broadcast(Event{SlideID: slideID, Deleted: true})
	if err != nil {
		s.log.Error("preview delete failed", zap.String("slide", slideID), zap.Error(err))
		return fmt.Errorf("delete preview %s: %w", slideID, err)
	}
	return nil
}

// Prune deletes every stored preview whose slide id is not in live and
// returns how many were removed.
func (s *Store) Prune(ctx context.Context, live map[string]struct{}) (int, error) {
	ids, err := s.backend.ListPreviewIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune previews: %w", err)
	}

	removed := 0
	for _, id := range ids {
		if _, ok := live[id]; ok {
			continue
		}
		if err := s.Delete(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("pruned previews", zap.Int("removed", removed), zap.Int("kept", len(ids)-removed))
	}
	return removed, nil
}

// Subscribe returns a channel of change events with room for buf pending
// events, and a func that closes it. Events are dropped for a subscriber
// whose buffer is full.
func (s *Store) Subscribe(buf int) (<-chan Event, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan Event, buf)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) broadcast(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Debug("preview subscriber full, dropping event", zap.String("slide", ev.SlideID))
		}
	}
}

func (s *Store) observe(op string) {
	if s.observer != nil {
		s.observer.ObservePreview(op)
	}
}
