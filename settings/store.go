package settings

import (
	"context"
	"errors"
	"math"
	"sync"

	"woodenfish/kv"
	"woodenfish/log"
)

var loadOrder = []Field{FieldAutoPlay, FieldSpeed, FieldVolume, FieldTheme}

// Store owns the process's Settings. Construct one with NewStore and pass
// it to every consumer.
type Store struct {
	kv     kv.Store
	writer *writer

	mu      sync.RWMutex
	cur     Settings
	touched [len(fieldKeys)]bool // set by setters so Load does not clobber them

	subsMu sync.Mutex
	subs   map[*Subscription]struct{}

	loadOnce sync.Once
	loaded   chan struct{}
}

func NewStore(store kv.Store) *Store {
	return &Store{
		kv:     store,
		writer: newWriter(store),
		cur:    Defaults(),
		subs:   make(map[*Subscription]struct{}),
		loaded: make(chan struct{}),
	}
}

// Get returns the current snapshot.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Loaded is closed once Load has finished, successfully or not.
func (s *Store) Loaded() <-chan struct{} {
	return s.loaded
}

// Load seeds the snapshot from storage. Missing or malformed values keep
// their defaults, and fields already changed through a setter are left
// alone. Storage read failures are returned joined; they are not fatal.
func (s *Store) Load(ctx context.Context) error {
	defer s.loadOnce.Do(func() { close(s.loaded) })

	var errs []error
	for _, f := range loadOrder {
		raw, err := s.kv.Get(ctx, f.Key())
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, &PersistenceError{Op: "read", Key: f.Key(), Err: err})
			continue
		}

		s.mu.Lock()
		if s.touched[f] {
			s.mu.Unlock()
			continue
		}
		next := s.cur
		if !decode(f, raw, &next) {
			s.mu.Unlock()
			log.Warnf("settings: ignoring stored %s=%q", f.Key(), raw)
			continue
		}
		s.cur = next
		s.publish(Change{Field: f, Settings: next})
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (s *Store) SetSpeed(v float64) {
	if math.IsNaN(v) {
		log.Warn("settings: ignoring NaN speed")
		return
	}
	s.update(FieldSpeed, func(cur *Settings) { cur.Speed = ClampSpeed(v) })
}

func (s *Store) SetVolume(v float64) {
	if math.IsNaN(v) {
		log.Warn("settings: ignoring NaN volume")
		return
	}
	s.update(FieldVolume, func(cur *Settings) { cur.Volume = ClampVolume(v) })
}

func (s *Store) SetTheme(t Theme) {
	if !t.Valid() {
		log.Warnf("settings: ignoring unknown theme %q", t)
		return
	}
	s.update(FieldTheme, func(cur *Settings) { cur.Theme = t })
}

func (s *Store) SetAutoPlay(on bool) {
	s.update(FieldAutoPlay, func(cur *Settings) { cur.AutoPlay = on })
}

func (s *Store) update(f Field, apply func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apply(&s.cur)
	s.touched[f] = true
	next := s.cur

	// publish and enqueue under the lock so subscribers and storage see
	// changes in the order they were made
	s.publish(Change{Field: f, Settings: next})

	value, err := encode(f, next)
	if err != nil {
		log.Errorf("settings: encode %s: %v", f, err)
		return
	}
	log.Setting(f.Key(), value)
	s.writer.enqueue(f.Key(), value)
}

// Flush blocks until every change made so far has been handed to storage.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close flushes pending writes and stops the writer. It does not close
// the underlying kv.Store.
func (s *Store) Close(ctx context.Context) error {
	err := s.writer.flush(ctx)
	s.writer.close()
	return err
}
