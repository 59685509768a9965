package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"exam-bot/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Backend persists whole-document snapshots of a collection (file, Redis, Postgres, etc).
// Load returns nil data and a nil error when the collection has never been saved.
type Backend interface {
	Load(ctx context.Context, c domain.Collection) ([]byte, error)
	Save(ctx context.Context, c domain.Collection, data []byte) error
}

// errUnchanged aborts an update without writing.
var errUnchanged = errors.New("document unchanged")

// Store serializes writes per collection and serves reads from a cached copy of the
// last loaded or saved bytes. Each read decodes a fresh document, so callers may
// mutate what they get back.
type Store struct {
	backend Backend
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	writeMu map[domain.Collection]*sync.Mutex

	mu    sync.RWMutex
	cache map[domain.Collection]cachedDoc
}

type cachedDoc struct {
	data      []byte
	version   uint64
	expiresAt time.Time
}

// New wraps backend. A zero ttl keeps cached documents until the next write.
func New(backend Backend, ttl time.Duration) *Store {
	writeMu := make(map[domain.Collection]*sync.Mutex, len(domain.Collections))
	for _, c := range domain.Collections {
		writeMu[c] = &sync.Mutex{}
	}
	return &Store{
		backend: backend,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		writeMu: writeMu,
		cache:   make(map[domain.Collection]cachedDoc),
	}
}

// Load returns a copy of the raw document for c, nil if it was never saved.
func (s *Store) Load(ctx context.Context, c domain.Collection) ([]byte, error) {
	data, err := s.load(ctx, c)
	if err != nil || data == nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) load(ctx context.Context, c domain.Collection) ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, c)
	}
	now := s.clock()

	s.mu.RLock()
	entry, ok := s.cache[c]
	s.mu.RUnlock()
	if ok && s.fresh(entry, now) {
		return entry.data, nil
	}

	result, err, _ := s.sf.Do(string(c), func() (interface{}, error) {
		s.mu.RLock()
		entry, ok := s.cache[c]
		s.mu.RUnlock()
		if ok && s.fresh(entry, s.clock()) {
			return entry.data, nil
		}

		data, err := s.backend.Load(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", c, err)
		}

		s.mu.Lock()
		// A write that landed while we were loading is newer than what we read.
		if current, ok := s.cache[c]; !ok || current.version == entry.version {
			s.cache[c] = cachedDoc{
				data:      data,
				version:   entry.version,
				expiresAt: s.clock().Add(s.ttlWithJitter()),
			}
		}
		s.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Save replaces the whole document for c.
func (s *Store) Save(ctx context.Context, c domain.Collection, data []byte) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCollection, c)
	}
	mu := s.writeMu[c]
	mu.Lock()
	defer mu.Unlock()
	return s.saveLocked(ctx, c, append([]byte(nil), data...))
}

func (s *Store) saveLocked(ctx context.Context, c domain.Collection, data []byte) error {
	if err := s.backend.Save(ctx, c, data); err != nil {
		return fmt.Errorf("save %s: %w", c, err)
	}
	s.mu.Lock()
	s.cache[c] = cachedDoc{
		data:      data,
		version:   s.cache[c].version + 1,
		expiresAt: s.clock().Add(s.ttlWithJitter()),
	}
	s.mu.Unlock()
	return nil
}

// update runs a read-modify-write of c under the collection's write lock. fn receives
// the current document decoded into doc; returning an error aborts without saving.
func update[T any](ctx context.Context, s *Store, c domain.Collection, doc *T, fn func() error) error {
	mu := s.writeMu[c]
	mu.Lock()
	defer mu.Unlock()

	data, err := s.load(ctx, c)
	if err != nil {
		return err
	}
	if err := decode(data, doc); err != nil {
		return fmt.Errorf("decode %s: %w", c, err)
	}
	if err := fn(); err != nil {
		return err
	}
	out, err := encode(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	return s.saveLocked(ctx, c, out)
}

func read[T any](ctx context.Context, s *Store, c domain.Collection, doc *T) error {
	data, err := s.load(ctx, c)
	if err != nil {
		return err
	}
	if err := decode(data, doc); err != nil {
		return fmt.Errorf("decode %s: %w", c, err)
	}
	return nil
}

func decode[T any](data []byte, doc *T) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, doc)
}

func encode(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Store) fresh(entry cachedDoc, now time.Time) bool {
	return s.ttl <= 0 || entry.expiresAt.After(now)
}

func (s *Store) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread reloads
	jitterMax := int64(s.ttl) / 10
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
