package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// diskFileSuffix is appended to the namespace to form the L2 file name.
const diskFileSuffix = "_cache.json"

// diskStore is the L2 tier: the full entry map for one namespace,
// persisted as a single JSON file. Every mutation rewrites the whole
// file; every read parses it wholesale. A missing or corrupt file
// degrades to an empty map, never an error.
type diskStore[T any] struct {
	mu     sync.Mutex
	dir    string
	path   string
	ttl    time.Duration
	logger *zap.Logger
}

func newDiskStore[T any](dir, namespace string, ttl time.Duration, logger *zap.Logger) *diskStore[T] {
	return &diskStore[T]{
		dir:    dir,
		path:   filepath.Join(dir, namespace+diskFileSuffix),
		ttl:    ttl,
		logger: logger.With(zap.String("component", "cache.disk")),
	}
}

// EnsureDir creates the cache directory if it does not exist.
func (s *diskStore[T]) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// Load reads and parses the whole namespace file. Disk corruption
// degrades to a cold cache: any read or parse failure returns an
// empty map.
func (s *diskStore[T]) Load() map[string]*Entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *diskStore[T]) load() map[string]*Entry[T] {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]*Entry[T])
	}
	if err != nil {
		s.logger.Warn("disk cache read failed, starting cold",
			zap.String("path", s.path), zap.Error(err))
		return make(map[string]*Entry[T])
	}

	var entries map[string]*Entry[T]
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("disk cache unparsable, starting cold",
			zap.String("path", s.path), zap.Error(err))
		return make(map[string]*Entry[T])
	}
	if entries == nil {
		entries = make(map[string]*Entry[T])
	}
	return entries
}

// Persist overwrites the namespace file with the given map. Write
// failures are logged and absorbed.
func (s *diskStore[T]) Persist(entries map[string]*Entry[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(entries)
}

func (s *diskStore[T]) persist(entries map[string]*Entry[T]) {
	data, err := json.Marshal(entries)
	if err != nil {
		s.logger.Warn("disk cache marshal failed", zap.Error(err))
		return
	}

	// Atomic write: write to temp file then rename
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		s.logger.Warn("disk cache write failed",
			zap.String("path", tempPath), zap.Error(err))
		return
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		s.logger.Warn("disk cache rename failed",
			zap.String("path", s.path), zap.Error(err))
	}
}

// Get looks up key in the persisted map, applying the L2 TTL. An
// expired entry is deleted from the file before reporting a miss.
func (s *diskStore[T]) Get(key string) (*Entry[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entry, ok := entries[key]
	if !ok {
		return nil, false
	}

	if expired(entry.Metadata.UpdatedAt, s.ttl, time.Now()) {
		delete(entries, key)
		s.persist(entries)
		return nil, false
	}
	return entry, true
}

// Set writes key into the persisted map. The load-mutate-persist
// sequence holds the store mutex, so concurrent sets to distinct
// keys cannot lose each other's writes.
func (s *diskStore[T]) Set(key string, entry *Entry[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entries[key] = entry
	s.persist(entries)
}

// Remove deletes key from the persisted map. Unknown keys are a no-op.
func (s *diskStore[T]) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	if _, ok := entries[key]; !ok {
		return
	}
	delete(entries, key)
	s.persist(entries)
}

// RemoveAll empties the persisted map. The file itself is kept.
func (s *diskStore[T]) RemoveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(make(map[string]*Entry[T]))
}

// Len reports the number of persisted entries. Test helper.
func (s *diskStore[T]) Len() int {
	return len(s.Load())
}
