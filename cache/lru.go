package cache

import (
	"sync"
	"time"
)

// lruStore is the L1 tier: a fixed-capacity in-memory cache with a
// doubly-linked recency list (head = most recent) and a hash index,
// giving O(1) get/set/evict.
type lruStore[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*lruNode[T]
	head     *lruNode[T]
	tail     *lruNode[T]

	evictions uint64
}

type lruNode[T any] struct {
	key   string
	entry *Entry[T]
	prev  *lruNode[T]
	next  *lruNode[T]
}

func newLRUStore[T any](capacity int, ttl time.Duration) *lruStore[T] {
	return &lruStore[T]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruNode[T]),
	}
}

// Get returns the entry for key, refreshing its recency. An entry
// past the L1 TTL is removed and counted as an eviction.
func (s *lruStore[T]) Get(key string) (*Entry[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.items[key]
	if !ok {
		return nil, false
	}

	now := time.Now()
	if expired(node.entry.Metadata.UpdatedAt, s.ttl, now) {
		s.removeNode(node)
		delete(s.items, key)
		s.evictions++
		return nil, false
	}

	s.moveToHead(node)
	node.entry.Metadata.AccessCount++
	node.entry.Metadata.LastAccessedAt = now
	return node.entry, true
}

// Set inserts or replaces the entry for key. An existing key is
// updated in place and moved to the head; a new key may first evict
// the tail when the store is at capacity.
func (s *lruStore[T]) Set(key string, entry *Entry[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node, ok := s.items[key]; ok {
		node.entry = entry
		s.moveToHead(node)
		return
	}

	if len(s.items) >= s.capacity {
		s.evictTail()
	}

	node := &lruNode[T]{key: key, entry: entry}
	s.items[key] = node
	s.addToHead(node)
}

// EvictLRU removes the least-recently-used entry. No-op when empty.
func (s *lruStore[T]) EvictLRU() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictTail()
}

func (s *lruStore[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node, ok := s.items[key]; ok {
		s.removeNode(node)
		delete(s.items, key)
	}
}

func (s *lruStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*lruNode[T])
	s.head = nil
	s.tail = nil
}

func (s *lruStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *lruStore[T]) Capacity() int {
	return s.capacity
}

// Evictions returns the number of capacity and TTL evictions so far.
func (s *lruStore[T]) Evictions() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictions
}

// keys returns the resident keys in recency order, head first.
// Test helper; callers must not rely on it for correctness.
func (s *lruStore[T]) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.items))
	for node := s.head; node != nil; node = node.next {
		out = append(out, node.key)
	}
	return out
}

func (s *lruStore[T]) addToHead(node *lruNode[T]) {
	node.prev = nil
	node.next = s.head
	if s.head != nil {
		s.head.prev = node
	}
	s.head = node
	if s.tail == nil {
		s.tail = node
	}
}

func (s *lruStore[T]) removeNode(node *lruNode[T]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		s.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		s.tail = node.prev
	}
}

func (s *lruStore[T]) moveToHead(node *lruNode[T]) {
	if node == s.head {
		return
	}
	s.removeNode(node)
	s.addToHead(node)
}

func (s *lruStore[T]) evictTail() {
	if s.tail == nil {
		return
	}
	delete(s.items, s.tail.key)
	s.removeNode(s.tail)
	s.evictions++
}
