package cache

import "time"

// Layers records which tiers are believed to hold a copy of an entry.
// Informational only; the tiers themselves are authoritative.
type Layers struct {
	L1 bool `json:"l1"`
	L2 bool `json:"l2"`
	L3 bool `json:"l3"`
}

// Metadata describes a cached entry.
type Metadata struct {
	Key            string        `json:"key"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	AccessCount    int64         `json:"access_count"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
	TTL            time.Duration `json:"ttl"`
	Layers         Layers        `json:"layers"`
}

// Entry is a cached value plus its metadata. Values must be
// JSON-representable to survive an L2 or L3 round trip.
type Entry[T any] struct {
	Value    T        `json:"value"`
	Metadata Metadata `json:"metadata"`
}

// newEntry builds a fresh entry for a write-through set.
func newEntry[T any](key string, value T, ttl time.Duration, now time.Time) *Entry[T] {
	return &Entry[T]{
		Value: value,
		Metadata: Metadata{
			Key:            key,
			CreatedAt:      now,
			UpdatedAt:      now,
			AccessCount:    0,
			LastAccessedAt: now,
			TTL:            ttl,
		},
	}
}

// expired reports whether an entry written at updatedAt has outlived
// ttl as of now. Each tier applies its own ttl constant.
func expired(updatedAt time.Time, ttl time.Duration, now time.Time) bool {
	return now.Sub(updatedAt) > ttl
}
