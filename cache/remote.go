package cache

import "context"

// RemoteStore is the L3 tier: an adapter to the long-term knowledge
// backend. Implementations are best-effort — an unreachable or
// unconfigured backend must surface as absence, never as an error.
type RemoteStore[T any] interface {
	// Available reports whether the backend can currently serve
	// requests. Callers may skip the tier when it returns false.
	Available(ctx context.Context) bool

	// Get returns the entry for key, or false when the key is absent
	// or the backend is unreachable.
	Get(ctx context.Context, key string) (*Entry[T], bool)

	// Set stores the entry under key, best effort.
	Set(ctx context.Context, key string, entry *Entry[T])

	// Remove deletes key, best effort.
	Remove(ctx context.Context, key string)

	// Clear deletes every key in this cache's namespace, best effort.
	Clear(ctx context.Context)
}

// noopRemote is the always-absent L3 used while the knowledge backend
// does not expose generic cache primitives.
type noopRemote[T any] struct{}

// NewNoopRemote returns a RemoteStore that is never available and
// holds nothing.
func NewNoopRemote[T any]() RemoteStore[T] {
	return noopRemote[T]{}
}

func (noopRemote[T]) Available(context.Context) bool { return false }

func (noopRemote[T]) Get(context.Context, string) (*Entry[T], bool) { return nil, false }

func (noopRemote[T]) Set(context.Context, string, *Entry[T]) {}

func (noopRemote[T]) Remove(context.Context, string) {}

func (noopRemote[T]) Clear(context.Context) {}
