package cache

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

// lruModel is the reference implementation the property test checks
// the linked-list store against: a value map plus an explicit
// recency-ordered key slice (most recent first).
type lruModel struct {
	capacity int
	values   map[string]int
	order    []string
}

func newLRUModel(capacity int) *lruModel {
	return &lruModel{capacity: capacity, values: make(map[string]int)}
}

func (m *lruModel) touch(key string) {
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.order = append([]string{key}, m.order...)
}

func (m *lruModel) set(key string, value int) {
	if _, ok := m.values[key]; ok {
		m.values[key] = value
		m.touch(key)
		return
	}
	if len(m.order) == m.capacity {
		last := m.order[len(m.order)-1]
		m.order = m.order[:len(m.order)-1]
		delete(m.values, last)
	}
	m.values[key] = value
	m.order = append([]string{key}, m.order...)
}

func (m *lruModel) get(key string) (int, bool) {
	v, ok := m.values[key]
	if ok {
		m.touch(key)
	}
	return v, ok
}

func (m *lruModel) delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// The store must agree with the model on every hit, miss, value, and
// recency ordering for any operation sequence, and never exceed its
// capacity. TTL is kept long enough to never trigger.
func TestLRUStore_MatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")
		store := newLRUStore[int](capacity, time.Hour)
		model := newLRUModel(capacity)

		keyGen := rapid.SampledFrom([]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"})

		t.Repeat(map[string]func(*rapid.T){
			"set": func(t *rapid.T) {
				key := keyGen.Draw(t, "key")
				value := rapid.IntRange(0, 1000).Draw(t, "value")
				store.Set(key, lruEntry(key, value))
				model.set(key, value)
			},
			"get": func(t *rapid.T) {
				key := keyGen.Draw(t, "key")
				entry, ok := store.Get(key)
				want, wantOK := model.get(key)
				if ok != wantOK {
					t.Fatalf("get(%q): hit=%v, model says %v", key, ok, wantOK)
				}
				if ok && entry.Value != want {
					t.Fatalf("get(%q) = %d, model says %d", key, entry.Value, want)
				}
			},
			"delete": func(t *rapid.T) {
				key := keyGen.Draw(t, "key")
				store.Delete(key)
				model.delete(key)
			},
			"evictLRU": func(t *rapid.T) {
				store.EvictLRU()
				if len(model.order) > 0 {
					last := model.order[len(model.order)-1]
					model.delete(last)
				}
			},
			"": func(t *rapid.T) {
				if store.Len() > capacity {
					t.Fatalf("size %d exceeds capacity %d", store.Len(), capacity)
				}
				if store.Len() != len(model.values) {
					t.Fatalf("size %d, model has %d", store.Len(), len(model.values))
				}
				keys := store.keys()
				for i, k := range model.order {
					if keys[i] != k {
						t.Fatalf("recency order %v, model says %v", keys, model.order)
					}
				}
			},
		})
	})
}
