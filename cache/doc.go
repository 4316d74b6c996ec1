// Package cache implements the tiered cache used by the agent
// orchestration layer: a bounded in-memory LRU (L1), a namespaced
// JSON file store (L2), and an adapter to the long-term knowledge
// backend (L3).
//
// Reads cascade L1 -> L2 -> L3 and promote hits upward; writes go
// through all tiers synchronously. L2 and L3 faults degrade to a
// colder cache and are never surfaced to callers.
package cache
