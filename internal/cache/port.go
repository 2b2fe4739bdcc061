package cache

// Cache defines the port interface for entity-detail caching.
// The fetch coordinator depends on this interface only, so the FIFO
// adapter can be swapped without touching the coordinator logic.
type Cache[K comparable, V any] interface {
	// Get retrieves a value by key. It is a pure lookup and must not
	// change eviction order.
	Get(key K) (V, bool)

	// Put stores a value. Overwriting an existing key keeps its position.
	Put(key K, value V)
}
