package utils

import (
	"sort"
	"sync"
)

// Cache is a concurrency-safe keyed store of lazily created values
type Cache[K comparable, V any] struct {
	items map[K]V
	mutex sync.RWMutex
}

// NewCache creates a new generic cache
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

// Get retrieves an item from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	value, exists := c.items[key]
	return value, exists
}

// GetOrCreate returns the cached value for key, calling create under the
// write lock when there is none. A failed create caches nothing.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if value, ok := c.items[key]; ok {
		return value, nil
	}
	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.items[key] = value
	return value, nil
}

// Set stores an item in the cache
func (c *Cache[K, V]) Set(key K, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = value
}

// Delete removes an item from the cache
func (c *Cache[K, V]) Delete(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Drain empties the cache and returns what it held
func (c *Cache[K, V]) Drain() map[K]V {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	items := c.items
	c.items = make(map[K]V)
	return items
}

// Size returns the number of items in the cache
func (c *Cache[K, V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}

// SortedKeys returns the keys of a string-keyed cache in sorted order
func SortedKeys[V any](c *Cache[string, V]) []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return SortedMapKeys(c.items)
}

// SortedMapKeys returns the keys of m in sorted order
func SortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
