package veil

import "sync"

// visibilityCache memoizes label-visibility results per (label,
// generation), grounded on melange/cache.go's CacheImpl but keyed on the
// pair the spec calls out in §4.5 step 4 rather than on a subject/
// relation/object tuple. A context mutation bumps the generation, which
// implicitly invalidates every prior entry without any explicit eviction.
type visibilityCache struct {
	mu    sync.Mutex
	items map[visKey]bool
}

type visKey struct {
	label LabelID
	gen   Generation
}

func newVisibilityCache() *visibilityCache {
	return &visibilityCache{items: make(map[visKey]bool)}
}

func (c *visibilityCache) get(label LabelID, gen Generation) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[visKey{label, gen}]
	return v, ok
}

func (c *visibilityCache) set(label LabelID, gen Generation, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[visKey{label, gen}] = visible
}
