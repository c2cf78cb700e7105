package blob

import (
	"sync"

	"github.com/hupe1980/mapped"
)

// regionCache is a concurrent key → frozen region map. Entries are heap
// backed, so eviction is left to the garbage collector via the owner
// dropping the whole tree.
type regionCache struct {
	mu      sync.RWMutex
	regions map[string]mapped.FrozenMemoryRegion
}

func (c *regionCache) get(key string) (mapped.FrozenMemoryRegion, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	region, ok := c.regions[key]
	return region, ok
}

func (c *regionCache) put(key string, region mapped.FrozenMemoryRegion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.regions == nil {
		c.regions = make(map[string]mapped.FrozenMemoryRegion)
	}
	c.regions[key] = region
}
