// Package imagecache holds uploaded image payloads for the process lifetime
// so tool invocations can reference "the image the user just sent" by id
// instead of re-transmitting bytes.
package imagecache

import (
	"sync"

	"github.com/lithammer/shortuuid/v4"
)

const idPrefix = "img_"

// Cache is an in-process store of raw image bytes keyed by opaque id.
// Entries are never evicted.
type Cache struct {
	mu     sync.RWMutex
	images map[string][]byte
}

func New() *Cache {
	return &Cache{images: make(map[string][]byte)}
}

// Put stores an image and returns its freshly allocated id. Allocation is
// atomic with respect to concurrent callers.
func (c *Cache) Put(raw []byte) string {
	buf := make([]byte, len(raw))
	copy(buf, raw)

	id := idPrefix + shortuuid.New()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[id] = buf
	return id
}

// Get returns the stored image bytes, or false when the id is unknown.
func (c *Cache) Get(id string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	raw, ok := c.images[id]
	return raw, ok
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
