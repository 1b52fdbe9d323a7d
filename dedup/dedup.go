// Package dedup provides a bounded first-in-first-out membership set used to
// suppress duplicate deliveries of the same channel message.
package dedup

import "sync"

// Cache remembers the most recently marked (channel, message) keys up to a
// fixed capacity. When full, marking a new key evicts the single oldest one.
type Cache struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
}

// NewCache creates a cache holding at most capacity keys.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// SeenOrMark reports whether the message was already marked. If not, the key
// is marked now; the check and the mark are one atomic step.
func (c *Cache) SeenOrMark(channelID, messageID string) bool {
	key := channelID + ":" + messageID

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[key]; ok {
		return true
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
	c.seen[key] = struct{}{}
	c.order = append(c.order, key)
	return false
}

// Len returns the current number of marked keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
