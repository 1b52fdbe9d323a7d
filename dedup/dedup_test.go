package dedup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenOrMark(t *testing.T) {
	c := NewCache(10)

	assert.False(t, c.SeenOrMark("chan", "1"), "first delivery must not be seen")
	assert.True(t, c.SeenOrMark("chan", "1"), "second delivery must be seen")
	assert.False(t, c.SeenOrMark("other", "1"), "same message id in another channel is a distinct key")
	assert.Equal(t, 2, c.Len())
}

func TestFIFOEviction(t *testing.T) {
	c := NewCache(3)

	c.SeenOrMark("c", "k1")
	c.SeenOrMark("c", "k2")
	c.SeenOrMark("c", "k3")

	// Inserting a fourth key evicts k1, the oldest, and only k1.
	assert.False(t, c.SeenOrMark("c", "k4"))
	assert.Equal(t, 3, c.Len())

	assert.False(t, c.SeenOrMark("c", "k1"), "k1 was evicted and must read as unseen")
	// Re-marking k1 above evicted k2 in turn; k3 and k4 are still present.
	assert.True(t, c.SeenOrMark("c", "k3"))
	assert.True(t, c.SeenOrMark("c", "k4"))
}

func TestCapacityNeverExceeded(t *testing.T) {
	c := NewCache(50)
	for i := 0; i < 500; i++ {
		c.SeenOrMark("c", fmt.Sprintf("m%d", i))
	}
	assert.Equal(t, 50, c.Len())
	// The newest keys survive.
	for i := 450; i < 500; i++ {
		assert.True(t, c.SeenOrMark("c", fmt.Sprintf("m%d", i)))
	}
}
