package testing

import "sync"

// ManualHeight is a controllable block height for testing deadlines.
// It implements runtime.HeightSource.
type ManualHeight struct {
	mu      sync.RWMutex
	current uint64
}

// NewManualHeight creates a ManualHeight starting at height 1.
func NewManualHeight() *ManualHeight {
	return &ManualHeight{current: 1}
}

// NewManualHeightAt creates a ManualHeight set to h.
func NewManualHeightAt(h uint64) *ManualHeight {
	return &ManualHeight{current: h}
}

// Height returns the current height.
func (c *ManualHeight) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Advance moves the height forward by n blocks.
func (c *ManualHeight) Advance(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current += n
}

// Set moves the height to h.
func (c *ManualHeight) Set(h uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = h
}
