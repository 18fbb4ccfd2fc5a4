package runtime

import "sync/atomic"

//go:generate mockgen -source=height.go -destination=mock/height_mock.go -package=mock

// HeightSource reports the current block height used for deadline checks.
type HeightSource interface {
	Height() uint64
}

// FixedHeight is a HeightSource that never advances.
type FixedHeight uint64

func (h FixedHeight) Height() uint64 { return uint64(h) }

// Counter is a HeightSource advanced explicitly, once per committed block.
type Counter struct {
	h atomic.Uint64
}

// NewCounter starts a counter at height.
func NewCounter(height uint64) *Counter {
	c := &Counter{}
	c.h.Store(height)
	return c
}

func (c *Counter) Height() uint64 { return c.h.Load() }

// Advance moves the height forward by n and returns the new height.
func (c *Counter) Advance(n uint64) uint64 { return c.h.Add(n) }
