package collector

import (
	"sync"
	"sync/atomic"

	"github.com/getsentry/scopedtrace/internal/errorutil"
	"github.com/getsentry/scopedtrace/internal/frame"
)

// Collector accumulates the raw captures of one root invocation. It is safe
// for concurrent use. Once drained it is sealed and further submissions are
// dropped.
type Collector struct {
	lock     sync.Mutex
	captures [][]frame.Descriptor
	sealed   bool

	dropped atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

// Submit appends a capture. It reports false when the collector was already
// drained, in which case the capture is discarded.
func (c *Collector) Submit(capture []frame.Descriptor) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.sealed {
		c.dropped.Add(1)
		return false
	}
	c.captures = append(c.captures, capture)
	return true
}

// Drain seals the collector and returns every capture submitted so far, in no
// particular order.
func (c *Collector) Drain() ([][]frame.Descriptor, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.sealed {
		return nil, errorutil.ErrCollectorDrained
	}
	c.sealed = true
	captures := c.captures
	c.captures = nil
	return captures, nil
}

// Sealed reports whether the collector stopped accepting captures.
func (c *Collector) Sealed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.sealed
}

// Len returns the number of captures waiting to be drained.
func (c *Collector) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.captures)
}

// Dropped returns the number of submissions refused after sealing.
func (c *Collector) Dropped() uint64 {
	return c.dropped.Load()
}
