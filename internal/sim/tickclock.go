package sim

import (
	"sync/atomic"
	"time"
)

// TickClock turns wall-clock time into the monotonically increasing integer
// ticks the queue operates on. The queue never reads this directly; the
// runner samples Now once per tick and passes it into every time-sensitive
// call.
type TickClock struct {
	ch    chan struct{}
	count atomic.Int64
	stop  chan struct{}
}

// NewTickClock creates a clock without starting it.
func NewTickClock(buffer int) *TickClock {
	return &TickClock{
		ch:   make(chan struct{}, buffer),
		stop: make(chan struct{}),
	}
}

// Start begins emitting ticks at the given interval.
func (c *TickClock) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.count.Add(1)
				select {
				case c.ch <- struct{}{}:
				default:
					// Consumer is behind; ticks still count, delivery is
					// best-effort so a slow tick never queues up a burst.
				}
			case <-c.stop:
				close(c.ch)
				return
			}
		}
	}()
}

// C returns the tick delivery channel.
func (c *TickClock) C() <-chan struct{} { return c.ch }

// Stop signals the clock to stop emitting ticks.
func (c *TickClock) Stop() {
	close(c.stop)
}

// Now returns the current tick.
func (c *TickClock) Now() int64 {
	return c.count.Load()
}
