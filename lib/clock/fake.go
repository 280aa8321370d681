// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a deterministic Clock for tests, initialized to the
// given time. Time stands still until Advance is called; Advance fires
// every pending timer, ticker, and sleep whose deadline has been
// reached, in deadline order.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{now: initial}
}

// FakeClock implements Clock with manually controlled time.
//
// AfterFunc callbacks run synchronously inside Advance, so a callback
// must not call Advance or Sleep on the same clock.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeEvent
}

// fakeEvent is one scheduled occurrence: a timer channel send, an
// AfterFunc callback, or a ticker tick.
type fakeEvent struct {
	deadline time.Time
	ch       chan time.Time // nil for AfterFunc events
	fn       func()         // nil for channel events
	interval time.Duration  // non-zero only for tickers
	disarmed bool           // Stop was called, or a one-shot already fired
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives once the clock advances past
// the deadline. A non-positive duration delivers immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.pending = append(c.pending, &fakeEvent{deadline: c.now.Add(d), ch: ch})
	return ch
}

// AfterFunc schedules f to run during a future Advance. A non-positive
// duration runs f synchronously before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()
	if d <= 0 {
		c.mu.Unlock()
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}
	event := &fakeEvent{deadline: c.now.Add(d), fn: f}
	c.pending = append(c.pending, event)
	c.mu.Unlock()

	return &Timer{
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if event.disarmed {
				return false
			}
			event.disarmed = true
			return true
		},
		reset: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasPending := !event.disarmed
			event.disarmed = false
			event.deadline = c.now.Add(d)
			if !wasPending {
				// The event was removed from pending after firing or
				// stopping; schedule it again.
				c.pending = append(c.pending, event)
			}
			return wasPending
		},
	}
}

// NewTicker returns a Ticker that fires once per interval during
// Advance. Ticks that would overflow the buffer are dropped.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	c.mu.Lock()
	ch := make(chan time.Time, 1)
	event := &fakeEvent{deadline: c.now.Add(d), ch: ch, interval: d}
	c.pending = append(c.pending, event)
	c.mu.Unlock()

	return &Ticker{
		C: ch,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			event.disarmed = true
		},
		reset: func(d time.Duration) {
			c.mu.Lock()
			defer c.mu.Unlock()
			event.interval = d
			event.deadline = c.now.Add(d)
			event.disarmed = false
		},
	}
}

// Sleep blocks until the clock advances past the deadline.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves the clock forward by d and fires everything whose
// deadline falls within the new time. Channel sends are non-blocking;
// AfterFunc callbacks run synchronously in the calling goroutine. A
// ticker spanning multiple intervals fires once per interval.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(i, j int) bool {
			return due[i].deadline.Before(due[j].deadline)
		})
		for _, event := range due {
			if event.fn != nil {
				event.fn()
				continue
			}
			select {
			case event.ch <- target:
			default:
			}
		}
	}
}

// takeDue removes and returns events with deadlines at or before
// target. Tickers are rescheduled at deadline+interval and stay in
// pending; expired one-shots are dropped from the list.
func (c *FakeClock) takeDue(target time.Time) []*fakeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due []*fakeEvent
	var keep []*fakeEvent
	for _, event := range c.pending {
		switch {
		case event.disarmed:
			// Dropped from pending entirely.
		case event.deadline.After(target):
			keep = append(keep, event)
		case event.interval > 0:
			due = append(due, &fakeEvent{deadline: event.deadline, ch: event.ch})
			event.deadline = event.deadline.Add(event.interval)
			keep = append(keep, event)
		default:
			event.disarmed = true
			due = append(due, event)
		}
	}
	c.pending = keep
	return due
}
