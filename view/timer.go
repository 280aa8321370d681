// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"sync"
	"time"

	"github.com/vaultview/vaultview/lib/clock"
)

// Debouncer coalesces a burst of triggers into a single trailing-edge
// callback: each Reset restarts the delay, and the callback runs only
// once the delay passes without another Reset. Typical use is running
// a lookup after the user stops typing an address.
//
// The callback runs on a timer goroutine, not the caller's; it must
// do its own locking or hand off to an update loop.
type Debouncer struct {
	mu      sync.Mutex
	clk     clock.Clock
	delay   time.Duration
	fn      func()
	timer   *clock.Timer
	pending bool
}

// NewDebouncer creates a debouncer that runs fn after delay has
// elapsed since the most recent Reset.
func NewDebouncer(clk clock.Clock, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{clk: clk, delay: delay, fn: fn}
}

// Reset starts or restarts the delay. The callback fires once the
// full delay elapses with no further Reset.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clk.AfterFunc(d.delay, d.fire)
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Flush runs the callback immediately if one is pending, cancelling
// the timer. It is a no-op when nothing is pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	fn := d.fn
	d.mu.Unlock()
	fn()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.pending {
		// Stop or Flush won the race with the timer firing.
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	fn := d.fn
	d.mu.Unlock()
	fn()
}

// Repeater runs a callback at a fixed interval until stopped, for
// periodic view refresh. The callback runs on the repeater's own
// goroutine.
type Repeater struct {
	ticker *clock.Ticker
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewRepeater starts a repeater calling fn every interval.
func NewRepeater(clk clock.Clock, interval time.Duration, fn func()) *Repeater {
	r := &Repeater{
		ticker: clk.NewTicker(interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for {
			select {
			case <-r.ticker.C:
				fn()
			case <-r.stop:
				return
			}
		}
	}()
	return r
}

// Stop halts the repeater and waits for any in-flight callback to
// return. Safe to call multiple times.
func (r *Repeater) Stop() {
	r.once.Do(func() {
		r.ticker.Stop()
		close(r.stop)
	})
	<-r.done
}
