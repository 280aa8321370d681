// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/vaultview/vaultview/lib/clock"
	"github.com/vaultview/vaultview/lib/testutil"
)

func TestDebouncerFiresOnTrailingEdge(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	var fired atomic.Int64
	debouncer := NewDebouncer(clk, 100*time.Millisecond, func() {
		fired.Add(1)
	})

	debouncer.Reset()
	clk.Advance(99 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("fired before the delay elapsed")
	}
	clk.Advance(time.Millisecond)
	if fired.Load() != 1 {
		t.Fatalf("fired %d times, want 1", fired.Load())
	}
}

func TestDebouncerResetRestartsDelay(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	var fired atomic.Int64
	debouncer := NewDebouncer(clk, 100*time.Millisecond, func() {
		fired.Add(1)
	})

	// A Reset mid-delay pushes the deadline out; the burst collapses
	// to a single trailing callback.
	debouncer.Reset()
	clk.Advance(60 * time.Millisecond)
	debouncer.Reset()
	clk.Advance(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("fired despite mid-delay reset")
	}
	clk.Advance(40 * time.Millisecond)
	if fired.Load() != 1 {
		t.Fatalf("fired %d times, want 1", fired.Load())
	}
}

func TestDebouncerStopCancels(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	var fired atomic.Int64
	debouncer := NewDebouncer(clk, 100*time.Millisecond, func() {
		fired.Add(1)
	})

	debouncer.Reset()
	debouncer.Stop()
	clk.Advance(time.Second)
	if fired.Load() != 0 {
		t.Fatalf("fired %d times after Stop", fired.Load())
	}
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	var fired atomic.Int64
	debouncer := NewDebouncer(clk, 100*time.Millisecond, func() {
		fired.Add(1)
	})

	// Flush with nothing pending is a no-op.
	debouncer.Flush()
	if fired.Load() != 0 {
		t.Fatal("fired on idle Flush")
	}

	debouncer.Reset()
	debouncer.Flush()
	if fired.Load() != 1 {
		t.Fatalf("fired %d times after Flush, want 1", fired.Load())
	}

	// The flushed timer must not fire a second time.
	clk.Advance(time.Second)
	if fired.Load() != 1 {
		t.Fatalf("fired %d times total, want 1", fired.Load())
	}
}

func TestRepeaterFiresEveryInterval(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	var fired atomic.Int64
	repeater := NewRepeater(clk, 50*time.Millisecond, func() {
		fired.Add(1)
	})
	defer repeater.Stop()

	clk.Advance(50 * time.Millisecond)
	testutil.RequireEventually(t, func() bool {
		return fired.Load() == 1
	}, 2*time.Second, "first tick")

	clk.Advance(50 * time.Millisecond)
	testutil.RequireEventually(t, func() bool {
		return fired.Load() == 2
	}, 2*time.Second, "second tick")
}

func TestRepeaterStopHaltsCallbacks(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	var fired atomic.Int64
	repeater := NewRepeater(clk, 50*time.Millisecond, func() {
		fired.Add(1)
	})

	repeater.Stop()
	before := fired.Load()
	clk.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != before {
		t.Errorf("fired after Stop: %d -> %d", before, fired.Load())
	}

	// Stop again is safe.
	repeater.Stop()
}
