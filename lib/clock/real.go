// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Real returns the Clock backed by the time package. All methods
// delegate directly; the only translation is wrapping time.Timer and
// time.Ticker in this package's Timer and Ticker types.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	inner := time.AfterFunc(d, f)
	return &Timer{
		C:     nil,
		stop:  inner.Stop,
		reset: inner.Reset,
	}
}

func (realClock) NewTicker(d time.Duration) *Ticker {
	inner := time.NewTicker(d)
	return &Ticker{
		C:     inner.C,
		stop:  inner.Stop,
		reset: inner.Reset,
	}
}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
