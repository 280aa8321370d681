// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import "sync"

// subscriptionBuffer is the per-subscriber channel capacity. A
// subscriber that falls this far behind loses events for itself only;
// the view layer re-resolves on the next event it does see, so a
// dropped notification costs staleness, not correctness.
const subscriptionBuffer = 64

// Stream is a multi-subscriber broadcast hub for [ChangeEvent].
// Events are live: Publish delivers to the subscribers present at
// that moment and retains nothing. Safe for concurrent use.
type Stream struct {
	mu          sync.Mutex
	subscribers map[uint64]chan ChangeEvent
	nextID      uint64
	closed      bool
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{subscribers: make(map[uint64]chan ChangeEvent)}
}

// Subscribe registers a new subscriber and returns its Subscription.
// Returns ErrStreamClosed if the stream has been closed — the one
// setup failure a consumer cannot work around.
func (s *Stream) Subscribe() (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}
	id := s.nextID
	s.nextID++
	events := make(chan ChangeEvent, subscriptionBuffer)
	s.subscribers[id] = events
	return &Subscription{stream: s, id: id, events: events}, nil
}

// Publish delivers event to every current subscriber. Sends are
// non-blocking: a subscriber with a full buffer misses this event.
// Publishing to a closed stream is a no-op.
func (s *Stream) Publish(event ChangeEvent) {
	// Deliver under the lock so a concurrent Cancel cannot close a
	// channel mid-send. Sends never block, so the lock is held only
	// briefly.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, subscriber := range s.subscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}

// Close shuts the stream down: all subscriber channels are closed and
// future Subscribe calls fail. Idempotent.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, subscriber := range s.subscribers {
		close(subscriber)
		delete(s.subscribers, id)
	}
}

// Subscription is one subscriber's handle on a Stream. Receive events
// from Events(); call Cancel when done. Exactly one goroutine should
// consume Events.
type Subscription struct {
	stream *Stream
	id     uint64
	events chan ChangeEvent
	once   sync.Once
}

// Events returns the subscriber's channel. The channel is closed by
// Cancel or by Stream.Close, whichever happens first.
func (sub *Subscription) Events() <-chan ChangeEvent {
	return sub.events
}

// Cancel removes the subscription and closes its channel. After
// Cancel returns, no further events are delivered. Idempotent and
// safe to call concurrently with Publish.
func (sub *Subscription) Cancel() {
	sub.once.Do(func() {
		sub.stream.mu.Lock()
		defer sub.stream.mu.Unlock()
		if _, present := sub.stream.subscribers[sub.id]; present {
			delete(sub.stream.subscribers, sub.id)
			close(sub.events)
		}
	})
}
