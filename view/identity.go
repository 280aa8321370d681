// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/vaultview/vaultview/keyring"
)

// IdentityBinding keeps one address's resolved label current. On bind
// it subscribes to the resolver's change stream and starts the
// initial resolution; from then on it reacts to change events:
//
//   - modify for the bound address: re-resolve
//   - clear: drop the label immediately, regardless of address (a
//     clear means the keyring was wiped or locked)
//   - import: re-resolve unconditionally (an import can give any
//     address a label)
//
// Resolutions are asynchronous and may overlap; a generation counter
// decides which completion wins. Every initiated resolution, every
// activation, every rebind, and every clear advances the generation,
// and a resolution only applies if the generation it started under is
// still current. The visible label
// therefore always corresponds to the most recently initiated
// resolution that was not superseded — a slow first lookup can never
// overwrite the result of a later one.
//
// Resolution failures are absorbed: the previous label stays in
// place, and the absence of a label is the only signal the view ever
// shows. The one fatal error is a failed subscription to the change
// stream, reported by BindIdentity and Rebind, because a binding
// without change notifications would serve stale labels forever.
//
// All methods are safe for concurrent use.
type IdentityBinding struct {
	mu sync.Mutex

	resolver keyring.Resolver
	address  keyring.Address

	// generation tags the most recently initiated resolution (or
	// clear, or activation). Captured when a resolution starts,
	// compared when it completes; stale completions are dropped.
	generation uint64

	label    string
	hasLabel bool

	subscription *keyring.Subscription
	cancelCtx    context.CancelFunc
	activeCtx    context.Context
	dispatchDone chan struct{}
	closed       bool

	notify func()
}

// IdentityOption configures a binding at construction.
type IdentityOption func(*IdentityBinding)

// WithNotify registers a callback invoked (without internal locks
// held) after every observable label change: applied resolutions and
// clears. A bubbletea model typically passes a closure that sends a
// repaint message into its program.
func WithNotify(fn func()) IdentityOption {
	return func(b *IdentityBinding) { b.notify = fn }
}

// BindIdentity mounts a binding for address against resolver. The
// initial resolution runs in the background; Name reports it once it
// lands. Returns an error only if subscribing to the change stream
// fails.
func BindIdentity(resolver keyring.Resolver, address keyring.Address, opts ...IdentityOption) (*IdentityBinding, error) {
	if resolver == nil {
		return nil, fmt.Errorf("binding identity: nil resolver")
	}
	if address.IsZero() {
		return nil, fmt.Errorf("binding identity: empty address")
	}

	binding := &IdentityBinding{resolver: resolver, address: address}
	for _, opt := range opts {
		opt(binding)
	}

	binding.mu.Lock()
	defer binding.mu.Unlock()
	if err := binding.activate(); err != nil {
		return nil, err
	}
	return binding, nil
}

// Name returns the current label. ok is false while unresolved, after
// a clear event, and when the keyring has an entry with no label text.
func (b *IdentityBinding) Name() (label string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label, b.hasLabel
}

// Address returns the currently bound address.
func (b *IdentityBinding) Address() keyring.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.address
}

// Rebind switches the binding to a new address and/or resolver, as
// one seamless re-subscription: the old subscription is cancelled
// synchronously, in-flight resolutions are invalidated, and the
// binding re-activates with a fresh resolution against the new
// inputs. The previous label is dropped — a different address's label
// must never show, even briefly.
//
// If the new subscription fails the binding is left inactive and the
// error returned; the caller owns recovery (typically by closing the
// binding and reporting the resolver as down).
func (b *IdentityBinding) Rebind(resolver keyring.Resolver, address keyring.Address) error {
	if resolver == nil {
		return fmt.Errorf("rebinding identity: nil resolver")
	}
	if address.IsZero() {
		return fmt.Errorf("rebinding identity: empty address")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("rebinding identity: binding is closed")
	}

	b.deactivate()
	b.resolver = resolver
	b.address = address
	b.label = ""
	b.hasLabel = false
	return b.activate()
}

// Close tears the binding down: the subscription is cancelled
// synchronously and any in-flight resolution is invalidated, so no
// event or late completion mutates state afterwards. Idempotent.
func (b *IdentityBinding) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	done := b.dispatchDone
	b.deactivate()
	b.mu.Unlock()

	// Join the dispatch goroutine outside the lock; it may be inside
	// handleEvent waiting for the mutex.
	if done != nil {
		<-done
	}
}

// activate enters the active state: advance the generation, subscribe
// to the change stream, start the dispatch goroutine and the initial
// resolution. Caller holds b.mu.
func (b *IdentityBinding) activate() error {
	b.generation++

	subscription, err := b.resolver.Changes().Subscribe()
	if err != nil {
		return fmt.Errorf("subscribing to change stream: %w", err)
	}
	b.subscription = subscription

	ctx, cancel := context.WithCancel(context.Background())
	b.activeCtx = ctx
	b.cancelCtx = cancel

	done := make(chan struct{})
	b.dispatchDone = done
	go b.dispatch(subscription, done)

	b.startResolution()
	return nil
}

// deactivate leaves the active state: cancel the subscription (which
// closes its channel and ends the dispatch goroutine) and advance the
// generation so in-flight resolutions are discarded on arrival.
// Caller holds b.mu.
func (b *IdentityBinding) deactivate() {
	if b.subscription != nil {
		b.subscription.Cancel()
		b.subscription = nil
	}
	if b.cancelCtx != nil {
		b.cancelCtx()
		b.cancelCtx = nil
		b.activeCtx = nil
	}
	b.generation++
	b.dispatchDone = nil
}

// dispatch consumes one subscription's events in stream order until
// its channel closes. Events are handled synchronously, one at a
// time, so event ordering is exactly the stream's.
func (b *IdentityBinding) dispatch(subscription *keyring.Subscription, done chan struct{}) {
	defer close(done)
	for event := range subscription.Events() {
		b.handleEvent(subscription, event)
	}
}

// handleEvent applies one change event to the binding's state.
func (b *IdentityBinding) handleEvent(from *keyring.Subscription, event keyring.ChangeEvent) {
	b.mu.Lock()

	// Events buffered before a Cancel can still be delivered after
	// the channel closes; anything not from the current subscription
	// belongs to a superseded activation and must not act.
	if b.closed || b.subscription != from {
		b.mu.Unlock()
		return
	}

	switch event.Kind {
	case keyring.EventClear:
		// A clear wins over any in-flight resolution: advancing the
		// generation turns those resolutions stale on arrival.
		b.generation++
		b.label = ""
		b.hasLabel = false
		notify := b.notify
		b.mu.Unlock()
		if notify != nil {
			notify()
		}
		return

	case keyring.EventModify:
		if event.Address.Equal(b.address) {
			b.startResolution()
		}

	case keyring.EventImport:
		b.startResolution()
	}

	b.mu.Unlock()
}

// startResolution launches one asynchronous resolution for the
// current address. Initiating a resolution advances the generation,
// so any resolution still in flight is superseded: completions apply
// in initiation order no matter what order they arrive in. Caller
// holds b.mu.
func (b *IdentityBinding) startResolution() {
	b.generation++
	generation := b.generation
	resolver := b.resolver
	address := b.address
	ctx := b.activeCtx

	go func() {
		identity, err := resolver.Resolve(ctx, address)

		b.mu.Lock()
		if b.closed || generation != b.generation {
			// Superseded by a newer resolution, a clear, a rebind,
			// or teardown. Not an error; the designed race outcome.
			b.mu.Unlock()
			return
		}
		if err != nil {
			// Unresolvable (or provider trouble — indistinguishable,
			// deliberately): keep whatever label we had.
			b.mu.Unlock()
			return
		}
		b.label = identity.Name
		b.hasLabel = identity.Name != ""
		notify := b.notify
		b.mu.Unlock()

		if notify != nil {
			notify()
		}
	}()
}
