// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vaultview/vaultview/keyring"
	"github.com/vaultview/vaultview/lib/testutil"
)

// scriptedResolver hands each Resolve call to the test as a
// resolveCall; the test decides when and with what each call
// completes. This makes overlapping-resolution orderings fully
// deterministic.
type scriptedResolver struct {
	stream *keyring.Stream
	calls  chan *resolveCall
}

type resolveCall struct {
	address keyring.Address
	result  chan resolveResult
}

type resolveResult struct {
	identity keyring.Identity
	err      error
}

func newScriptedResolver() *scriptedResolver {
	return &scriptedResolver{
		stream: keyring.NewStream(),
		calls:  make(chan *resolveCall, 16),
	}
}

func (r *scriptedResolver) Resolve(ctx context.Context, address keyring.Address) (keyring.Identity, error) {
	call := &resolveCall{address: address, result: make(chan resolveResult, 1)}
	r.calls <- call
	select {
	case res := <-call.result:
		return res.identity, res.err
	case <-ctx.Done():
		return keyring.Identity{}, ctx.Err()
	}
}

func (r *scriptedResolver) Changes() *keyring.Stream { return r.stream }

func (c *resolveCall) succeed(name string) {
	c.result <- resolveResult{identity: keyring.Identity{Name: name}}
}

func (c *resolveCall) fail() {
	c.result <- resolveResult{err: keyring.ErrUnknownAddress}
}

// requireName polls until the binding shows the wanted label.
func requireName(t *testing.T, binding *IdentityBinding, want string) {
	t.Helper()
	testutil.RequireEventually(t, func() bool {
		name, ok := binding.Name()
		return ok && name == want
	}, 2*time.Second, "waiting for label %q", want)
}

// requireNoName polls until the binding shows no label.
func requireNoName(t *testing.T, binding *IdentityBinding) {
	t.Helper()
	testutil.RequireEventually(t, func() bool {
		_, ok := binding.Name()
		return !ok
	}, 2*time.Second, "waiting for label to clear")
}

func TestBindResolvesInitially(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0x1")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}
	defer binding.Close()

	call := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")
	if !call.address.Equal("0x1") {
		t.Errorf("resolved address %q, want 0x1", call.address)
	}
	call.succeed("Alice")
	requireName(t, binding, "Alice")
}

func TestRepeatedMountsConverge(t *testing.T) {
	resolver := newScriptedResolver()

	// A deterministic resolver yields the same label no matter how
	// many times a binding mounts for the address.
	go func() {
		for call := range resolver.calls {
			call.succeed("Alice")
		}
	}()

	for i := 0; i < 5; i++ {
		binding, err := BindIdentity(resolver, "0x1")
		if err != nil {
			t.Fatalf("BindIdentity mount %d: %v", i, err)
		}
		requireName(t, binding, "Alice")
		binding.Close()
	}
	close(resolver.calls)
}

func TestLastInitiatedResolutionWins(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0x1")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}
	defer binding.Close()

	first := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")

	// A modify for the bound address starts a second resolution while
	// the first is still outstanding.
	resolver.stream.Publish(keyring.ChangeEvent{Address: "0x1", Kind: keyring.EventModify})
	second := testutil.RequireReceive(t, resolver.calls, time.Second, "re-resolution")

	// Completions arrive in reverse: the second (newer) lands first,
	// then the stale first. The stale result must be discarded.
	second.succeed("Current")
	requireName(t, binding, "Current")

	first.succeed("Stale")
	time.Sleep(20 * time.Millisecond)
	if name, ok := binding.Name(); !ok || name != "Current" {
		t.Errorf("label = %q (ok=%v) after stale completion, want Current", name, ok)
	}
}

func TestClearBeatsInFlightResolution(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0x1")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}
	defer binding.Close()

	initial := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")
	initial.succeed("Alice")
	requireName(t, binding, "Alice")

	// Start a resolution, then clear while it is outstanding.
	resolver.stream.Publish(keyring.ChangeEvent{Address: "0x1", Kind: keyring.EventModify})
	outstanding := testutil.RequireReceive(t, resolver.calls, time.Second, "re-resolution")

	resolver.stream.Publish(keyring.ChangeEvent{Kind: keyring.EventClear})
	requireNoName(t, binding)

	// The outstanding resolution completing cannot resurrect the
	// label: the clear advanced the generation.
	outstanding.succeed("Alice")
	time.Sleep(20 * time.Millisecond)
	if name, ok := binding.Name(); ok {
		t.Errorf("label = %q after clear, want none", name)
	}
}

func TestModifyFiltersByAddressCaseInsensitively(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0xAA")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}
	defer binding.Close()

	initial := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")
	initial.succeed("Alice")
	requireName(t, binding, "Alice")

	// A modify for some other address triggers nothing.
	resolver.stream.Publish(keyring.ChangeEvent{Address: "0xBB", Kind: keyring.EventModify})
	testutil.RequireNoReceive(t, resolver.calls, 50*time.Millisecond, "resolution for foreign address")
	if name, ok := binding.Name(); !ok || name != "Alice" {
		t.Errorf("label changed on foreign modify: %q (ok=%v)", name, ok)
	}

	// Same address in different casing does trigger.
	resolver.stream.Publish(keyring.ChangeEvent{Address: "0xaa", Kind: keyring.EventModify})
	call := testutil.RequireReceive(t, resolver.calls, time.Second, "case-folded re-resolution")
	call.succeed("Alice (updated)")
	requireName(t, binding, "Alice (updated)")
}

func TestImportTriggersUnconditionally(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0x1")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}
	defer binding.Close()

	initial := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")
	initial.fail()

	// The failed resolution leaves no label; an import retries.
	resolver.stream.Publish(keyring.ChangeEvent{Kind: keyring.EventImport})
	call := testutil.RequireReceive(t, resolver.calls, time.Second, "post-import resolution")
	call.succeed("Alice")
	requireName(t, binding, "Alice")
}

func TestFailedResolutionKeepsPreviousLabel(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0x1")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}
	defer binding.Close()

	initial := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")
	initial.succeed("Alice")
	requireName(t, binding, "Alice")

	resolver.stream.Publish(keyring.ChangeEvent{Address: "0x1", Kind: keyring.EventModify})
	retry := testutil.RequireReceive(t, resolver.calls, time.Second, "re-resolution")
	retry.fail()

	time.Sleep(20 * time.Millisecond)
	if name, ok := binding.Name(); !ok || name != "Alice" {
		t.Errorf("label = %q (ok=%v) after failed re-resolution, want Alice kept", name, ok)
	}
}

func TestCloseStopsAllMutation(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0x1")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}

	initial := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")
	initial.succeed("Alice")
	requireName(t, binding, "Alice")

	binding.Close()

	// Events after close are dead: no new resolution, no mutation.
	resolver.stream.Publish(keyring.ChangeEvent{Kind: keyring.EventClear})
	resolver.stream.Publish(keyring.ChangeEvent{Address: "0x1", Kind: keyring.EventModify})
	testutil.RequireNoReceive(t, resolver.calls, 50*time.Millisecond, "resolution after close")

	if name, ok := binding.Name(); !ok || name != "Alice" {
		t.Errorf("state mutated after close: %q (ok=%v)", name, ok)
	}

	// Close again is a no-op.
	binding.Close()
}

func TestLateCompletionAfterCloseIsDiscarded(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0x1")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}

	outstanding := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")
	binding.Close()

	outstanding.succeed("TooLate")
	time.Sleep(20 * time.Millisecond)
	if name, ok := binding.Name(); ok {
		t.Errorf("late completion applied after close: %q", name)
	}
}

func TestRebindSwitchesAddress(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0x1")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}
	defer binding.Close()

	old := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")

	if err := binding.Rebind(resolver, "0x2"); err != nil {
		t.Fatalf("Rebind: %v", err)
	}

	fresh := testutil.RequireReceive(t, resolver.calls, time.Second, "post-rebind resolution")
	if !fresh.address.Equal("0x2") {
		t.Errorf("post-rebind resolution for %q, want 0x2", fresh.address)
	}

	// The superseded activation's resolution completing is discarded.
	old.succeed("OldLabel")
	fresh.succeed("NewLabel")
	requireName(t, binding, "NewLabel")

	// Modifies for the old address no longer trigger; for the new
	// one they do.
	resolver.stream.Publish(keyring.ChangeEvent{Address: "0x1", Kind: keyring.EventModify})
	testutil.RequireNoReceive(t, resolver.calls, 50*time.Millisecond, "resolution for unbound address")

	resolver.stream.Publish(keyring.ChangeEvent{Address: "0x2", Kind: keyring.EventModify})
	call := testutil.RequireReceive(t, resolver.calls, time.Second, "resolution for rebound address")
	call.succeed("NewLabel")
}

func TestBindFailsWhenStreamClosed(t *testing.T) {
	resolver := newScriptedResolver()
	resolver.stream.Close()

	if _, err := BindIdentity(resolver, "0x1"); err == nil {
		t.Fatal("BindIdentity succeeded against a closed change stream")
	}
}

func TestNotifyFiresOnLabelChanges(t *testing.T) {
	resolver := newScriptedResolver()
	var notifications atomic.Int64
	binding, err := BindIdentity(resolver, "0x1", WithNotify(func() {
		notifications.Add(1)
	}))
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}
	defer binding.Close()

	call := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")
	call.succeed("Alice")
	requireName(t, binding, "Alice")
	testutil.RequireEventually(t, func() bool {
		return notifications.Load() == 1
	}, time.Second, "notify after resolution")

	resolver.stream.Publish(keyring.ChangeEvent{Kind: keyring.EventClear})
	testutil.RequireEventually(t, func() bool {
		return notifications.Load() == 2
	}, time.Second, "notify after clear")
}

// TestLabelLifecycleScenario walks the full mount → clear → import →
// unmount sequence.
func TestLabelLifecycleScenario(t *testing.T) {
	resolver := newScriptedResolver()
	binding, err := BindIdentity(resolver, "0x1")
	if err != nil {
		t.Fatalf("BindIdentity: %v", err)
	}

	// Mount: resolver returns Alice.
	call := testutil.RequireReceive(t, resolver.calls, time.Second, "initial resolution")
	call.succeed("Alice")
	requireName(t, binding, "Alice")

	// Keyring cleared: label drops.
	resolver.stream.Publish(keyring.ChangeEvent{Address: "0x1", Kind: keyring.EventClear})
	requireNoName(t, binding)

	// Import restores the label book; the binding re-resolves.
	resolver.stream.Publish(keyring.ChangeEvent{Kind: keyring.EventImport})
	call = testutil.RequireReceive(t, resolver.calls, time.Second, "post-import resolution")
	call.succeed("Alice")
	requireName(t, binding, "Alice")

	// Unmount: later events have no observable effect.
	binding.Close()
	resolver.stream.Publish(keyring.ChangeEvent{Address: "0x1", Kind: keyring.EventClear})
	time.Sleep(20 * time.Millisecond)
	if name, ok := binding.Name(); !ok || name != "Alice" {
		t.Errorf("state mutated after unmount: %q (ok=%v)", name, ok)
	}
}
