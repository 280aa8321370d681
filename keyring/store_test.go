// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vaultview/vaultview/lib/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(StoreConfig{
		Path: filepath.Join(t.TempDir(), "labels.db"),
	})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStorePutResolve(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "0xAA", "alice"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	identity, err := store.Resolve(ctx, "0xAA")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.Name != "alice" {
		t.Errorf("Name = %q, want %q", identity.Name, "alice")
	}

	// Case-insensitive lookup: same account, different spelling.
	identity, err = store.Resolve(ctx, "0xaa")
	if err != nil {
		t.Fatalf("Resolve with folded case: %v", err)
	}
	if identity.Name != "alice" {
		t.Errorf("case-folded Name = %q, want %q", identity.Name, "alice")
	}
}

func TestStoreResolveUnknownAddress(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Resolve(context.Background(), "0xBB")
	if !errors.Is(err, ErrUnknownAddress) {
		t.Fatalf("Resolve of unknown address: err = %v, want ErrUnknownAddress", err)
	}
}

func TestStorePutPublishesModify(t *testing.T) {
	store := openTestStore(t)
	sub, err := store.Changes().Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Cancel()

	if err := store.Put(context.Background(), "0xAA", "alice"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	event := testutil.RequireReceive(t, sub.Events(), time.Second, "modify event")
	if event.Kind != EventModify || !event.Address.Equal("0xAA") {
		t.Errorf("event = %+v, want modify for 0xAA", event)
	}
}

func TestStoreClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, "0xAA", "alice"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	sub, err := store.Changes().Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Cancel()

	// Clearing with different casing still removes the row.
	if err := store.Clear(ctx, "0xaa"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	event := testutil.RequireReceive(t, sub.Events(), time.Second, "clear event")
	if event.Kind != EventClear {
		t.Errorf("event kind = %v, want clear", event.Kind)
	}

	if _, err := store.Resolve(ctx, "0xAA"); !errors.Is(err, ErrUnknownAddress) {
		t.Errorf("Resolve after Clear: err = %v, want ErrUnknownAddress", err)
	}

	// Clearing again finds nothing and publishes nothing.
	if err := store.Clear(ctx, "0xAA"); !errors.Is(err, ErrUnknownAddress) {
		t.Errorf("second Clear: err = %v, want ErrUnknownAddress", err)
	}
	select {
	case event := <-sub.Events():
		t.Errorf("unexpected event %+v after no-op clear", event)
	default:
	}
}

func TestStoreImport(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sub, err := store.Changes().Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Cancel()

	entries := []Entry{
		{Address: "0x01", Label: "alice"},
		{Address: "0x02", Label: "bob"},
		{Address: "0x03", Label: "carol"},
	}
	if err := store.Import(ctx, entries); err != nil {
		t.Fatalf("Import: %v", err)
	}

	event := testutil.RequireReceive(t, sub.Events(), time.Second, "import event")
	if event.Kind != EventImport {
		t.Errorf("event kind = %v, want import", event.Kind)
	}
	if !event.Address.IsZero() {
		t.Errorf("import event carries address %q, want zero", event.Address)
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(listed))
	}
	if listed[0].Address != "0x01" || listed[0].Label != "alice" {
		t.Errorf("first entry = %+v", listed[0])
	}

	// Empty import: no event, no error.
	if err := store.Import(ctx, nil); err != nil {
		t.Fatalf("empty Import: %v", err)
	}
	select {
	case event := <-sub.Events():
		t.Errorf("unexpected event %+v after empty import", event)
	default:
	}
}

func TestStoreImportRejectsEmptyAddressAtomically(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Import(ctx, []Entry{
		{Address: "0x01", Label: "alice"},
		{Address: "", Label: "nameless"},
	})
	if err == nil {
		t.Fatal("Import with empty address succeeded")
	}

	// The transaction rolled back: nothing was imported.
	if _, err := store.Resolve(ctx, "0x01"); !errors.Is(err, ErrUnknownAddress) {
		t.Errorf("partial import leaked: Resolve err = %v, want ErrUnknownAddress", err)
	}
}
