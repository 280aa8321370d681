// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"fmt"
	"strings"
	"time"
)

// Address is an opaque wallet address. Addresses are compared
// case-insensitively everywhere in VaultView: hex addresses arrive
// with mixed checksum casing, and the same account must mean the same
// label regardless of how the address was spelled.
//
// The zero value is invalid; construct with NewAddress.
type Address string

// NewAddress validates and returns an Address. Leading and trailing
// whitespace is rejected rather than trimmed so that callers notice
// malformed input at the boundary.
func NewAddress(raw string) (Address, error) {
	if raw == "" {
		return "", fmt.Errorf("invalid address: empty")
	}
	if strings.TrimSpace(raw) != raw {
		return "", fmt.Errorf("invalid address %q: surrounding whitespace", raw)
	}
	return Address(raw), nil
}

// Equal reports whether two addresses identify the same account,
// ignoring case.
func (a Address) Equal(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}

// IsZero reports whether the address is the invalid zero value.
func (a Address) IsZero() bool { return a == "" }

// String returns the address as given (original casing preserved).
func (a Address) String() string { return string(a) }

// MarshalText implements encoding.TextMarshaler so addresses travel
// through CBOR and JSON as plain strings.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := NewAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// foldAddress returns the canonical case-folded form of an address,
// for map keys and duplicate detection.
func foldAddress(a Address) string {
	return strings.ToLower(string(a))
}

// Identity is the result of resolving an address. Name is the stored
// label; an empty Name means the keyring has an entry for the address
// but no label text.
type Identity struct {
	Name string `cbor:"name"`
}

// Entry is one row of the label book, as listed, imported, and
// snapshotted.
type Entry struct {
	Address   Address   `cbor:"address" yaml:"address"`
	Label     string    `cbor:"label" yaml:"label"`
	UpdatedAt time.Time `cbor:"updated_at,omitempty" yaml:"-"`
}

// EventKind classifies a change to the label book.
type EventKind int

const (
	// EventModify means one address's label was set or changed. The
	// event's Address names the affected account.
	EventModify EventKind = iota
	// EventClear means a label was removed. The event's Address
	// names the affected account.
	EventClear
	// EventImport means a bulk import ran. Any address may have
	// gained or changed a label; the event's Address is zero.
	EventImport
)

// String returns the wire name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventModify:
		return "modify"
	case EventClear:
		return "clear"
	case EventImport:
		return "import"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler so kinds travel as
// their wire names.
func (k EventKind) MarshalText() ([]byte, error) {
	switch k {
	case EventModify, EventClear, EventImport:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("unknown event kind %d", int(k))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EventKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "modify":
		*k = EventModify
	case "clear":
		*k = EventClear
	case "import":
		*k = EventImport
	default:
		return fmt.Errorf("unknown event kind %q", text)
	}
	return nil
}

// ChangeEvent is one label-book change notification. Events are
// transient: published to current subscribers and then gone.
type ChangeEvent struct {
	// Address is the affected account for modify and clear events.
	// Zero for import events, which affect an unknown set of
	// addresses.
	Address Address `cbor:"address,omitempty"`

	// Kind says what happened.
	Kind EventKind `cbor:"kind"`
}
