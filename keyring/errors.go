// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import "errors"

// ErrUnknownAddress is returned by Resolve when the address has no
// entry in the label book. Callers that only care about "no visible
// label" treat this the same as any other resolution failure; callers
// managing the book itself (the daemon's clear handler, for example)
// test for it with errors.Is.
var ErrUnknownAddress = errors.New("keyring: unknown address")

// ErrStreamClosed is returned by Stream.Subscribe after the stream has
// been closed. A binding that receives it cannot function — there will
// never be change notifications — so the error propagates to whoever
// is constructing the binding rather than being absorbed.
var ErrStreamClosed = errors.New("keyring: change stream closed")
