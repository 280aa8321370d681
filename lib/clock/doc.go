// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source. Real() delegates
// to the time package; Fake() gives tests full control over when
// timers fire. The view package's debouncers and repeaters take a
// Clock so their tests never sleep.
package clock
