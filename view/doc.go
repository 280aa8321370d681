// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

// Package view provides the building blocks VaultView's console is
// assembled from: live data bindings and interaction helpers for
// bubbletea models.
//
// The central type is [IdentityBinding], which keeps one address's
// resolved label current against a [keyring.Resolver]: it resolves
// once on bind, subscribes to the keyring's change stream, and
// re-resolves or clears as change events arrive. Overlapping
// resolutions are serialized by a generation counter so the label
// always reflects the most recently initiated lookup, never a slow
// straggler. [AddressList] wraps a set of bindings into a scrolling
// list component.
//
// Around the binding sit the interaction helpers: [KeyMap] (bubbles
// key bindings for navigation), [Wizard] (a guarded step sequence for
// multi-page flows), [Task] (promise-style async work feeding a
// bubbletea update loop), [Debouncer] and [Repeater] (clock-driven
// timers), [Region] (mouse hit-testing for dismiss-on-outside-click),
// and [DecodeShareLink] (the vaultview: label-sharing link format).
package view
