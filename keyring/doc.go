// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

// Package keyring manages the address label book: the mapping from
// wallet addresses to the human-readable labels the console displays.
//
// The package has three layers. [Resolver] is the interface the view
// layer consumes: resolve one address to its [Identity] plus a live
// [Stream] of [ChangeEvent] notifications for reacting to label
// changes. [Store] implements Resolver against a local SQLite label
// book, publishing a change event for every mutation. [RemoteKeyring]
// implements Resolver against a keyring daemon over a CBOR/unix-socket
// protocol served by [SocketServer], with the change stream fed by a
// long-lived watch connection.
//
// Change events are live and non-replayed: a subscriber only observes
// events published after it subscribed, and nothing is persisted or
// queued for late subscribers. Three kinds exist: [EventModify] (one
// address's label changed or was set), [EventClear] (a label was
// removed), and [EventImport] (a bulk import ran — any address may
// have gained a label).
//
// Label books move between machines as YAML import files
// ([ReadImportFile]) or as compressed binary snapshots
// ([WriteSnapshot] / [ReadSnapshot]).
package keyring
