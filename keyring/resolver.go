// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import "context"

// Resolver is what the view layer consumes: asynchronous address
// resolution plus the change stream that invalidates resolved labels.
// [Store] implements it locally; [RemoteKeyring] implements it against
// the daemon.
type Resolver interface {
	// Resolve looks up the identity for an address. Returns
	// ErrUnknownAddress (possibly wrapped) when the label book has no
	// entry for it.
	Resolve(ctx context.Context, address Address) (Identity, error)

	// Changes returns the resolver's change stream. The same Stream
	// is returned on every call; each consumer subscribes to it
	// independently.
	Changes() *Stream
}
