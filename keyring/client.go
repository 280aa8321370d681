// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// dialTimeout bounds the unix socket connect. The daemon is local, so
// anything slow means it is not running.
const dialTimeout = 5 * time.Second

// watchRetryDelay is the pause between reconnect attempts after the
// watch connection drops. Events published while disconnected are
// lost (the stream is live, not replayed); consumers re-resolve on
// the next event they do see.
const watchRetryDelay = time.Second

// RemoteKeyring is a [Resolver] backed by a keyring daemon's unix
// socket. Each request-response call dials a fresh connection; the
// change stream rides a single long-lived watch connection maintained
// by a background goroutine, which reconnects if the daemon restarts.
//
// Safe for concurrent use. Call Close to stop the watcher and release
// the stream.
type RemoteKeyring struct {
	socketPath string
	logger     *slog.Logger
	stream     *Stream

	cancelWatch context.CancelFunc
	watcherDone chan struct{}
	closeOnce   sync.Once
}

// DialKeyring connects to the daemon at socketPath and establishes
// the watch connection. A daemon that cannot be reached or refuses
// the watch is a setup failure and is returned here — a console
// without change notifications would silently show stale labels.
func DialKeyring(ctx context.Context, socketPath string, logger *slog.Logger) (*RemoteKeyring, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	k := &RemoteKeyring{
		socketPath:  socketPath,
		logger:      logger,
		stream:      NewStream(),
		watcherDone: make(chan struct{}),
	}

	// Establish the first watch connection synchronously so setup
	// failures surface to the caller instead of being swallowed by
	// the retry loop.
	conn, err := k.openWatch()
	if err != nil {
		return nil, fmt.Errorf("establishing keyring watch: %w", err)
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	k.cancelWatch = cancel
	go k.runWatcher(watchCtx, conn)
	return k, nil
}

// Resolve implements [Resolver] over the socket. A daemon-side
// unknown-address failure is surfaced as ErrUnknownAddress.
func (k *RemoteKeyring) Resolve(ctx context.Context, address Address) (Identity, error) {
	var identity Identity
	err := k.call(ctx, request{Action: "resolve", Address: address}, &identity)
	if err != nil {
		return Identity{}, fmt.Errorf("resolving %s: %w", address, err)
	}
	return identity, nil
}

// Changes implements [Resolver]. The stream is fed by the watch
// connection; it closes when the keyring is closed.
func (k *RemoteKeyring) Changes() *Stream {
	return k.stream
}

// Put sets a label via the daemon.
func (k *RemoteKeyring) Put(ctx context.Context, address Address, label string) error {
	return k.call(ctx, request{Action: "put", Address: address, Label: label}, nil)
}

// Clear removes a label via the daemon.
func (k *RemoteKeyring) Clear(ctx context.Context, address Address) error {
	return k.call(ctx, request{Action: "clear", Address: address}, nil)
}

// Import bulk-imports entries via the daemon.
func (k *RemoteKeyring) Import(ctx context.Context, entries []Entry) error {
	return k.call(ctx, request{Action: "import", Entries: entries}, nil)
}

// List fetches every label book entry from the daemon.
func (k *RemoteKeyring) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := k.call(ctx, request{Action: "list"}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Close stops the watch goroutine and closes the change stream.
// Idempotent.
func (k *RemoteKeyring) Close() {
	k.closeOnce.Do(func() {
		k.cancelWatch()
		<-k.watcherDone
		k.stream.Close()
	})
}

// call performs one request-response cycle on a fresh connection,
// decoding the response data into result when result is non-nil.
func (k *RemoteKeyring) call(ctx context.Context, req request, result any) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", k.socketPath)
	if err != nil {
		return fmt.Errorf("dialing keyring at %s: %w", k.socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := newCBOREncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("sending %s request: %w", req.Action, err)
	}

	var resp response
	if err := newCBORDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("reading %s response: %w", req.Action, err)
	}
	if !resp.OK {
		return remoteError(resp.Error)
	}
	if result != nil && len(resp.Data) > 0 {
		if err := cborUnmarshal(resp.Data, result); err != nil {
			return fmt.Errorf("decoding %s response: %w", req.Action, err)
		}
	}
	return nil
}

// remoteError maps a daemon error string back onto this package's
// sentinel errors where recognizable, so errors.Is works across the
// socket boundary.
func remoteError(message string) error {
	if strings.Contains(message, ErrUnknownAddress.Error()) {
		return ErrUnknownAddress
	}
	return errors.New(message)
}

// openWatch dials the daemon, sends the watch request, and reads the
// acknowledgment. The returned connection then carries a sequence of
// CBOR-encoded ChangeEvents.
func (k *RemoteKeyring) openWatch() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", k.socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dialing keyring at %s: %w", k.socketPath, err)
	}

	conn.SetDeadline(time.Now().Add(dialTimeout))
	if err := newCBOREncoder(conn).Encode(request{Action: "watch"}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending watch request: %w", err)
	}
	var resp response
	if err := newCBORDecoder(conn).Decode(&resp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading watch acknowledgment: %w", err)
	}
	if !resp.OK {
		conn.Close()
		return nil, remoteError(resp.Error)
	}
	conn.SetDeadline(time.Time{})
	return conn, nil
}

// runWatcher forwards events from the watch connection into the local
// stream, reconnecting with a short delay whenever the connection
// drops, until ctx is cancelled.
func (k *RemoteKeyring) runWatcher(ctx context.Context, conn net.Conn) {
	defer close(k.watcherDone)
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	// Close the current connection when ctx ends so the blocking
	// Decode below unblocks promptly.
	var connMu sync.Mutex
	go func() {
		<-ctx.Done()
		connMu.Lock()
		if conn != nil {
			conn.Close()
		}
		connMu.Unlock()
	}()

	for {
		decoder := newCBORDecoder(conn)
		for {
			var event ChangeEvent
			if err := decoder.Decode(&event); err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, io.EOF) {
					k.logger.Debug("keyring watch read failed", "error", err)
				}
				break
			}
			k.stream.Publish(event)
		}

		connMu.Lock()
		conn.Close()
		conn = nil
		connMu.Unlock()

		// Reconnect loop. The daemon may be restarting; keep trying
		// until it comes back or we are closed.
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(watchRetryDelay):
			}
			next, err := k.openWatch()
			if err != nil {
				k.logger.Debug("keyring watch reconnect failed", "error", err)
				continue
			}
			connMu.Lock()
			if ctx.Err() != nil {
				next.Close()
				connMu.Unlock()
				return
			}
			conn = next
			connMu.Unlock()
			k.logger.Info("keyring watch reconnected")
			break
		}
	}
}

var _ Resolver = (*RemoteKeyring)(nil)
