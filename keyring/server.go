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
	"os"
	"sync"
	"time"
)

// readTimeout is how long the server waits for a client to send its
// request after connecting. A well-behaved client sends immediately.
const readTimeout = 30 * time.Second

// writeTimeout bounds each response or event write.
const writeTimeout = 10 * time.Second

// maxRequestSize caps a single CBOR request. 4 MB accommodates a bulk
// import of tens of thousands of labels with room to spare.
const maxRequestSize = 4 * 1024 * 1024

// request is the wire envelope for every client request. Only the
// fields relevant to the action are populated.
type request struct {
	Action  string  `cbor:"action"`
	Address Address `cbor:"address,omitempty"`
	Label   string  `cbor:"label,omitempty"`
	Entries []Entry `cbor:"entries,omitempty"`
}

// response is the wire envelope for responses. Data holds the
// action-specific result: an [Identity] for resolve, []Entry for
// list, nothing for mutations.
type response struct {
	OK    bool       `cbor:"ok"`
	Error string     `cbor:"error,omitempty"`
	Data  rawMessage `cbor:"data,omitempty"`
}

// SocketServer serves the keyring protocol on a unix socket. Each
// connection carries one request. Request-response actions (resolve,
// put, clear, import, list) answer and close; the watch action
// answers and then streams [ChangeEvent] values on the same
// connection until the client disconnects or the server shuts down.
type SocketServer struct {
	store      *Store
	socketPath string
	logger     *slog.Logger

	// active tracks in-flight connection handlers so Serve can drain
	// them on shutdown.
	active sync.WaitGroup
}

// NewSocketServer creates a server for the given store and socket
// path. Call Serve to start it.
func NewSocketServer(store *Store, socketPath string, logger *slog.Logger) *SocketServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SocketServer{store: store, socketPath: socketPath, logger: logger}
}

// Serve listens on the unix socket and handles connections until ctx
// is cancelled, then stops accepting and waits for in-flight handlers
// (including watch streams) to finish. Any stale socket file is
// removed before listening, and the socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("keyring socket listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

// handleConnection decodes one request and dispatches it.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// One CBOR value is the whole request; CBOR is self-delimiting
	// so no framing is needed. LimitReader bounds memory use.
	var req request
	if err := newCBORDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			// Client connected but sent nothing.
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	switch req.Action {
	case "resolve":
		identity, err := s.store.Resolve(ctx, req.Address)
		s.reply(conn, identity, err)
	case "put":
		s.reply(conn, nil, s.store.Put(ctx, req.Address, req.Label))
	case "clear":
		s.reply(conn, nil, s.store.Clear(ctx, req.Address))
	case "import":
		s.reply(conn, nil, s.store.Import(ctx, req.Entries))
	case "list":
		entries, err := s.store.List(ctx)
		s.reply(conn, entries, err)
	case "watch":
		s.serveWatch(ctx, conn)
	case "":
		s.writeError(conn, "missing required field: action")
	default:
		s.writeError(conn, fmt.Sprintf("unknown action %q", req.Action))
	}
}

// serveWatch subscribes to the store's change stream and forwards
// every event to the client as a CBOR value, after an initial
// {ok: true} acknowledgment. Returns when the client disconnects, the
// stream closes, or ctx is cancelled.
func (s *SocketServer) serveWatch(ctx context.Context, conn net.Conn) {
	subscription, err := s.store.Changes().Subscribe()
	if err != nil {
		s.writeError(conn, err.Error())
		return
	}
	defer subscription.Cancel()

	if !s.writeSuccess(conn, nil) {
		return
	}

	// Detect client disconnect: the client never writes after the
	// request, so a successful read means protocol misuse and EOF
	// means hangup. Either way the watch ends.
	hangup := make(chan struct{})
	go func() {
		defer close(hangup)
		conn.SetReadDeadline(time.Time{})
		io.Copy(io.Discard, conn)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			return
		case event, ok := <-subscription.Events():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := newCBOREncoder(conn).Encode(event); err != nil {
				s.logger.Debug("watch write failed", "error", err)
				return
			}
		}
	}
}

// reply sends a success response with data, or an error response
// mapping err.Error() onto the wire.
func (s *SocketServer) reply(conn net.Conn, data any, err error) {
	if err != nil {
		s.writeError(conn, err.Error())
		return
	}
	s.writeSuccess(conn, data)
}

// writeSuccess sends {ok: true} with optional data. Reports whether
// the write succeeded.
func (s *SocketServer) writeSuccess(conn net.Conn, data any) bool {
	resp := response{OK: true}
	if data != nil {
		encoded, err := cborMarshal(data)
		if err != nil {
			s.writeError(conn, fmt.Sprintf("encoding response: %v", err))
			return false
		}
		resp.Data = encoded
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := newCBOREncoder(conn).Encode(resp); err != nil {
		s.logger.Debug("response write failed", "error", err)
		return false
	}
	return true
}

// writeError sends {ok: false, error: message}. Write failures are
// logged at debug level; the connection is closing regardless.
func (s *SocketServer) writeError(conn net.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := newCBOREncoder(conn).Encode(response{OK: false, Error: message}); err != nil {
		s.logger.Debug("error response write failed", "error", err)
	}
}
