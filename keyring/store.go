// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/vaultview/vaultview/lib/clock"
	"github.com/vaultview/vaultview/lib/sqlitepool"
)

// storeSchema creates the label book table. Addresses collate NOCASE
// so the database's idea of "same account" matches Address.Equal.
const storeSchema = `
CREATE TABLE IF NOT EXISTS labels (
	address    TEXT PRIMARY KEY COLLATE NOCASE,
	label      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// StoreConfig holds the parameters for opening a Store.
type StoreConfig struct {
	// Path is the sqlite database file. Required. ":memory:" works
	// for tests.
	Path string

	// Logger receives operational messages. Nil discards them.
	Logger *slog.Logger

	// Clock stamps label updates. Nil means the real clock.
	Clock clock.Clock
}

// Store is the local label book: a sqlite-backed implementation of
// [Resolver] that publishes a [ChangeEvent] for every mutation. Safe
// for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	stream *Stream
	clock  clock.Clock
	logger *slog.Logger
}

// OpenStore opens (creating if needed) the label book at cfg.Path.
// The caller must Close the store when done.
func OpenStore(cfg StoreConfig) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	poolSize := 0
	if cfg.Path == ":memory:" {
		poolSize = 1
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Schema:   storeSchema,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening label book: %w", err)
	}

	return &Store{
		pool:   pool,
		stream: NewStream(),
		clock:  clk,
		logger: logger,
	}, nil
}

// Resolve implements [Resolver]. Returns ErrUnknownAddress when the
// address has no row.
func (s *Store) Resolve(ctx context.Context, address Address) (Identity, error) {
	if address.IsZero() {
		return Identity{}, fmt.Errorf("resolving: %w", ErrUnknownAddress)
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Identity{}, err
	}
	defer s.pool.Put(conn)

	var label string
	var found bool
	err = sqlitex.Execute(conn, "SELECT label FROM labels WHERE address = ?", &sqlitex.ExecOptions{
		Args: []any{string(address)},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			label = stmt.ColumnText(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return Identity{}, fmt.Errorf("resolving %s: %w", address, err)
	}
	if !found {
		return Identity{}, fmt.Errorf("resolving %s: %w", address, ErrUnknownAddress)
	}
	return Identity{Name: label}, nil
}

// Changes implements [Resolver].
func (s *Store) Changes() *Stream {
	return s.stream
}

// Put sets the label for an address, inserting or replacing, and
// publishes an EventModify.
func (s *Store) Put(ctx context.Context, address Address, label string) error {
	if address.IsZero() {
		return fmt.Errorf("putting label: empty address")
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO labels (address, label, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET label = excluded.label, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{
			Args: []any{string(address), label, s.clock.Now().Unix()},
		})
	if err != nil {
		return fmt.Errorf("putting label for %s: %w", address, err)
	}

	s.stream.Publish(ChangeEvent{Address: address, Kind: EventModify})
	return nil
}

// Clear removes the label for an address and publishes an EventClear.
// Returns ErrUnknownAddress if there was nothing to remove (no event
// is published in that case).
func (s *Store) Clear(ctx context.Context, address Address) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM labels WHERE address = ?", &sqlitex.ExecOptions{
		Args: []any{string(address)},
	})
	if err != nil {
		return fmt.Errorf("clearing label for %s: %w", address, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("clearing label for %s: %w", address, ErrUnknownAddress)
	}

	s.stream.Publish(ChangeEvent{Address: address, Kind: EventClear})
	return nil
}

// Import bulk-upserts entries in a single transaction and publishes
// one EventImport covering the whole batch. An empty batch is a no-op
// with no event. The event is published only after the transaction
// commits, so a subscriber that re-resolves immediately sees the
// imported labels.
func (s *Store) Import(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.importTransaction(ctx, entries); err != nil {
		return err
	}
	s.logger.Info("label book import", "entries", len(entries))
	s.stream.Publish(ChangeEvent{Kind: EventImport})
	return nil
}

func (s *Store) importTransaction(ctx context.Context, entries []Entry) (err error) {
	conn, takeErr := s.pool.Take(ctx)
	if takeErr != nil {
		return takeErr
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("importing %d entries: %w", len(entries), err)
	}
	defer endTransaction(&err)

	now := s.clock.Now().Unix()
	for _, entry := range entries {
		if entry.Address.IsZero() {
			return fmt.Errorf("importing: entry with empty address")
		}
		err = sqlitex.Execute(conn,
			`INSERT INTO labels (address, label, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(address) DO UPDATE SET label = excluded.label, updated_at = excluded.updated_at`,
			&sqlitex.ExecOptions{
				Args: []any{string(entry.Address), entry.Label, now},
			})
		if err != nil {
			return fmt.Errorf("importing %s: %w", entry.Address, err)
		}
	}
	return nil
}

// List returns every entry in the label book, ordered by address.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var entries []Entry
	err = sqlitex.Execute(conn,
		"SELECT address, label, updated_at FROM labels ORDER BY address",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, Entry{
					Address:   Address(stmt.ColumnText(0)),
					Label:     stmt.ColumnText(1),
					UpdatedAt: time.Unix(stmt.ColumnInt64(2), 0).UTC(),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	return entries, nil
}

// Close shuts down the change stream and the connection pool. The
// stream closes first so subscribers see end-of-stream before the
// database goes away.
func (s *Store) Close() error {
	s.stream.Close()
	return s.pool.Close()
}

var _ Resolver = (*Store)(nil)
