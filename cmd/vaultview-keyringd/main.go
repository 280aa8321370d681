// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

// vaultview-keyringd is the label daemon: it owns the sqlite label
// book and serves resolution, mutation, and live change-watch
// requests over a unix socket. Console instances connect as clients,
// so every console on the machine sees the same labels and the same
// change events.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/vaultview/vaultview/keyring"
	"github.com/vaultview/vaultview/lib/clock"
	"github.com/vaultview/vaultview/lib/config"
	"github.com/vaultview/vaultview/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   string
		databasePath string
		socketPath   string
		importPath   string
		snapshotPath string
		logLevel     string
		showVersion  bool
	)

	flagSet := pflag.NewFlagSet("vaultview-keyringd", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $VAULTVIEW_CONFIG)")
	flagSet.StringVar(&databasePath, "db", "", "sqlite label database (overrides config)")
	flagSet.StringVar(&socketPath, "socket", "", "unix socket to serve on (overrides config)")
	flagSet.StringVar(&importPath, "import", "", "seed the label book from this YAML file before serving")
	flagSet.StringVar(&snapshotPath, "snapshot", "", "write a snapshot of the label book to this file on shutdown")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}
	if showVersion {
		version.Print("vaultview-keyringd")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if databasePath == "" {
		databasePath = cfg.Keyring.DatabasePath
	}
	if socketPath == "" {
		socketPath = cfg.Keyring.SocketPath
	}

	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := os.MkdirAll(filepath.Dir(databasePath), 0o700); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o700); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}

	store, err := keyring.OpenStore(keyring.StoreConfig{
		Path:   databasePath,
		Logger: logger,
		Clock:  clock.Real(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("closing store", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if importPath != "" {
		entries, err := keyring.ReadImportFile(importPath)
		if err != nil {
			return fmt.Errorf("reading import file: %w", err)
		}
		if err := store.Import(ctx, entries); err != nil {
			return fmt.Errorf("seeding label book: %w", err)
		}
		logger.Info("seeded label book", "file", importPath, "labels", len(entries))
	}

	server := keyring.NewSocketServer(store, socketPath, logger)
	logger.Info("keyring daemon starting",
		"version", version.Info(),
		"db", databasePath,
		"socket", socketPath)

	serveErr := server.Serve(ctx)

	if snapshotPath != "" {
		if err := writeShutdownSnapshot(store, snapshotPath, logger); err != nil {
			logger.Error("writing shutdown snapshot", "error", err)
		}
	}
	return serveErr
}

// writeShutdownSnapshot dumps the label book so the operator has a
// portable backup from every clean shutdown. Uses a background
// context: the serve context is already cancelled by the time this
// runs.
func writeShutdownSnapshot(store *keyring.Store, path string, logger *slog.Logger) error {
	entries, err := store.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing labels: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer file.Close()
	if err := keyring.WriteSnapshot(file, entries); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	logger.Info("wrote snapshot", "file", path, "labels", len(entries))
	return nil
}

func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}
