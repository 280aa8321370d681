// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

// vaultview is the interactive wallet console: a terminal UI that
// lists known addresses with their live human-readable labels.
//
// By default it connects to the keyring daemon over the configured
// unix socket, so labels and change events are shared with every
// other console on the machine. With --db it opens the sqlite label
// book directly instead — useful offline, at the cost of missing
// changes written by other processes.
//
// Positional arguments are share links (vaultview:label?...); each is
// decoded, verified, and written to the label book before the UI
// starts.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/vaultview/vaultview/keyring"
	"github.com/vaultview/vaultview/lib/clock"
	"github.com/vaultview/vaultview/lib/config"
	"github.com/vaultview/vaultview/lib/version"
	"github.com/vaultview/vaultview/view"
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
		socketPath   string
		databasePath string
		showVersion  bool
	)

	flagSet := pflag.NewFlagSet("vaultview", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $VAULTVIEW_CONFIG)")
	flagSet.StringVar(&socketPath, "socket", "", "keyring daemon socket (overrides config)")
	flagSet.StringVar(&databasePath, "db", "", "open this sqlite label book directly instead of the daemon")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}
	if showVersion {
		version.Print("vaultview")
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if socketPath == "" {
		socketPath = cfg.Keyring.SocketPath
	}

	logger, logCleanup, err := openLogger(cfg.UI.LogFile)
	if err != nil {
		return err
	}
	defer logCleanup()

	ctx := context.Background()

	book, bookCleanup, err := openBook(ctx, databasePath, socketPath, logger)
	if err != nil {
		return err
	}
	defer bookCleanup()

	if err := importShareLinks(ctx, book, flagSet.Args()); err != nil {
		return err
	}

	notifier := &repaintNotifier{}
	model, err := newAppModel(book, notifier)
	if err != nil {
		return err
	}
	defer model.close()

	options := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.MouseEnabled() {
		options = append(options, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(model, options...)
	notifier.attach(program)

	_, err = program.Run()
	return err
}

// openBook connects to the label book: directly to sqlite when a
// database path is given, otherwise to the daemon socket.
func openBook(ctx context.Context, databasePath, socketPath string, logger *slog.Logger) (labelBook, func(), error) {
	if databasePath != "" {
		store, err := keyring.OpenStore(keyring.StoreConfig{
			Path:   databasePath,
			Logger: logger,
			Clock:  clock.Real(),
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("closing store", "error", err)
			}
		}, nil
	}

	remote, err := keyring.DialKeyring(ctx, socketPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to keyring daemon at %s: %w (is vaultview-keyringd running? use --db for direct access)", socketPath, err)
	}
	return remote, remote.Close, nil
}

// importShareLinks decodes each link argument and writes its label.
// Any bad link aborts the whole console start: a typo should be
// visible, not half-applied.
func importShareLinks(ctx context.Context, book labelBook, links []string) error {
	for _, link := range links {
		decoded, err := view.DecodeShareLink(link)
		if err != nil {
			return fmt.Errorf("share link %q: %w", link, err)
		}
		if err := book.Put(ctx, decoded.Address, decoded.Label); err != nil {
			return fmt.Errorf("storing label for %s: %w", decoded.Address, err)
		}
	}
	return nil
}

// openLogger builds the console logger. The TUI owns the terminal,
// so without a configured log file, records are discarded rather
// than corrupting the display.
func openLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, func() { file.Close() }, nil
}
