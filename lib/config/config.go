// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

// Package config loads configuration for VaultView binaries.
//
// Configuration comes from a single JSONC file (JSON extended with
// comments and trailing commas) named by the --config flag or the
// VAULTVIEW_CONFIG environment variable. There is no search path and
// no merging of multiple files: one file, loaded once, so the
// effective configuration is always auditable.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// EnvVar names the environment variable consulted when no explicit
// path is given.
const EnvVar = "VAULTVIEW_CONFIG"

// Config is the root configuration for the console and the daemon.
type Config struct {
	// Keyring configures where labels live and how to reach the
	// daemon.
	Keyring KeyringConfig `json:"keyring"`

	// UI configures console behavior.
	UI UIConfig `json:"ui"`
}

// KeyringConfig locates the label database and the daemon socket.
type KeyringConfig struct {
	// DatabasePath is the sqlite label book. The parent directory
	// must exist. Default: $HOME/.vaultview/labels.db.
	DatabasePath string `json:"database_path"`

	// SocketPath is the unix socket the daemon serves and the
	// console connects to. Default: /run/vaultview/keyring.sock for
	// root, $HOME/.vaultview/keyring.sock otherwise.
	SocketPath string `json:"socket_path"`
}

// UIConfig holds console presentation options.
type UIConfig struct {
	// LogFile, when set, receives JSON log records from the console.
	// The TUI owns the terminal, so logs never go to stderr while it
	// runs.
	LogFile string `json:"log_file"`

	// MouseEnabled turns on mouse reporting (hover, click, wheel).
	// Defaults to true.
	MouseEnabled *bool `json:"mouse_enabled,omitempty"`
}

// Load reads the config file at path. If path is empty, the
// VAULTVIEW_CONFIG environment variable is consulted; if that is also
// empty, Default() is returned. The file is JSONC: comments and
// trailing commas are stripped before unmarshaling.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".vaultview")
	return &Config{
		Keyring: KeyringConfig{
			DatabasePath: filepath.Join(base, "labels.db"),
			SocketPath:   filepath.Join(base, "keyring.sock"),
		},
	}
}

// MouseEnabled reports the effective mouse setting (default true).
func (c *Config) MouseEnabled() bool {
	if c.UI.MouseEnabled == nil {
		return true
	}
	return *c.UI.MouseEnabled
}
