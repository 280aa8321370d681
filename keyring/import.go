// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// importFile is the on-disk YAML shape of a label book export:
//
//	labels:
//	  - address: "0x89205A3A3b2A69De6Dbf7f01ED13B2108B2c43e7"
//	    label: "cold storage"
//	  - address: "0x1f9090aaE28b8a3dCeaDf281B0F12828e676c326"
//	    label: "exchange deposit"
type importFile struct {
	Labels []Entry `yaml:"labels"`
}

// ReadImportFile parses a YAML label book from path. Entries with an
// empty address or duplicate addresses (case-insensitively) are
// rejected; an import either describes a coherent book or fails
// whole.
func ReadImportFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file %s: %w", path, err)
	}
	entries, err := parseImport(data)
	if err != nil {
		return nil, fmt.Errorf("parsing import file %s: %w", path, err)
	}
	return entries, nil
}

// parseImport validates and returns the entries from YAML bytes.
func parseImport(data []byte) ([]Entry, error) {
	var file importFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Labels) == 0 {
		return nil, fmt.Errorf("no labels")
	}

	seen := make(map[string]bool, len(file.Labels))
	for i, entry := range file.Labels {
		if entry.Address.IsZero() {
			return nil, fmt.Errorf("entry %d: empty address", i)
		}
		folded := foldAddress(entry.Address)
		if seen[folded] {
			return nil, fmt.Errorf("entry %d: duplicate address %s", i, entry.Address)
		}
		seen[folded] = true
	}
	return file.Labels, nil
}
