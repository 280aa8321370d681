// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// snapshotMagic identifies a VaultView label book snapshot. The byte
// after the magic is the format version.
var snapshotMagic = []byte("VVSNAP")

// snapshotVersion is the current snapshot format version.
const snapshotVersion = 1

// snapshotBody is the CBOR payload inside the lz4 frame.
type snapshotBody struct {
	Version int     `cbor:"version"`
	Entries []Entry `cbor:"entries"`
}

// WriteSnapshot writes a portable binary snapshot of a label book:
// a magic/version header followed by an lz4 frame containing the
// deterministic CBOR encoding of the entries. Snapshots are the
// machine-to-machine transfer format; YAML import files are the
// human-edited one.
func WriteSnapshot(w io.Writer, entries []Entry) error {
	if _, err := w.Write(append(append([]byte{}, snapshotMagic...), snapshotVersion)); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}

	frame := lz4.NewWriter(w)
	if err := newCBOREncoder(frame).Encode(snapshotBody{
		Version: snapshotVersion,
		Entries: entries,
	}); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := frame.Close(); err != nil {
		return fmt.Errorf("flushing snapshot frame: %w", err)
	}
	return nil
}

// ReadSnapshot reads a snapshot written by WriteSnapshot. Rejects
// unknown magic bytes and versions newer than this build understands.
func ReadSnapshot(r io.Reader) ([]Entry, error) {
	header := make([]byte, len(snapshotMagic)+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	if string(header[:len(snapshotMagic)]) != string(snapshotMagic) {
		return nil, fmt.Errorf("not a label book snapshot (bad magic)")
	}
	if version := int(header[len(snapshotMagic)]); version > snapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", version, snapshotVersion)
	}

	var body snapshotBody
	if err := newCBORDecoder(lz4.NewReader(r)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return body.Entries, nil
}
