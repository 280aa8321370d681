// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/vaultview/vaultview/keyring"
)

// Share links carry a labelled address between wallets:
//
//	vaultview:label?address=<address>&label=<base64url>&sum=<hex>
//
// The label is base64url (unpadded) so arbitrary display names
// survive URL transport. The sum is the first 4 bytes, hex-encoded,
// of a BLAKE3 hash over the lowercased address and the label. It
// catches truncated or mangled links, not tampering.

// ErrMalformedLink reports a link that does not parse as a vaultview
// label link.
var ErrMalformedLink = errors.New("malformed share link")

// ErrChecksumMismatch reports a link whose sum does not match its
// address and label.
var ErrChecksumMismatch = errors.New("share link checksum mismatch")

const (
	shareLinkScheme = "vaultview"
	shareLinkKind   = "label"
	shareSumLength  = 4
)

// ShareLabel is the decoded content of a share link.
type ShareLabel struct {
	Address keyring.Address
	Label   string
}

func shareSum(address keyring.Address, label string) string {
	hash := blake3.Sum256([]byte(strings.ToLower(string(address)) + "\n" + label))
	return hex.EncodeToString(hash[:shareSumLength])
}

// EncodeShareLink renders a share link for the given address and
// label.
func EncodeShareLink(address keyring.Address, label string) string {
	values := url.Values{}
	values.Set("address", string(address))
	values.Set("label", base64.RawURLEncoding.EncodeToString([]byte(label)))
	values.Set("sum", shareSum(address, label))
	return shareLinkScheme + ":" + shareLinkKind + "?" + values.Encode()
}

// DecodeShareLink parses and verifies a share link. Errors wrap
// ErrMalformedLink for structural problems and ErrChecksumMismatch
// when the link is well-formed but its sum does not verify.
func DecodeShareLink(link string) (ShareLabel, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return ShareLabel{}, fmt.Errorf("%w: %v", ErrMalformedLink, err)
	}
	if parsed.Scheme != shareLinkScheme {
		return ShareLabel{}, fmt.Errorf("%w: scheme %q, want %q", ErrMalformedLink, parsed.Scheme, shareLinkScheme)
	}
	if parsed.Opaque != shareLinkKind {
		return ShareLabel{}, fmt.Errorf("%w: kind %q, want %q", ErrMalformedLink, parsed.Opaque, shareLinkKind)
	}

	values, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return ShareLabel{}, fmt.Errorf("%w: %v", ErrMalformedLink, err)
	}
	address, err := keyring.NewAddress(values.Get("address"))
	if err != nil {
		return ShareLabel{}, fmt.Errorf("%w: %v", ErrMalformedLink, err)
	}
	encodedLabel := values.Get("label")
	if encodedLabel == "" {
		return ShareLabel{}, fmt.Errorf("%w: missing label", ErrMalformedLink)
	}
	labelBytes, err := base64.RawURLEncoding.DecodeString(encodedLabel)
	if err != nil {
		return ShareLabel{}, fmt.Errorf("%w: label: %v", ErrMalformedLink, err)
	}
	label := string(labelBytes)

	sum := values.Get("sum")
	if len(sum) != shareSumLength*2 {
		return ShareLabel{}, fmt.Errorf("%w: sum length %d, want %d", ErrMalformedLink, len(sum), shareSumLength*2)
	}
	if sum != shareSum(address, label) {
		return ShareLabel{}, ErrChecksumMismatch
	}

	return ShareLabel{Address: address, Label: label}, nil
}
