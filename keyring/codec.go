// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. The same logical value always
// produces identical bytes, which keeps snapshot files diffable.
var encMode cbor.EncMode

// decMode accepts standard CBOR. Unknown fields are ignored for
// forward compatibility with newer daemons.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Address and EventKind implement encoding.TextMarshaler and must
	// serialize as CBOR text strings, not as empty maps.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("keyring: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// When decoding into any-typed targets, produce
		// map[string]any rather than CBOR's default
		// map[interface{}]interface{}; the protocol never uses
		// non-string map keys.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("keyring: CBOR decoder initialization failed: " + err.Error())
	}
}

// cborMarshal encodes v with deterministic encoding.
func cborMarshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// cborUnmarshal decodes data into v.
func cborUnmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// newCBOREncoder returns a streaming encoder writing to w.
func newCBOREncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// newCBORDecoder returns a streaming decoder reading from r. CBOR is
// self-delimiting, so consecutive values need no framing.
func newCBORDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// rawMessage is a raw CBOR value, decoded lazily by handlers that
// know the action-specific shape.
type rawMessage = cbor.RawMessage
