// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides deterministic CBOR encoding for runner
// checkpoint files. Deterministic encoding means the same checkpoint
// state always produces identical bytes, so checkpoints can be
// compared and fingerprinted without a parse step.
package codec

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are ignored so an older tmrun can read checkpoints
// written by a newer one.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Checkpoints only use string map keys. When the decoder's
		// target is any, it must pick a concrete Go map type; the
		// CBOR default is map[interface{}]interface{}, which is
		// incompatible with encoding/json and most Go code. This
		// setting only affects any-typed targets — struct field
		// decoding is unaffected.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encode writes the deterministic CBOR encoding of v to w.
func Encode(w io.Writer, v any) error {
	data, err := encMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding CBOR: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing CBOR: %w", err)
	}
	return nil
}

// Decode reads all of r and decodes it as CBOR into v.
func Decode(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading CBOR: %w", err)
	}
	return decMode.Unmarshal(data, v)
}
