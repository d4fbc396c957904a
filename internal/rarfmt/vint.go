// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package rarfmt parses the RAR5 archive container format: the file
// signature, the block-header framing shared by every block type, and
// the per-type extra-record chains. It knows nothing about how a
// file's compressed payload is decoded; that is rar5core's job.
package rarfmt

import (
	"fmt"
	"io"
)

// maxVIntBytes bounds a VInt at 10 encoded bytes (70 data bits), wide
// enough for any 64-bit value with a bit to spare, per spec.
const maxVIntBytes = 10

// ReadVInt reads one RAR5 variable-length integer: little-endian,
// 7 data bits per byte, high bit set on every byte but the last.
func ReadVInt(r io.ByteReader) (uint64, error) {
	var v uint64
	for i := 0; i < maxVIntBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("rarfmt: vint exceeds %d bytes", maxVIntBytes)
}
