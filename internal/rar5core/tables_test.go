// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rar5core

import (
	"bytes"
	"testing"
)

// TestReadBlockHeaderMinimal covers a header with b7=1, num=0 (one size
// byte), present=false, last=false. The checksum byte was chosen so
// that flags ^ checksumXor ^ sizeByte == blockHeaderMagic (0x5A).
func TestReadBlockHeaderMinimal(t *testing.T) {
	br := newBitReader(bytes.NewReader([]byte{0x00, 0x5B, 0x01}))
	present, err := readBlockHeader(br)
	if err != nil {
		t.Fatalf("readBlockHeader: %v", err)
	}
	if present {
		t.Fatal("tablesPresent = true, want false")
	}
}

// TestReadBlockHeaderPresentAndLast covers flags=0xC0 (present and last
// bits set), checksum chosen the same way as above.
func TestReadBlockHeaderPresentAndLast(t *testing.T) {
	br := newBitReader(bytes.NewReader([]byte{0xC0, 0x98, 0x02}))
	present, err := readBlockHeader(br)
	if err != nil {
		t.Fatalf("readBlockHeader: %v", err)
	}
	if !present {
		t.Fatal("tablesPresent = false, want true")
	}
	if !br.isLastBlock {
		t.Fatal("isLastBlock = false, want true")
	}
}

func TestReadBlockHeaderRejectsReservedSizeByteCount(t *testing.T) {
	// flags=0x18: bits 3-4 are 3, the reserved num value.
	br := newBitReader(bytes.NewReader([]byte{0x18, 0x00}))
	if _, err := readBlockHeader(br); err == nil {
		t.Fatal("expected an error for the reserved size-byte count")
	}
}

func TestReadBlockHeaderRejectsBadChecksum(t *testing.T) {
	br := newBitReader(bytes.NewReader([]byte{0x00, 0x00, 0x01}))
	if _, err := readBlockHeader(br); err == nil {
		t.Fatal("expected an error for a mismatched checksum")
	}
}
