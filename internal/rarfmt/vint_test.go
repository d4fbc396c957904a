// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rarfmt

import (
	"bufio"
	"bytes"
	"testing"
)

func TestReadVIntSingleByte(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{0x05}))
	v, err := ReadVInt(r)
	if err != nil {
		t.Fatalf("ReadVInt: %v", err)
	}
	if v != 5 {
		t.Fatalf("v = %d, want 5", v)
	}
}

func TestReadVIntMultiByte(t *testing.T) {
	// 300 = 0b1_0010_1100 -> low 7 bits 0101100 with continuation,
	// remaining bits 10 in the second byte without continuation.
	r := bufio.NewReader(bytes.NewReader([]byte{0xAC, 0x02}))
	v, err := ReadVInt(r)
	if err != nil {
		t.Fatalf("ReadVInt: %v", err)
	}
	if v != 300 {
		t.Fatalf("v = %d, want 300", v)
	}
}

func TestReadVIntRejectsTooLong(t *testing.T) {
	buf := make([]byte, 11)
	for i := range buf {
		buf[i] = 0x80 // continuation bit set on every byte, never terminates
	}
	r := bufio.NewReader(bytes.NewReader(buf))
	if _, err := ReadVInt(r); err == nil {
		t.Fatal("expected an error for a VInt exceeding maxVIntBytes")
	}
}

func TestReadVIntPropagatesShortRead(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{0x80})) // continuation bit set, then EOF
	if _, err := ReadVInt(r); err == nil {
		t.Fatal("expected an error when the stream ends mid-VInt")
	}
}
