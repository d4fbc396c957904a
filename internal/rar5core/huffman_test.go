// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rar5core

import (
	"bytes"
	"testing"
)

func TestHuffmanBuildAndDecodeTwoSymbols(t *testing.T) {
	h := newHuffmanDecoder(2)
	lengths := []uint8{1, 1} // symbol 0 -> code "0", symbol 1 -> code "1"
	if !h.build(lengths, huffFull) {
		t.Fatal("build returned false for a valid full Kraft sum")
	}

	// 0111 1111: first bit 0 decodes symbol 0, the following bit 1
	// decodes symbol 1.
	br := newBitReader(bytes.NewReader([]byte{0x7F}))
	if sym := h.decode(br); sym != 0 {
		t.Fatalf("first decode = %d, want 0", sym)
	}
	if sym := h.decode(br); sym != 1 {
		t.Fatalf("second decode = %d, want 1", sym)
	}
}

func TestHuffmanBuildRejectsBadKraftSum(t *testing.T) {
	h := newHuffmanDecoder(2)
	// A single length-2 code cannot cover the full 15-bit code space.
	lengths := []uint8{2}
	if h.build(lengths, huffFull) {
		t.Fatal("build accepted an incomplete Kraft sum under huffFull")
	}
}

func TestHuffmanBuildFullOrEmptyAcceptsAllZero(t *testing.T) {
	h := newHuffmanDecoder(4)
	lengths := make([]uint8, 16)
	if !h.build(lengths, huffFullOrEmpty) {
		t.Fatal("build rejected an all-zero table under huffFullOrEmpty")
	}
	if !h.empty {
		t.Fatal("expected empty flag to be set")
	}
	br := newBitReader(bytes.NewReader([]byte{0xFF}))
	if sym := h.decode(br); sym != 0 {
		t.Fatalf("decode on an empty table = %d, want 0", sym)
	}
}

func TestHuffmanBuildRejectsAllZeroUnderFull(t *testing.T) {
	h := newHuffmanDecoder(4)
	lengths := make([]uint8, 16)
	if h.build(lengths, huffFull) {
		t.Fatal("build accepted an all-zero table under huffFull")
	}
}

func TestHuffmanPartialModeAcceptsUnderfullTable(t *testing.T) {
	h := newHuffmanDecoder(4)
	lengths := make([]uint8, 16)
	for i := range lengths[:8] {
		lengths[i] = 4 // 8 codes of length 4: Kraft sum = 8/16 of full
	}
	if !h.build(lengths, huffPartial) {
		t.Fatal("huffPartial rejected a valid underfull table")
	}
	if h.build(lengths, huffFull) {
		t.Fatal("huffFull accepted an underfull table")
	}
}

func TestHuffmanBuildRejectsOverlongCode(t *testing.T) {
	h := newHuffmanDecoder(4)
	lengths := []uint8{16}
	if h.build(lengths, huffPartial) {
		t.Fatal("build accepted a code length beyond maxCodeLen")
	}
}
