// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rarcrypto

import "testing"

func TestFoldCRCIsDeterministic(t *testing.T) {
	var key [keySize]byte
	for i := range key {
		key[i] = byte(i)
	}
	a := FoldCRC(key, 0xDEADBEEF)
	b := FoldCRC(key, 0xDEADBEEF)
	if a != b {
		t.Fatal("FoldCRC is not deterministic for identical inputs")
	}
}

func TestFoldCRCVariesWithKeyAndCRC(t *testing.T) {
	var key [keySize]byte
	for i := range key {
		key[i] = byte(i)
	}
	base := FoldCRC(key, 0xDEADBEEF)

	if got := FoldCRC(key, 0x12345678); got == base {
		t.Fatal("different CRCs produced the same fold")
	}

	key2 := key
	key2[0] ^= 0xFF
	if got := FoldCRC(key2, 0xDEADBEEF); got == base {
		t.Fatal("different hash keys produced the same fold")
	}
}
