// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rarcrypto

import "testing"

func TestDeriveKeysIsDeterministic(t *testing.T) {
	salt := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	a := DeriveKeys([]byte("hunter2"), salt, 0)
	b := DeriveKeys([]byte("hunter2"), salt, 0)
	if a != b {
		t.Fatal("DeriveKeys is not deterministic for identical inputs")
	}
}

func TestDeriveKeysVariesWithPasswordAndSalt(t *testing.T) {
	salt := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	base := DeriveKeys([]byte("hunter2"), salt, 0)

	if other := DeriveKeys([]byte("wrongpass"), salt, 0); other == base {
		t.Fatal("different passwords produced identical derived keys")
	}

	salt2 := salt
	salt2[0] ^= 0xFF
	if other := DeriveKeys([]byte("hunter2"), salt2, 0); other == base {
		t.Fatal("different salts produced identical derived keys")
	}

	if other := DeriveKeys([]byte("hunter2"), salt, 1); other == base {
		t.Fatal("different iteration counts produced identical derived keys")
	}
}

func TestVerifyPassword(t *testing.T) {
	salt := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	keys := DeriveKeys([]byte("hunter2"), salt, 0)

	if !VerifyPassword(keys, keys.CheckValue[:]) {
		t.Fatal("VerifyPassword rejected the correct check value")
	}

	bad := keys.CheckValue
	bad[0] ^= 0xFF
	if VerifyPassword(keys, bad[:]) {
		t.Fatal("VerifyPassword accepted a corrupted check value")
	}

	if VerifyPassword(keys, keys.CheckValue[:4]) {
		t.Fatal("VerifyPassword accepted a too-short check value")
	}
}
