// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rarcrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"testing"
)

func TestCBCSourceRoundTrip(t *testing.T) {
	var key [keySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		t.Fatal(err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		t.Fatal(err)
	}

	plain := bytes.Repeat([]byte("the quick brown fox jumps over "), 16) // multiple of 16
	block, err := aes.NewCipher(key[:])
	if err != nil {
		t.Fatal(err)
	}
	cipherText := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(cipherText, plain)

	src, err := NewCBCSource(bytes.NewReader(cipherText), key, iv)
	if err != nil {
		t.Fatalf("NewCBCSource: %v", err)
	}
	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("round-trip mismatch:\n got  %q\n want %q", got, plain)
	}
}

func TestNewCBCSourceRejectsBadIVLength(t *testing.T) {
	var key [keySize]byte
	if _, err := NewCBCSource(bytes.NewReader(nil), key, make([]byte, 8)); err == nil {
		t.Fatal("expected an error for a short IV")
	}
}
