// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rarfmt

import "testing"

func TestFindSignatureAtStart(t *testing.T) {
	buf := append(append([]byte{}, Signature[:]...), 0x01, 0x02)
	off, err := FindSignature(buf)
	if err != nil {
		t.Fatalf("FindSignature: %v", err)
	}
	if off != 0 {
		t.Fatalf("offset = %d, want 0", off)
	}
}

func TestFindSignatureAfterSFXStub(t *testing.T) {
	stub := []byte("MZ this is a fake self-extracting stub\x00\x00\x00")
	buf := append(append([]byte{}, stub...), Signature[:]...)
	off, err := FindSignature(buf)
	if err != nil {
		t.Fatalf("FindSignature: %v", err)
	}
	if off != len(stub) {
		t.Fatalf("offset = %d, want %d", off, len(stub))
	}
}

func TestFindSignatureMissing(t *testing.T) {
	if _, err := FindSignature([]byte("not a rar archive")); err != ErrNoSignature {
		t.Fatalf("err = %v, want ErrNoSignature", err)
	}
}
