// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rarcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
)

// CBCSource wraps an underlying io.Reader of AES-256-CBC ciphertext
// (one file's compressed data, with its own random IV stored ahead of
// it in the archive) and exposes it as rar5core.ByteSource: plaintext
// out, one decrypted block at a time. It satisfies rar5core.ByteSource
// structurally, without rar5core importing this package.
type CBCSource struct {
	block cipher.Block
	mode  cipher.BlockMode
	src   io.Reader

	buf    []byte
	bufLen int
	bufPos int

	err error
}

// NewCBCSource constructs a decrypting ByteSource. iv must be exactly
// the AES block size (16 bytes), as stored immediately before the
// file's ciphertext.
func NewCBCSource(src io.Reader, key [keySize]byte, iv []byte) (*CBCSource, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("rarcrypto: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("rarcrypto: iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return &CBCSource{
		block: block,
		mode:  cipher.NewCBCDecrypter(block, iv),
		src:   src,
		buf:   make([]byte, 4096),
	}, nil
}

// Read implements rar5core.ByteSource. Ciphertext is consumed and
// decrypted in whole-block chunks; a short final read is padded to a
// full AES block boundary by the caller's framing (the archive's
// DataSize is always a multiple of the block size for an encrypted
// file, per spec), so Read never needs to hold back a partial block.
func (c *CBCSource) Read(p []byte) (int, error) {
	if c.bufPos < c.bufLen {
		n := copy(p, c.buf[c.bufPos:c.bufLen])
		c.bufPos += n
		return n, nil
	}
	if c.err != nil {
		return 0, c.err
	}

	want := len(p)
	want -= want % aes.BlockSize
	if want == 0 {
		want = aes.BlockSize
	}
	if want > cap(c.buf) {
		want = cap(c.buf)
	}
	raw := make([]byte, want)
	n, err := io.ReadFull(c.src, raw)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	full := n - n%aes.BlockSize
	if full > 0 {
		c.mode.CryptBlocks(c.buf[:full], raw[:full])
		c.bufLen = full
		c.bufPos = 0
	}
	if err != nil {
		c.err = err
		if full == 0 {
			return 0, err
		}
	}
	if full == 0 {
		return 0, err
	}
	copied := copy(p, c.buf[:full])
	c.bufPos = copied
	return copied, nil
}
