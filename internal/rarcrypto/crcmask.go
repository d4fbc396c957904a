// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rarcrypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// FoldCRC implements spec.md §6's plaintext-checksum verification for
// encrypted archives: rather than trusting a file's stored CRC32
// directly (which would let an attacker verify password guesses
// against known-plaintext CRCs without decrypting anything), RAR5
// computes HMAC-SHA256(hashKey, le32(crc32)) over the CRC32 of the
// already-decompressed output and folds the 32-byte MAC down to 4
// bytes by XORing its eight 4-byte groups together. Callers compare
// the fold against the archive's stored masked value.
func FoldCRC(hashKey [keySize]byte, crc32 uint32) uint32 {
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], crc32)

	mac := hmac.New(sha256.New, hashKey[:])
	mac.Write(le[:])
	sum := mac.Sum(nil)

	var mask uint32
	for i := 0; i < len(sum); i += 4 {
		mask ^= binary.LittleEndian.Uint32(sum[i : i+4])
	}
	return mask
}
