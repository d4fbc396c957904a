// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package rarcrypto implements RAR5's password-based archive
// encryption: PBKDF2-HMAC-SHA256 key derivation, AES-256-CBC payload
// decryption, and the HMAC-based CRC masking RAR5 uses so a known
// plaintext CRC can't be used to brute-force the password.
package rarcrypto

import (
	"crypto/hmac"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// keySize is fixed by the format: AES-256 keys, SHA-256 HMAC.
const keySize = 32

// DerivedKeys holds the three values RAR5 derives from one
// password+salt+iteration-count triple: the AES decryption key, the
// HMAC key used to fold each file's stored CRC32, and the 8-byte
// password-check value an archive may carry so a wrong password is
// rejected before a whole file is decoded and found corrupt.
type DerivedKeys struct {
	AESKey     [keySize]byte
	HMACKey    [keySize]byte
	CheckValue [8]byte
}

// DeriveKeys runs PBKDF2-HMAC-SHA256 over password and salt for
// 2^(iterLog2+5) iterations (RAR5's KDFCount field is a log2, not a raw
// count: the format adds 5 so the minimum stored value 0 still forces
// 32 rounds), producing one combined 72-byte block that is sliced
// into the AES key, HMAC key, and password-check value per spec.
func DeriveKeys(password []byte, salt [16]byte, iterLog2 byte) DerivedKeys {
	iterations := 1 << (uint(iterLog2) + 5)
	block := pbkdf2.Key(password, salt[:], iterations, keySize*2+8, sha256.New)

	var out DerivedKeys
	copy(out.AESKey[:], block[:keySize])
	copy(out.HMACKey[:], block[keySize:keySize*2])
	copy(out.CheckValue[:], block[keySize*2:keySize*2+8])
	return out
}

// VerifyPassword reports whether the first 8 bytes of checkValue (as
// read from a FileCryptRecord) match the key derivation's own check value,
// letting callers reject a wrong password before attempting to decode
// any file.
func VerifyPassword(keys DerivedKeys, checkValue []byte) bool {
	if len(checkValue) < 8 {
		return false
	}
	return hmac.Equal(keys.CheckValue[:], checkValue[:8])
}
