// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package unrar5j

import (
	"errors"
	"fmt"

	"github.com/RealBurst/unrar5j/internal/rar5core"
)

// ErrMultiVolume is returned by Open when the archive's MainBlock
// declares itself part of a multi-volume set. Resuming a split data
// stream across volumes is a spec Non-goal; callers that need it must
// pre-join the volumes themselves.
var ErrMultiVolume = errors.New("unrar5j: multi-volume archives are not supported")

// ErrHeaderEncrypted is returned by Open when an EncryptionBlock
// precedes the archive's MainBlock, meaning the headers themselves are
// encrypted. Only per-file data encryption (FileCryptRecord extra
// records under plaintext headers) is supported.
var ErrHeaderEncrypted = errors.New("unrar5j: archives with encrypted headers are not supported")

// ErrBadPassword is returned for an encrypted file when no password
// was supplied, or the supplied one fails FileCryptRecord's check
// value.
var ErrBadPassword = errors.New("unrar5j: missing or incorrect password")

// FileErrorKind categorizes why a single archive member failed to
// extract, mirroring rar5core.ErrorKind but adding the archive-layer
// failure modes rar5core never sees.
type FileErrorKind int

const (
	// KindBadPassword covers a missing password on an encrypted file,
	// or one that fails its FileCryptRecord check value.
	KindBadPassword FileErrorKind = iota + 1
	// KindCorrupted covers an unsafe stored path, a rar5core
	// CorruptedData error, or a final CRC32/HMAC-fold mismatch.
	KindCorrupted
	// KindUnsupported covers a rar5core UnsupportedFilter error.
	KindUnsupported
	// KindIO covers a filesystem or network error writing output.
	KindIO
)

func (k FileErrorKind) String() string {
	switch k {
	case KindBadPassword:
		return "bad password"
	case KindCorrupted:
		return "corrupted"
	case KindUnsupported:
		return "unsupported"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// FileError reports why extracting one archive member failed. Extract
// never stops at the first FileError: it aggregates one per failed
// member via cloudeng.io/errors.M and keeps going, so one corrupt
// member in a large archive doesn't prevent the rest from being
// recovered.
type FileError struct {
	Name string
	Kind FileErrorKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Name, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// classifyDecodeError maps a rar5core.DecodeError (or any other error
// a ByteSource/ByteSink returned through it) onto FileErrorKind.
func classifyDecodeError(err error) FileErrorKind {
	var de *rar5core.DecodeError
	if errors.As(err, &de) {
		switch de.Kind {
		case rar5core.CorruptedData:
			return KindCorrupted
		case rar5core.UnsupportedFilter:
			return KindUnsupported
		case rar5core.Io:
			return KindIO
		}
	}
	return KindIO
}
