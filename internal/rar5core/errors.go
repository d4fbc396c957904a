// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package rar5core implements the RAR5 decompression engine: the
// block-structured bit reader, the four adaptive Huffman decoders, the
// LZ77 match engine over a sliding dictionary, the DELTA/E8/E8E9/ARM
// filter pipeline, and the solid-archive state preservation protocol.
//
// There's no RFC for RAR5. This package follows the behavior documented
// by the reference decompressor and cross-checked against other open
// implementations; see DESIGN.md at the repository root for the
// grounding of each piece.
package rar5core

import "fmt"

// ErrorKind classifies why DecodeFile failed. The taxonomy is closed: every
// error DecodeFile returns can be mapped to exactly one of these kinds via
// errors.As on *DecodeError.
type ErrorKind int

const (
	// CorruptedData covers a bad Kraft sum, a bad block checksum, a
	// table over-read, an invalid distance, a size mismatch at file
	// end, or an invalid repeat symbol at the start of a table. Fatal
	// to the current file.
	CorruptedData ErrorKind = iota + 1

	// UnsupportedFilter covers an unknown filter type, a filter
	// overlap, or filter queue saturation. Fatal to the current file.
	UnsupportedFilter

	// Io surfaces an error reported by the source or sink, unchanged.
	Io

	// OutOfMemory is returned when a window or filter buffer
	// allocation request is refused.
	OutOfMemory
)

func (k ErrorKind) String() string {
	switch k {
	case CorruptedData:
		return "corrupted data"
	case UnsupportedFilter:
		return "unsupported filter"
	case Io:
		return "io"
	case OutOfMemory:
		return "out of memory"
	default:
		return "unknown"
	}
}

// DecodeError is returned by DecodeFile. MinorError bit inconsistencies
// (non-zero alignment padding, a zero-sized block) are not reported as
// DecodeError on their own; they only surface as CorruptedData if no
// output was produced after the last block, per spec.
type DecodeError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

func corruptf(format string, args ...interface{}) error {
	return &DecodeError{Kind: CorruptedData, Msg: fmt.Sprintf(format, args...)}
}

func unsupportedf(format string, args ...interface{}) error {
	return &DecodeError{Kind: UnsupportedFilter, Msg: fmt.Sprintf(format, args...)}
}

func ioErrorf(err error, format string, args ...interface{}) error {
	return &DecodeError{Kind: Io, Msg: fmt.Sprintf(format, args...), Err: err}
}
