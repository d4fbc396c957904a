// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rar5core

import "io"

// ByteSource is the compressed-input side of Decoder.DecodeFile. It is deliberately
// as small as io.Reader's Read method, the core never needs more than
// that to pull bytes; a decrypting transform (rarcrypto) can satisfy it
// by wrapping another ByteSource.
type ByteSource interface {
	Read(buf []byte) (int, error)
}

const (
	// lookAheadSize is the guaranteed number of valid lookahead bytes
	// past bufPos, so that any single read of up to 17 bits (25 for
	// readBitsBig) is safe without a re-check.
	lookAheadSize = 16

	// inputBufSize is the working-array capacity, not counting the
	// lookahead tail.
	inputBufSize = 1 << 20
)

// bitReader supplies lazy, refillable bit access to a compressed byte
// stream. Past the valid input it returns all-one bits (see prepare),
// so a read that runs past EOF can never complete a longer prefix than
// any real Huffman code and silently extend output; the resulting
// minorError is surfaced by the caller only if it produced no bytes.
type bitReader struct {
	src ByteSource

	buf    []byte // inputBufSize + lookAheadSize
	bufPos int    // byte cursor into buf
	bitPos uint   // 0..7, sub-byte cursor within buf[bufPos]

	bufLim           int   // valid bytes in buf
	bufCheckPos      int   // bufPos at/past which prepare must refill
	bufCheckBlockPos int   // min(bufCheckPos, block-end-relative position)
	processedSize    int64 // bytes consumed by prior refills (i.e. buf[0] is this many bytes into the stream)

	srcEOF bool  // the underlying source has reported EOF
	srcErr error // a non-EOF error from the underlying source

	minorError bool // a soft-recoverable bit inconsistency was observed

	blockEndAbs   int64 // absolute byte offset (processedSize-relative) of the block end
	blockEndBits7 uint  // 0..7, sub-byte offset of the block end
	isLastBlock   bool
}

func newBitReader(src ByteSource) *bitReader {
	r := &bitReader{
		src: src,
		buf: make([]byte, inputBufSize+lookAheadSize),
	}
	r.prepare()
	return r
}

// reset rewires the reader onto a new source and clears all stream
// position state, without reallocating its buffer. Used when a new file
// begins a fresh (non-solid) bitstream.
func (r *bitReader) reset(src ByteSource) {
	r.src = src
	r.bufPos, r.bitPos = 0, 0
	r.bufLim, r.bufCheckPos, r.bufCheckBlockPos = 0, 0, 0
	r.processedSize = 0
	r.srcEOF, r.srcErr = false, nil
	r.minorError = false
	r.blockEndAbs, r.blockEndBits7, r.isLastBlock = 0, 0, false
	r.prepare()
}

// prepare refills the buffer when the cursor has reached the check
// threshold: residue is compacted to the start of buf, new bytes are
// pulled from src until either the lookahead is satisfied or src is
// exhausted, and the lookahead region is padded with 0xFF.
func (r *bitReader) prepare() {
	if r.bufPos < r.bufCheckPos {
		return
	}
	if r.bufPos > 0 {
		n := copy(r.buf, r.buf[r.bufPos:r.bufLim])
		r.bufLim = n
		r.processedSize += int64(r.bufPos)
		r.bufPos = 0
	}
	fillLimit := len(r.buf) - lookAheadSize
	for !r.srcEOF && r.bufLim < fillLimit {
		n, err := r.src.Read(r.buf[r.bufLim:fillLimit])
		if n > 0 {
			r.bufLim += n
		}
		if err != nil {
			r.srcEOF = true
			if err != io.EOF {
				r.srcErr = err
			}
			break
		}
		if n == 0 {
			break
		}
	}
	for i := r.bufLim; i < len(r.buf); i++ {
		r.buf[i] = 0xFF
	}
	check := r.bufLim - lookAheadSize
	if check < r.bufPos {
		check = r.bufPos
	}
	r.bufCheckPos = check
	r.recomputeCheckBlockPos()
}

func (r *bitReader) recomputeCheckBlockPos() {
	relBlockEnd := int(r.blockEndAbs - r.processedSize)
	if relBlockEnd < r.bufCheckPos {
		r.bufCheckBlockPos = relBlockEnd
	} else {
		r.bufCheckBlockPos = r.bufCheckPos
	}
}

// setBlockEnd records the precise bit-position end of the current
// Huffman block, per the block header read by readBlockHeader.
func (r *bitReader) setBlockEnd(byteOffset int64, bits7 uint, last bool) {
	r.blockEndAbs = byteOffset
	r.blockEndBits7 = bits7
	r.isLastBlock = last
	r.recomputeCheckBlockPos()
}

// isBlockOverRead reports whether the current position has passed the
// recorded block end.
func (r *bitReader) isBlockOverRead() bool {
	pos := r.getProcessedSizeRound()
	if pos != r.blockEndAbs {
		return pos > r.blockEndAbs
	}
	return r.bitPos > r.blockEndBits7
}

// getProcessedSizeRound returns the current byte offset into the
// stream (the bit cursor's sub-byte offset is available separately via
// getProcessedBits7).
func (r *bitReader) getProcessedSizeRound() int64 {
	return r.processedSize + int64(r.bufPos)
}

func (r *bitReader) getProcessedBits7() uint {
	return r.bitPos
}

// peek32 loads the next 32 bits starting at the current bit position,
// MSB-first within each byte, discarding the bits already consumed from
// the leading byte. The guaranteed lookahead means bufPos+3 is always
// valid here.
func (r *bitReader) peek32() uint32 {
	b := r.buf
	p := r.bufPos
	v := uint32(b[p])<<24 | uint32(b[p+1])<<16 | uint32(b[p+2])<<8 | uint32(b[p+3])
	return v << r.bitPos
}

// getValue peeks the next n bits (1 <= n <= 25) as an unsigned integer
// without advancing the cursor. The spec only requires up to 17 bits
// here; the wider range lets readBitsBig share the same primitive.
func (r *bitReader) getValue(n uint) uint32 {
	return r.peek32() >> (32 - n)
}

// movePos advances the bit cursor by n bits, carrying into bufPos.
func (r *bitReader) movePos(n uint) {
	bp := r.bitPos + n
	r.bufPos += int(bp >> 3)
	r.bitPos = bp & 7
}

// readBits9Fix peeks and advances n (<=9) bits.
func (r *bitReader) readBits9Fix(n uint) uint32 {
	v := r.getValue(n)
	r.movePos(n)
	return v
}

// readBits9 is the non-masking counterpart of readBits9Fix; our
// getValue always recomputes the full mask so the two are equivalent
// here, unlike an implementation that caches a running window.
func (r *bitReader) readBits9(n uint) uint32 {
	return r.readBits9Fix(n)
}

// readBitsBig reads up to 25 bits, used for the wide low-bits of long
// distance slots.
func (r *bitReader) readBitsBig(n uint) uint32 {
	return r.readBits9Fix(n)
}

// alignToByte discards the remaining bits of the current byte. If any
// discarded bit is set, minorError is raised (RAR5 always pads with
// zero bits to a byte boundary).
func (r *bitReader) alignToByte() {
	if r.bitPos == 0 {
		return
	}
	n := 8 - r.bitPos
	if r.getValue(n) != 0 {
		r.minorError = true
	}
	r.movePos(n)
}

// err returns any non-EOF error seen from the underlying source.
func (r *bitReader) err() error { return r.srcErr }
