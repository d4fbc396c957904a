// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rar5core

// ByteSink is the decompressed-output side of Decoder.DecodeFile.
type ByteSink interface {
	Write(buf []byte) error
}

const (
	// maxMatchLen is the longest single match the length-slot formula
	// can produce (see engine.go), plus the longest literal run between
	// two flush points we ever leave unflushed.
	maxMatchLen = 0x1004

	// minWindowSize is the smallest dictionary WindowSizeForProperties
	// ever returns, per spec.md §3; windowSizeLimit is the largest one
	// the pow/frac rejection rule (pow+((frac+31)>>5) > 14) allows.
	minWindowSize = 1 << 18
	windowSizeLimit = 1 << 31

	// solidRecoverLimit bounds how far lzSize (the absolute output
	// position) may sit from the previous file's lzEnd for solid
	// continuity to still apply.
	solidRecoverLimit = 1 << 20

	// writeStepSize is the cadence (spec.md §4.6) at which the decode
	// loop must drain produced bytes out to the sink; left unflushed,
	// output older than the window size would otherwise be silently
	// overwritten by copyMatch/putByte once the circular buffer wraps.
	writeStepSize = 1 << 18
)

// window is the LZ77 sliding dictionary plus the output staging that
// turns absolute LZ-stream coordinates into sink writes. A single
// window instance is reused across every file in a solid chain; reset
// is only called when continuity breaks.
type window struct {
	buf  []byte // len == size, circular
	size int

	pos int // next write position, 0 <= pos < size

	lzSize      int64 // bytes ever appended to this window (monotonic, never wraps)
	lzWritten   int64 // bytes already flushed to the sink
	lzFileStart int64 // lzSize at the start of the file currently being decoded
	lzFileEnd   int64 // lzFileStart + this file's unpacked size

	repDist [4]uint32 // the four most recent match distances, index 0 most recent

	sink   ByteSink
	filter *filterPipeline
}

func newWindow(size int) *window {
	return &window{
		buf:    make([]byte, size),
		size:   size,
		filter: newFilterPipeline(),
	}
}

// wrapIndex folds an index that may have drifted at most one windowful
// below zero or at or above size back into [0, size). RAR5 window
// sizes are not generally powers of two (see WindowSizeForProperties),
// so unlike a classic ring buffer this can't be done with a bitmask.
func (w *window) wrapIndex(i int) int {
	if i < 0 {
		return i + w.size
	}
	if i >= w.size {
		return i - w.size
	}
	return i
}

// resize grows the window to size, preserving trailing bytes already
// written so that backreferences from the new file's start can still
// reach them; called when a later file in a solid chain requests a
// larger dictionary than the one currently allocated.
func (w *window) resize(size int) {
	if size <= w.size {
		return
	}
	old := w.size
	n := old
	if int64(n) > w.lzSize {
		n = int(w.lzSize)
	}
	nb := make([]byte, size)
	for i := 0; i < n; i++ {
		srcIdx := (w.pos - n + i + old) % old
		nb[i] = w.buf[srcIdx]
	}
	w.buf = nb
	w.size = size
	w.pos = n % size
}

// startFile records the lzSize offset this file's output begins and
// ends at, used to validate the unpacked-size contract and to judge
// solid continuity for the next file. unpackedSize may be
// UnknownSize, in which case lzFileEnd is only a placeholder until the
// caller fixes it up (via setFileEnd) once decoding finds the actual
// end.
func (w *window) startFile(unpackedSize int64, sink ByteSink, keepDictionary bool) {
	if !keepDictionary {
		w.reset()
	}
	w.lzFileStart = w.lzSize
	if unpackedSize < 0 {
		w.lzFileEnd = w.lzSize
	} else {
		w.lzFileEnd = w.lzSize + unpackedSize
	}
	w.lzWritten = w.lzSize
	w.sink = sink
	w.filter.reset()
}

// setFileEnd fixes up lzFileEnd once decoding an UnknownSize file has
// found its actual end, so flush and continuesSolid see the real
// boundary instead of startFile's placeholder.
func (w *window) setFileEnd(end int64) { w.lzFileEnd = end }

// reset discards all dictionary content and stream position state, for
// a non-solid-continuing file.
func (w *window) reset() {
	for i := range w.buf {
		w.buf[i] = 0
	}
	w.pos = 0
	w.lzSize = 0
	w.lzWritten = 0
	w.repDist = [4]uint32{}
}

// continuesSolid reports whether this window's current state is close
// enough to the end of the prior file's output for the next file to
// reuse it as dictionary context without a reset.
func (w *window) continuesSolid() bool {
	delta := w.lzSize - w.lzFileEnd
	if delta < 0 {
		delta = -delta
	}
	return delta <= solidRecoverLimit
}

// putByte appends one byte to the dictionary at the current position.
func (w *window) putByte(b byte) {
	w.buf[w.pos] = b
	w.pos++
	if w.pos == w.size {
		w.pos = 0
	}
	w.lzSize++
}

// at returns the dictionary byte dist positions before the current
// write cursor (1 <= dist <= size).
func (w *window) at(dist int) byte {
	return w.buf[w.wrapIndex(w.pos-dist)]
}

// copyMatch appends length bytes, each copied from dist positions
// behind the write cursor at the time of that byte's write (so
// dist < length produces the classic overlapping LZ77 repeat).
func (w *window) copyMatch(dist, length int) {
	for i := 0; i < length; i++ {
		w.putByte(w.at(dist))
	}
}

// shouldFlush reports whether the engine's main loop should call flush
// now rather than waiting for a filter boundary or file end: either the
// write-step cadence has elapsed, or unflushed bytes have grown close
// enough to a full window that copyMatch/putByte would otherwise wrap
// over output that hasn't reached the sink yet.
func (w *window) shouldFlush() bool {
	unflushed := w.lzSize - w.lzWritten
	if unflushed >= writeStepSize {
		return true
	}
	return unflushed >= int64(w.size)-maxMatchLen
}

// flush pushes dictionary bytes in [lzWritten, lzSize) through the
// filter pipeline and on to the sink, honoring any filters queued
// against this range and the file's declared end. It must be called
// whenever the engine reaches a filter boundary, write-step boundary or
// file end, and may be called opportunistically to bound memory use.
func (w *window) flush(upTo int64) error {
	if upTo > w.lzSize {
		upTo = w.lzSize
	}
	for w.lzWritten < upTo {
		next, plain := w.filter.nextBoundary(w.lzWritten, upTo)
		if plain > 0 {
			if err := w.writeRange(w.lzWritten, w.lzWritten+plain); err != nil {
				return err
			}
			w.lzWritten += plain
			continue
		}
		if !w.filter.ready(w.lzSize) {
			// The queued filter's input range isn't fully produced
			// yet; stop here and let a later flush call pick up once
			// the engine has advanced lzSize far enough.
			return nil
		}
		out, consumed, err := w.filter.apply(w)
		if err != nil {
			return err
		}
		if len(out) > 0 {
			if err := w.sink.Write(out); err != nil {
				return ioErrorf(err, "write filtered output")
			}
		}
		w.lzWritten += consumed
		_ = next
	}
	return nil
}

// writeRange writes the raw dictionary bytes in [from, to) to the
// sink, handling the circular wraparound.
func (w *window) writeRange(from, to int64) error {
	n := int(to - from)
	if n <= 0 {
		return nil
	}
	// The write cursor is w.pos after lzSize bytes have been appended;
	// byte at absolute position p lives at w.wrapIndex(w.pos - (lzSize-p)).
	start := w.wrapIndex(w.pos - int(w.lzSize-from))
	if start+n <= w.size {
		if err := w.sink.Write(w.buf[start : start+n]); err != nil {
			return ioErrorf(err, "write output")
		}
		return nil
	}
	first := w.size - start
	if err := w.sink.Write(w.buf[start:w.size]); err != nil {
		return ioErrorf(err, "write wrapped output")
	}
	if err := w.sink.Write(w.buf[:n-first]); err != nil {
		return ioErrorf(err, "write wrapped output")
	}
	return nil
}

// readRangeInto copies the raw dictionary bytes in [from, to) into dst,
// used by filters that need to read back bytes they already produced.
func (w *window) readRangeInto(from, to int64, dst []byte) {
	n := int(to - from)
	if n <= 0 {
		return
	}
	start := w.wrapIndex(w.pos - int(w.lzSize-from))
	if start+n <= w.size {
		copy(dst, w.buf[start:start+n])
		return
	}
	first := w.size - start
	copy(dst, w.buf[start:w.size])
	copy(dst[first:], w.buf[:n-first])
}
