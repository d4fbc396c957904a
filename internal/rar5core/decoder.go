// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rar5core

// Properties is the 2-byte per-file decoder configuration, positional
// exactly as spec.md §6 lays it out: byte 0 is pow, byte 1 packs
// frac (bits 3-7), v7 (bit 1), and solid (bit 0).
type Properties [2]byte

// Pow is the dictionary-size exponent, 0..31.
func (p Properties) Pow() int { return int(p[0]) }

// Frac is the dictionary-size fraction, 0..31.
func (p Properties) Frac() int { return int(p[1]>>3) & 0x1F }

// V7 reports whether the file's Huffman tables use v7 alphabet sizes
// (80 distance symbols instead of 64).
func (p Properties) V7() bool { return p[1]&0x02 != 0 }

// Solid reports whether this file asks to continue the previous
// file's dictionary and LZ state, subject to the solid-continuity
// predicate in window.continuesSolid.
func (p Properties) Solid() bool { return p[1]&0x01 != 0 }

// WindowSizeForProperties turns pow/frac into a concrete dictionary
// size per spec.md §3: (frac+32) << (pow+12), rejecting any pair that
// would exceed 2^31.
func WindowSizeForProperties(pow, frac int) (int, error) {
	if pow < 0 || pow > 31 || frac < 0 || frac > 31 {
		return 0, corruptf("dictionary properties out of range: pow=%d frac=%d", pow, frac)
	}
	if pow+((frac+31)>>5) > 14 {
		return 0, corruptf("dictionary size exceeds 2^31: pow=%d frac=%d", pow, frac)
	}
	size := (frac + 32) << uint(pow+12)
	if size < minWindowSize {
		size = minWindowSize
	}
	return size, nil
}

// Decoder is a reusable RAR5 LZ engine. One Decoder serves an entire
// solid chain: callers call DecodeFile once per archived file, with
// Properties.Solid() true for every file after the first in the same
// chain so the dictionary and repeat-distance registers carry over
// (subject to ContinuesSolid — the orchestrator is responsible for
// forcing solid=false when that predicate fails).
type Decoder struct {
	br     *bitReader
	win    *window
	tables *decoderTables

	lastLength   int
	lastDistance uint32

	blockOpen bool
}

// NewDecoder returns a Decoder ready for its first file.
func NewDecoder() *Decoder {
	return &Decoder{tables: newDecoderTables()}
}

// UnknownSize is passed as unpackedSize to DecodeFile for a file whose
// declared size is not known ahead of time; decoding then runs until
// the final Huffman block is exhausted instead of until a byte count
// is reached, and the unpacked-size-mismatch check is skipped.
const UnknownSize int64 = -1

// DecodeFile decompresses src (which must hold exactly one file's
// worth of compressed blocks) into sink, stopping at unpackedSize
// bytes of output (or UnknownSize to run to the stream's last block).
// When properties.Solid() is false, the decoder discards any prior
// dictionary state and starts a fresh bitstream; when true, it
// continues the previous file's dictionary, repeat-distance
// registers, and in-flight Huffman block.
func (d *Decoder) DecodeFile(src ByteSource, sink ByteSink, properties Properties, unpackedSize int64) error {
	size, err := WindowSizeForProperties(properties.Pow(), properties.Frac())
	if err != nil {
		return err
	}
	fresh := !properties.Solid() || d.win == nil
	if fresh {
		d.win = newWindow(size)
		d.br = newBitReader(src)
		d.tables.built = false
		d.blockOpen = false
		d.lastLength, d.lastDistance = 0, 0
	} else {
		d.win.resize(size)
		d.br.reset(src)
	}
	d.win.startFile(unpackedSize, sink, !fresh)

	unknown := unpackedSize == UnknownSize
	target := int64(1)<<62 - 1
	if !unknown {
		target = d.win.lzFileStart + unpackedSize
	}

	for {
		if !d.blockOpen {
			tablesPresent, err := readBlockHeader(d.br)
			if err != nil {
				return err
			}
			if tablesPresent {
				if err := d.tables.readTables(d.br, properties.V7()); err != nil {
					return err
				}
			} else if !d.tables.built {
				return corruptf("first block of stream is missing its code tables")
			}
			d.blockOpen = true
		}

		reached, err := d.decodeBlockSymbols(d.br, target)
		if err != nil {
			return err
		}
		if reached {
			break
		}

		wasLast := d.br.isLastBlock
		d.br.alignToByte()
		d.blockOpen = false
		if wasLast {
			if unknown {
				break
			}
			return corruptf("compressed stream ended before declared unpacked size")
		}
	}

	written := d.win.lzSize - d.win.lzFileStart
	if !unknown && written != unpackedSize {
		return corruptf("unpacked size mismatch: produced %d, expected %d", written, unpackedSize)
	}
	if unknown {
		d.win.setFileEnd(d.win.lzSize)
	}
	if err := d.win.flush(d.win.lzFileEnd); err != nil {
		return err
	}
	if d.br.err() != nil {
		return ioErrorf(d.br.err(), "reading compressed stream")
	}
	if d.br.minorError && written == 0 {
		return corruptf("bitstream inconsistency with no output produced")
	}
	return nil
}

// ContinuesSolid reports whether the decoder's current dictionary
// state is close enough to its last file's declared end to serve as
// context for the next file without a reset, per the solid-recovery
// limit in spec.md §3. Callers must pass this (or its own cached
// knowledge of the same predicate) when deciding whether to clear
// Properties.Solid() for the next file in a chain.
func (d *Decoder) ContinuesSolid() bool {
	return d.win != nil && d.win.continuesSolid()
}
