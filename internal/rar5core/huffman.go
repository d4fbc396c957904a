// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rar5core

// This is a canonical, length-limited (L=15) Huffman decoder built the
// same way as the classic two-level scheme used by bzip2 and deflate
// decoders: codes are assigned in ascending (length, symbol) order, a
// direct-indexed fast table resolves any code of F bits or fewer in one
// lookup, and a small threshold table resolves the rest.

const maxCodeLen = 15

// huffMode controls how build validates the Kraft sum of the supplied
// code lengths.
type huffMode int

const (
	// huffFull requires the Kraft sum to equal exactly 2^15.
	huffFull huffMode = iota
	// huffFullOrEmpty additionally accepts an all-zero length table
	// (an alphabet with no symbols in this block).
	huffFullOrEmpty
	// huffPartial accepts a Kraft sum of at most 2^15.
	huffPartial
)

// huffmanDecoder is a two-level canonical Huffman decoder: a direct
// lookup for prefixes of fastBits or fewer bits, and a threshold search
// for the remainder, up to maxCodeLen bits.
type huffmanDecoder struct {
	fastBits uint
	fastLen  []uint8  // code length for this fast-table entry, 0 if not resolved here
	fastSym  []uint16 // symbol for this fast-table entry

	threshold [maxCodeLen + 1]uint32 // smallest 15-bit left-aligned code for length l
	offset    [maxCodeLen + 2]int    // index into symbols where length l's codes start
	symbols   []uint16               // symbols ordered by ascending (length, code)

	empty bool
}

func newHuffmanDecoder(fastBits uint) *huffmanDecoder {
	return &huffmanDecoder{
		fastBits: fastBits,
		fastLen:  make([]uint8, 1<<fastBits),
		fastSym:  make([]uint16, 1<<fastBits),
	}
}

// build constructs the decoder from a per-symbol array of code lengths
// (0 meaning "unused"). It returns false if any length exceeds
// maxCodeLen, or if the Kraft sum doesn't satisfy mode's requirement;
// callers treat a false return as corruption.
func (h *huffmanDecoder) build(lengths []uint8, mode huffMode) bool {
	var blCount [maxCodeLen + 2]int
	anyUsed := false
	for _, l := range lengths {
		if l == 0 {
			continue
		}
		if l > maxCodeLen {
			return false
		}
		blCount[l]++
		anyUsed = true
	}

	for i := range h.fastLen {
		h.fastLen[i] = 0
	}
	h.threshold = [maxCodeLen + 1]uint32{}
	h.offset = [maxCodeLen + 2]int{}
	h.symbols = h.symbols[:0]
	h.empty = false

	if !anyUsed {
		if mode != huffFullOrEmpty {
			return false
		}
		h.empty = true
		return true
	}

	// Kraft sum, scaled so that a length-maxCodeLen code counts as 1.
	var kraft int64
	for l := 1; l <= maxCodeLen; l++ {
		kraft += int64(blCount[l]) << uint(maxCodeLen-l)
	}
	full := int64(1) << maxCodeLen
	switch mode {
	case huffPartial:
		if kraft > full {
			return false
		}
	default:
		if kraft != full {
			return false
		}
	}

	var firstCode [maxCodeLen + 2]int
	code := 0
	for l := 1; l <= maxCodeLen; l++ {
		code = (code + blCount[l-1]) << 1
		firstCode[l] = code
	}

	// offset[l] = number of symbols with length < l, in the ascending
	// (length, symbol) ordering used by symbols.
	running := 0
	for l := 1; l <= maxCodeLen; l++ {
		h.offset[l] = running
		running += blCount[l]
	}
	h.offset[maxCodeLen+1] = running
	h.symbols = make([]uint16, running)

	nextCode := firstCode
	nextSlot := h.offset
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		h.symbols[nextSlot[l]] = uint16(sym)
		nextSlot[l]++

		if uint(l) <= h.fastBits {
			base := c << (h.fastBits - uint(l))
			span := 1 << (h.fastBits - uint(l))
			for i := 0; i < span; i++ {
				h.fastLen[base+i] = uint8(l)
				h.fastSym[base+i] = uint16(sym)
			}
		}
	}
	for l := 1; l <= maxCodeLen; l++ {
		h.threshold[l] = uint32(firstCode[l]) << uint(maxCodeLen-l)
	}
	return true
}

// decode reads exactly br.getValue(15) worth of lookahead, resolves a
// symbol via the fast table or (for longer codes) the threshold table,
// and advances br by the code's length. It never fails: the bit
// reader's 0xFF padding past EOF always forms some code.
func (h *huffmanDecoder) decode(br *bitReader) uint16 {
	if h.empty {
		return 0
	}
	v15 := br.getValue(maxCodeLen)
	fastIdx := v15 >> (maxCodeLen - h.fastBits)
	if l := h.fastLen[fastIdx]; l != 0 {
		br.movePos(uint(l))
		return h.fastSym[fastIdx]
	}
	for l := h.fastBits + 1; l <= maxCodeLen; l++ {
		span := h.offset[l+1] - h.offset[l]
		if span == 0 {
			continue
		}
		upper := h.threshold[l] + uint32(span)<<uint(maxCodeLen-l)
		if v15 < upper {
			idx := h.offset[l] + int((v15-h.threshold[l])>>uint(maxCodeLen-l))
			br.movePos(l)
			return h.symbols[idx]
		}
	}
	// Unreachable for a correctly built table: the Kraft sum guarantees
	// full coverage of the 15-bit code space. Fall back to the longest
	// code's last symbol rather than panicking on corrupt input.
	br.movePos(maxCodeLen)
	if len(h.symbols) == 0 {
		return 0
	}
	return h.symbols[len(h.symbols)-1]
}
