// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rarfmt

import (
	"bufio"
	"fmt"
)

// ReadBlock reads one block header starting at the current position
// of r, verifies its CRC32, and returns the parsed variant. The block's
// data area, if any, follows immediately in r; Common().DataOffset
// gives its position as archiveOffset (the block's own start) plus the
// header length.
func ReadBlock(r *bufio.Reader, archiveOffset int64) (Block, error) {
	crc, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	// CRC32 is stored little-endian ahead of the fields it covers; back
	// it out explicitly rather than threading it through crcReader.
	b2, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	b3, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	b4, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	storedCRC := uint32(crc) | uint32(b2)<<8 | uint32(b3)<<16 | uint32(b4)<<24

	cr := newCRCReader(r)
	headerSize, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	typ, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	flags, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}

	common := CommonHeader{HeaderSize: headerSize, Flags: flags}
	if common.hasExtra() {
		common.ExtraSize, err = ReadVInt(cr)
		if err != nil {
			return nil, err
		}
	}
	if common.hasData() {
		common.DataSize, err = ReadVInt(cr)
		if err != nil {
			return nil, err
		}
	}

	var blk Block
	switch HeaderType(typ) {
	case HeaderMain:
		blk, err = readMainBlock(cr, common)
	case HeaderFile, HeaderService:
		blk, err = readFileBlock(cr, common, HeaderType(typ) == HeaderService)
	case HeaderEncryption:
		blk, err = readEncryptionBlock(cr, common)
	case HeaderEnd:
		blk, err = readEndBlock(cr, common)
	default:
		return nil, fmt.Errorf("rarfmt: unknown header type %d", typ)
	}
	if err != nil {
		return nil, err
	}

	if cr.hash != storedCRC {
		return nil, fmt.Errorf("rarfmt: header CRC32 mismatch (type %s): got %08x want %08x",
			HeaderType(typ), cr.hash, storedCRC)
	}

	c := blk.Common()
	c.CRC32 = storedCRC
	c.DataOffset = archiveOffset + 4 + int64(headerSizeFieldWidth(headerSize)) + int64(headerSize)
	setCommon(blk, c)
	return blk, nil
}

// headerSizeFieldWidth returns how many bytes the canonical VInt
// encoding of v occupies, so DataOffset can be computed from the
// already-decoded value instead of tracking raw bytes read.
func headerSizeFieldWidth(v uint64) int {
	n := 1
	for v >>= 7; v > 0; v >>= 7 {
		n++
	}
	return n
}

func setCommon(blk Block, c CommonHeader) {
	switch b := blk.(type) {
	case *MainBlock:
		b.CommonHeader = c
	case *FileBlock:
		b.CommonHeader = c
	case *EncryptionBlock:
		b.CommonHeader = c
	case *EndBlock:
		b.CommonHeader = c
	}
}

func readMainBlock(cr *crcReader, common CommonHeader) (*MainBlock, error) {
	archiveFlags, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	b := &MainBlock{CommonHeader: common, ArchiveFlags: archiveFlags}
	if archiveFlags&0x0002 != 0 {
		b.VolumeNumber, err = ReadVInt(cr)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func readEndBlock(cr *crcReader, common CommonHeader) (*EndBlock, error) {
	endFlags, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	return &EndBlock{CommonHeader: common, EndFlags: endFlags}, nil
}

func readEncryptionBlock(cr *crcReader, common CommonHeader) (*EncryptionBlock, error) {
	algo, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	flags, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	count, err := cr.ReadByte()
	if err != nil {
		return nil, err
	}
	var salt [16]byte
	if _, err := cr.Read(salt[:]); err != nil {
		return nil, err
	}
	b := &EncryptionBlock{CommonHeader: common, KDFAlgorithm: algo, KDFCount: count, Salt: salt}
	if flags&0x0001 != 0 {
		b.CheckValue, err = readBytes(cr, 12)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func readFileBlock(cr *crcReader, common CommonHeader, isService bool) (*FileBlock, error) {
	fileFlags, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	unpackedSize, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	attrs, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	b := &FileBlock{
		CommonHeader: common,
		FileFlags:    fileFlags,
		UnpackedSize: unpackedSize,
		Attributes:   attrs,
		IsService:    isService,
	}
	if fileFlags&0x0002 != 0 {
		mt, err := ReadVInt(cr)
		if err != nil {
			return nil, err
		}
		b.MTime = uint32(mt)
	}
	if fileFlags&0x0004 != 0 {
		c1, _ := cr.ReadByte()
		c2, _ := cr.ReadByte()
		c3, _ := cr.ReadByte()
		c4, err := cr.ReadByte()
		if err != nil {
			return nil, err
		}
		b.DataCRC32 = uint32(c1) | uint32(c2)<<8 | uint32(c3)<<16 | uint32(c4)<<24
	}
	compInfo, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	b.CompressionInfo = compInfo
	hostOS, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	b.HostOS = hostOS
	nameLen, err := ReadVInt(cr)
	if err != nil {
		return nil, err
	}
	name, err := readString(cr, int(nameLen))
	if err != nil {
		return nil, err
	}
	b.Name = name

	if common.hasExtra() {
		if err := readExtraArea(cr, common.ExtraSize, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
