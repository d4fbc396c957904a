// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rarfmt

// readExtraArea walks a FileBlock's extra-record chain: each record is
// a VInt size, a VInt type, and size-minus-the-type-field's-width
// bytes of type-specific payload. Unrecognized types are kept as raw
// ExtraRecord entries; recognized ones also populate b's typed fields.
func readExtraArea(cr *crcReader, extraSize uint64, b *FileBlock) error {
	remaining := int64(extraSize)
	for remaining > 0 {
		size, err := ReadVInt(cr)
		if err != nil {
			return err
		}
		typ, err := ReadVInt(cr)
		if err != nil {
			return err
		}
		typWidth := headerSizeFieldWidth(typ)
		payloadLen := int(size) - typWidth
		if payloadLen < 0 {
			return errorString("rarfmt: negative extra-record payload length")
		}
		payload, err := readBytes(cr, payloadLen)
		if err != nil {
			return err
		}
		remaining -= int64(headerSizeFieldWidth(size)) + int64(size)

		b.Extra = append(b.Extra, ExtraRecord{Type: typ, Data: payload})
		parseKnownExtra(b, typ, payload)
	}
	return nil
}

func parseKnownExtra(b *FileBlock, typ uint64, data []byte) {
	switch typ {
	case extraCrypt:
		rec, ok := parseCryptRecord(data)
		if ok {
			b.Crypt = rec
		}

	case extraHTime:
		if len(data) < 1 {
			return
		}
		rec := &NTFSTimeRecord{Flags: uint64(data[0])}
		pos := 1
		readTick := func() uint64 {
			if pos+8 > len(data) {
				return 0
			}
			var v uint64
			for i := 0; i < 8; i++ {
				v |= uint64(data[pos+i]) << (8 * i)
			}
			pos += 8
			return v
		}
		if rec.Flags&0x01 != 0 {
			rec.MTime = readTick()
		}
		if rec.Flags&0x02 != 0 {
			rec.CTime = readTick()
		}
		if rec.Flags&0x04 != 0 {
			rec.ATime = readTick()
		}
		b.NTFSTime = rec

	case extraVersion:
		v, n := decodeVIntBytes(data)
		_ = n
		b.Version = &FileVersionRecord{Version: v}

	case extraRedirect:
		redirType, n := decodeVIntBytes(data)
		rest := data[n:]
		if len(rest) < 1 {
			return
		}
		flags := uint64(rest[0])
		rest = rest[1:]
		nameLen, n2 := decodeVIntBytes(rest)
		rest = rest[n2:]
		if int(nameLen) > len(rest) {
			return
		}
		b.Redirection = &RedirectionRecord{
			RedirType:  redirType,
			Flags:      flags,
			TargetName: string(rest[:nameLen]),
		}

	case extraUnixOwner:
		flags, n := decodeVIntBytes(data)
		rest := data[n:]
		rec := &UnixOwnerRecord{Flags: flags}
		if flags&0x01 != 0 {
			l, n2 := decodeVIntBytes(rest)
			rest = rest[n2:]
			if int(l) <= len(rest) {
				rec.OwnerName = string(rest[:l])
				rest = rest[l:]
			}
		}
		if flags&0x02 != 0 {
			l, n2 := decodeVIntBytes(rest)
			rest = rest[n2:]
			if int(l) <= len(rest) {
				rec.GroupName = string(rest[:l])
				rest = rest[l:]
			}
		}
		if flags&0x04 != 0 {
			v, n2 := decodeVIntBytes(rest)
			rest = rest[n2:]
			rec.OwnerID = v
		}
		if flags&0x08 != 0 {
			v, _ := decodeVIntBytes(rest)
			rec.GroupID = v
		}
		b.UnixOwner = rec
	}
}

// parseCryptRecord decodes a FileCryptRecord's payload: VInt version,
// VInt flags, one KDF-count byte, a 16-byte salt, a 16-byte IV, and
// (Flags&0x01) a 12-byte check value.
func parseCryptRecord(data []byte) (*FileCryptRecord, bool) {
	_, n := decodeVIntBytes(data) // version, unused
	rest := data[n:]
	flags, n2 := decodeVIntBytes(rest)
	rest = rest[n2:]
	if len(rest) < 1+16+16 {
		return nil, false
	}
	rec := &FileCryptRecord{Flags: flags, KDFCount: rest[0]}
	rest = rest[1:]
	copy(rec.Salt[:], rest[:16])
	rest = rest[16:]
	copy(rec.IV[:], rest[:16])
	rest = rest[16:]
	if flags&0x01 != 0 && len(rest) >= 12 {
		rec.CheckValue = append([]byte(nil), rest[:12]...)
	}
	return rec, true
}

// decodeVIntBytes decodes one VInt from the front of buf, returning
// its value and encoded width, for extra-record payloads that are
// already fully buffered in memory.
func decodeVIntBytes(buf []byte) (value uint64, width int) {
	for i, b := range buf {
		value |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return value, i + 1
		}
	}
	return value, len(buf)
}
