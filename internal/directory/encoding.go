// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package directory

import (
	"encoding/binary"

	"github.com/kernellab/core/internal/core"
)

// Packed layout per entry: inUse(1) + name(FileNameMaxLen+1)
// + sector(4) + type(4), no padding.
const nameField = core.FileNameMaxLen + 1

func (d *Directory) encode(buf []byte) {
	off := 0
	for _, e := range d.entries {
		if e.InUse {
			buf[off] = 1
		} else {
			buf[off] = 0
		}
		off++

		var nameBuf [nameField]byte
		copy(nameBuf[:], e.Name)
		copy(buf[off:off+nameField], nameBuf[:])
		off += nameField

		binary.LittleEndian.PutUint32(buf[off:], uint32(e.Sector))
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], uint32(e.Type))
		off += 4
	}
}

func decode(buf []byte) *Directory {
	d := New()
	off := 0
	for i := range d.entries {
		inUse := buf[off] != 0
		off++

		nameBuf := buf[off : off+nameField]
		nameLen := 0
		for nameLen < len(nameBuf) && nameBuf[nameLen] != 0 {
			nameLen++
		}
		name := string(nameBuf[:nameLen])
		off += nameField

		sector := core.SectorNum(int32(binary.LittleEndian.Uint32(buf[off:])))
		off += 4
		typ := EntryType(int32(binary.LittleEndian.Uint32(buf[off:])))
		off += 4

		d.entries[i] = Entry{InUse: inUse, Name: name, Sector: sector, Type: typ}
	}
	return d
}
