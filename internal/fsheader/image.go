// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package fsheader

import (
	"encoding/binary"

	"github.com/kernellab/core/internal/core"
)

// reservedSlotBytes is the leading region of a header sector that is
// never serialized. In-memory, the equivalent slot holds Header.next; on
// disk it is always written as zero and ignored on read.
const reservedSlotBytes = 4

// onDiskImage is exactly what gets persisted for one header sector:
// numBytes, numSectors, nextHeaderSector, and the direct pointer array,
// starting at offset reservedSlotBytes.
type onDiskImage struct {
	NumBytes         int32
	NumSectors       int32
	NextHeaderSector int32
	DataSectors      [core.NumDirect]int32
}

// encode serializes img into buf, which must be exactly one sector long.
func (img onDiskImage) encode(buf []byte) {
	for i := 0; i < reservedSlotBytes; i++ {
		buf[i] = 0
	}
	off := reservedSlotBytes
	binary.LittleEndian.PutUint32(buf[off:], uint32(img.NumBytes))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(img.NumSectors))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(img.NextHeaderSector))
	off += 4
	for i := 0; i < core.NumDirect; i++ {
		binary.LittleEndian.PutUint32(buf[off:], uint32(img.DataSectors[i]))
		off += 4
	}
}

// decodeImage parses a header sector's persisted region back into an
// onDiskImage. The reserved slot at the front is skipped, never read.
func decodeImage(buf []byte) onDiskImage {
	var img onDiskImage
	off := reservedSlotBytes
	img.NumBytes = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	img.NumSectors = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	img.NextHeaderSector = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	for i := 0; i < core.NumDirect; i++ {
		img.DataSectors[i] = int32(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
	}
	return img
}
