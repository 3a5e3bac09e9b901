// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package fsheader

import "github.com/kernellab/core/internal/core"

// ReadAt copies up to len(buf) bytes starting at offset into buf, never
// reading past FileLength(). It returns the number of bytes copied.
func (h *Header) ReadAt(buf []byte, offset int) int {
	length := h.FileLength()
	if offset >= length {
		return 0
	}
	want := len(buf)
	if offset+want > length {
		want = length - offset
	}

	n := 0
	sectorBuf := make([]byte, h.d.SectorSize())
	for n < want {
		sector := h.SectorForOffset(offset + n)
		sectorOff := (offset + n) % core.SectorSize
		if err := h.d.ReadSector(sector, sectorBuf); err != nil {
			core.PreconditionViolated("fsheader: read sector %d: %v", sector, err)
		}
		chunk := copy(buf[n:want], sectorBuf[sectorOff:])
		n += chunk
	}
	return n
}

// WriteAt copies len(buf) bytes from buf into the file starting at
// offset. The caller must ensure offset+len(buf) does not exceed
// FileLength(); files cannot be resized after creation.
func (h *Header) WriteAt(buf []byte, offset int) {
	if offset+len(buf) > h.FileLength() {
		core.PreconditionViolated("fsheader: write [%d,%d) exceeds file length %d", offset, offset+len(buf), h.FileLength())
	}

	n := 0
	sectorBuf := make([]byte, h.d.SectorSize())
	for n < len(buf) {
		sector := h.SectorForOffset(offset + n)
		sectorOff := (offset + n) % core.SectorSize

		// Partial-sector writes must preserve the untouched bytes of the
		// sector, so read-modify-write.
		remaining := len(buf) - n
		if sectorOff != 0 || remaining < core.SectorSize {
			if err := h.d.ReadSector(sector, sectorBuf); err != nil {
				core.PreconditionViolated("fsheader: read sector %d: %v", sector, err)
			}
		}
		chunk := copy(sectorBuf[sectorOff:], buf[n:])
		if err := h.d.WriteSector(sector, sectorBuf); err != nil {
			core.PreconditionViolated("fsheader: write sector %d: %v", sector, err)
		}
		n += chunk
	}
}
