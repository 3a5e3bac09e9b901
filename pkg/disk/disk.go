// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package disk implements the simulated block device the rest of the
// kernel treats as the sole collaborator for durability: fixed-size
// sectors addressed by integer, read and written synchronously. The
// instruction-set simulator and its interrupt clock are out of scope
// here; this package only ever plays the role of "sector I/O".
package disk

import (
	"fmt"

	"github.com/kernellab/core/internal/core"
)

// Disk is the sector I/O collaborator every other kernel package depends
// on. SectorSize and NumSectors are fixed for the lifetime of a Disk.
type Disk interface {
	// ReadSector reads exactly SectorSize bytes into buf from sector n.
	ReadSector(n core.SectorNum, buf []byte) error

	// WriteSector writes exactly SectorSize bytes from buf to sector n.
	WriteSector(n core.SectorNum, buf []byte) error

	// SectorSize returns the fixed transfer size in bytes.
	SectorSize() int

	// NumSectors returns the fixed sector count.
	NumSectors() int

	// Close releases any resources backing the disk.
	Close() error
}

// ErrBadSector is returned when a sector number is out of range.
type ErrBadSector core.SectorNum

func (e ErrBadSector) Error() string {
	return fmt.Sprintf("sector %d out of range", int(e))
}

// ErrBadBuffer is returned when a caller's buffer is not exactly one
// sector long.
type ErrBadBuffer struct {
	Want, Got int
}

func (e ErrBadBuffer) Error() string {
	return fmt.Sprintf("buffer has %d bytes, want %d", e.Got, e.Want)
}

func checkBounds(n core.SectorNum, buf []byte, numSectors, sectorSize int) error {
	if int(n) < 0 || int(n) >= numSectors {
		return ErrBadSector(n)
	}
	if len(buf) != sectorSize {
		return ErrBadBuffer{Want: sectorSize, Got: len(buf)}
	}
	return nil
}
