// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package disk

import "github.com/kernellab/core/internal/core"

// MemDisk is an in-memory Disk, useful for tests that don't need
// durability across process restarts.
type MemDisk struct {
	sectors    [][]byte
	sectorSize int
}

// NewMemDisk creates an empty, zero-filled in-memory disk.
func NewMemDisk(sectorSize, numSectors int) *MemDisk {
	sectors := make([][]byte, numSectors)
	for i := range sectors {
		sectors[i] = make([]byte, sectorSize)
	}
	return &MemDisk{sectors: sectors, sectorSize: sectorSize}
}

// SectorSize implements Disk.
func (d *MemDisk) SectorSize() int { return d.sectorSize }

// NumSectors implements Disk.
func (d *MemDisk) NumSectors() int { return len(d.sectors) }

// ReadSector implements Disk.
func (d *MemDisk) ReadSector(n core.SectorNum, buf []byte) error {
	if err := checkBounds(n, buf, len(d.sectors), d.sectorSize); err != nil {
		return err
	}
	copy(buf, d.sectors[n])
	return nil
}

// WriteSector implements Disk.
func (d *MemDisk) WriteSector(n core.SectorNum, buf []byte) error {
	if err := checkBounds(n, buf, len(d.sectors), d.sectorSize); err != nil {
		return err
	}
	copy(d.sectors[n], buf)
	return nil
}

// Close implements Disk. It is a no-op for an in-memory disk.
func (d *MemDisk) Close() error { return nil }
