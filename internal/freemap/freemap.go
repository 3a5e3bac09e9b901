// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package freemap implements the persistent sector-allocation bitmap.
// Every allocation and deallocation of a data or header
// sector routes through a FreeMap; it is the sole arbiter of sector
// ownership.
package freemap

import (
	log "github.com/golang/glog"

	"github.com/kernellab/core/internal/core"
)

// FreeMap is a bitmap of size numSectors, one bit per sector. It is an
// in-memory structure; callers are responsible for persisting it (via
// Bytes/Load) into a backing file the way every other kernel structure is
// persisted, since the free map only knows about bits, not files.
type FreeMap struct {
	bits       []byte
	numSectors int
}

// New creates a FreeMap with all bits clear.
func New(numSectors int) *FreeMap {
	return &FreeMap{
		bits:       make([]byte, byteLen(numSectors)),
		numSectors: numSectors,
	}
}

func byteLen(numSectors int) int {
	return (numSectors + 7) / 8
}

// NumSectors returns the size of the bitmap.
func (f *FreeMap) NumSectors() int {
	return f.numSectors
}

// Test reports whether sector n is marked allocated.
func (f *FreeMap) Test(n core.SectorNum) bool {
	i := int(n)
	return f.bits[i/8]&(1<<uint(i%8)) != 0
}

// Mark allocates sector n. It is a precondition violation to mark a
// sector that is already allocated.
func (f *FreeMap) Mark(n core.SectorNum) {
	if f.Test(n) {
		core.PreconditionViolated("freemap: double-mark of sector %d", n)
	}
	i := int(n)
	f.bits[i/8] |= 1 << uint(i%8)
}

// Clear deallocates sector n. It is a precondition violation to clear a
// sector that is not currently allocated.
func (f *FreeMap) Clear(n core.SectorNum) {
	if !f.Test(n) {
		core.PreconditionViolated("freemap: double-clear of sector %d", n)
	}
	i := int(n)
	f.bits[i/8] &^= 1 << uint(i%8)
}

// FindAndSet returns the lowest-indexed clear bit and marks it allocated,
// or -1 (core.NoSector) if the map is full.
func (f *FreeMap) FindAndSet() core.SectorNum {
	for i := 0; i < f.numSectors; i++ {
		if f.bits[i/8]&(1<<uint(i%8)) == 0 {
			f.bits[i/8] |= 1 << uint(i%8)
			return core.SectorNum(i)
		}
	}
	log.Infof("freemap: no free sectors among %d", f.numSectors)
	return core.NoSector
}

// NumClear returns the count of currently unallocated sectors.
func (f *FreeMap) NumClear() int {
	count := 0
	for i := 0; i < f.numSectors; i++ {
		if f.bits[i/8]&(1<<uint(i%8)) == 0 {
			count++
		}
	}
	return count
}

// Bytes returns the raw bitmap for persistence. The caller must not
// retain a reference past the next mutation of f.
func (f *FreeMap) Bytes() []byte {
	return f.bits
}

// Load replaces the bitmap contents from previously persisted bytes.
func Load(numSectors int, raw []byte) *FreeMap {
	f := New(numSectors)
	copy(f.bits, raw)
	return f
}
