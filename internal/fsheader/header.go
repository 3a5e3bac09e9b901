// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package fsheader implements the linked-index file header chain: a
// singly linked list of fixed-size index blocks, each holding direct
// pointers to data sectors, modeling arbitrary-length
// files over a fixed-capacity index block.
//
// The in-memory "loaded header node" (which carries a live pointer to its
// chained successor) is kept distinct from the on-disk image (which
// carries only the persisted fields); Load and Save translate between the
// two explicitly instead of sharing one struct for both representations.
package fsheader

import (
	log "github.com/golang/glog"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/freemap"
	"github.com/kernellab/core/pkg/disk"
)

// Header is one node of a file's header chain, bound to the sector it
// lives on. next is nil until Load walks the chain or Allocate builds it.
type Header struct {
	d      disk.Disk
	sector core.SectorNum
	image  onDiskImage
	next   *Header
}

// New creates an unallocated, empty header bound to sector, ready for
// Allocate to fill in.
func New(d disk.Disk, sector core.SectorNum) *Header {
	return &Header{
		d:      d,
		sector: sector,
		image:  onDiskImage{NextHeaderSector: core.NoNextHeader},
	}
}

// Sector returns the sector this header node occupies.
func (h *Header) Sector() core.SectorNum {
	return h.sector
}

// Allocate fills h (and, if fileSize exceeds one header's direct
// capacity, a chain of newly-sectored successor headers) with data
// sectors sufficient to hold fileSize bytes.
//
// It fails with core.ErrNoSpace, leaving the free map's already-taken
// bits in place, if the free map cannot supply enough sectors; callers
// abandon the whole in-memory chain (and any free-map bits it consumed)
// on failure rather than attempting to roll the partial allocation back.
func (h *Header) Allocate(fm *freemap.FreeMap, fileSize int) core.Error {
	take := fileSize
	if take > core.MaxFileSize {
		take = core.MaxFileSize
	}
	rem := fileSize - take
	need := (take + core.SectorSize - 1) / core.SectorSize

	if fm.NumClear() < need {
		log.Infof("fsheader: allocate of %d bytes needs %d sectors, only %d free", fileSize, need, fm.NumClear())
		return core.ErrNoSpace
	}

	for i := 0; i < need; i++ {
		s := fm.FindAndSet()
		h.image.DataSectors[i] = int32(s)
	}
	h.image.NumSectors = int32(need)
	h.image.NumBytes = int32(take)

	if rem <= 0 {
		h.image.NextHeaderSector = core.NoNextHeader
		return core.NoError
	}

	nextSector := fm.FindAndSet()
	if !nextSector.IsValid() {
		return core.ErrNoSpace
	}
	h.next = New(h.d, nextSector)
	h.image.NextHeaderSector = int32(nextSector)
	return h.next.Allocate(fm, rem)
}

// Deallocate clears every data sector and every chained header sector
// this chain owns, including h's own sector, in the free map.
func (h *Header) Deallocate(fm *freemap.FreeMap) {
	for i := 0; i < int(h.image.NumSectors); i++ {
		fm.Clear(core.SectorNum(h.image.DataSectors[i]))
	}
	if h.next != nil {
		h.next.Deallocate(fm)
	}
	fm.Clear(h.sector)
}

// Collect appends every sector this chain owns -- its own header sector
// and every data sector, recursively through the chain -- into sectors,
// without touching the free map. Used by directory.CollectForRemoval to
// build a single set of sectors to free in one pass.
func (h *Header) Collect(sectors map[core.SectorNum]bool) {
	sectors[h.sector] = true
	for i := 0; i < int(h.image.NumSectors); i++ {
		sectors[core.SectorNum(h.image.DataSectors[i])] = true
	}
	if h.next != nil {
		h.next.Collect(sectors)
	}
}

// FileLength returns the sum of numBytes along the chain.
func (h *Header) FileLength() int {
	total := int(h.image.NumBytes)
	if h.next != nil {
		total += h.next.FileLength()
	}
	return total
}

// SectorForOffset translates a byte offset into the file to the data
// sector that holds it, recursing into the chain as needed.
func (h *Header) SectorForOffset(offset int) core.SectorNum {
	local := offset / core.SectorSize
	if local < core.NumDirect {
		return core.SectorNum(h.image.DataSectors[local])
	}
	if h.next == nil {
		core.PreconditionViolated("fsheader: offset %d has no chained header", offset)
	}
	return h.next.SectorForOffset(offset - core.MaxFileSize)
}

// Load reads the header chain starting at sector from disk, recursively
// loading every chained successor.
func Load(d disk.Disk, sector core.SectorNum) *Header {
	buf := make([]byte, d.SectorSize())
	if err := d.ReadSector(sector, buf); err != nil {
		log.Fatalf("fsheader: read sector %d: %v", sector, err)
	}
	h := &Header{d: d, sector: sector, image: decodeImage(buf)}
	if h.image.NextHeaderSector != core.NoNextHeader {
		h.next = Load(d, core.SectorNum(h.image.NextHeaderSector))
	}
	return h
}

// Save writes the header chain back to disk, one sector per node.
func (h *Header) Save() {
	buf := make([]byte, h.d.SectorSize())
	h.image.encode(buf)
	if err := h.d.WriteSector(h.sector, buf); err != nil {
		log.Fatalf("fsheader: write sector %d: %v", h.sector, err)
	}
	if h.next != nil {
		h.next.Save()
	}
}
