// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT
//
// Tests for header.go and image.go
package fsheader

import (
	"testing"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/freemap"
	"github.com/kernellab/core/pkg/disk"
)

func newTestDisk(t *testing.T) disk.Disk {
	t.Helper()
	return disk.NewMemDisk(core.SectorSize, core.NumSectors)
}

func TestAllocateSingleHeader(t *testing.T) {
	d := newTestDisk(t)
	fm := freemap.New(core.NumSectors)
	fm.Mark(0)

	h := New(d, 1)
	fm.Mark(1)
	if err := h.Allocate(fm, core.SectorSize*3); err != core.NoError {
		t.Fatalf("Allocate() = %v, want NoError", err)
	}
	if h.FileLength() != core.SectorSize*3 {
		t.Fatalf("FileLength() = %d, want %d", h.FileLength(), core.SectorSize*3)
	}
	if h.next != nil {
		t.Fatal("small file should not chain a second header")
	}
}

func TestAllocateChainsWhenFileExceedsOneHeader(t *testing.T) {
	d := newTestDisk(t)
	fm := freemap.New(core.NumSectors)
	fm.Mark(0)
	fm.Mark(1)

	h := New(d, 1)
	size := core.MaxFileSize + core.SectorSize*2
	if err := h.Allocate(fm, size); err != core.NoError {
		t.Fatalf("Allocate() = %v, want NoError", err)
	}
	if h.next == nil {
		t.Fatal("file larger than one header should chain a second header")
	}
	if h.FileLength() != size {
		t.Fatalf("FileLength() = %d, want %d", h.FileLength(), size)
	}
	if int(h.image.NumSectors) != core.NumDirect {
		t.Fatalf("first header NumSectors = %d, want full %d", h.image.NumSectors, core.NumDirect)
	}
	if int(h.image.NumBytes) != core.MaxFileSize {
		t.Fatalf("chained header must report NumBytes == MaxFileSize, got %d", h.image.NumBytes)
	}
}

func TestAllocateFailsWhenFull(t *testing.T) {
	d := newTestDisk(t)
	fm := freemap.New(4)
	fm.Mark(0)

	h := New(d, 0)
	if err := h.Allocate(fm, core.SectorSize*10); err != core.ErrNoSpace {
		t.Fatalf("Allocate() = %v, want ErrNoSpace", err)
	}
}

func TestDeallocateFreesEverySector(t *testing.T) {
	d := newTestDisk(t)
	fm := freemap.New(core.NumSectors)
	fm.Mark(0)
	fm.Mark(1)

	h := New(d, 1)
	size := core.MaxFileSize + core.SectorSize
	if err := h.Allocate(fm, size); err != core.NoError {
		t.Fatalf("Allocate() = %v", err)
	}
	before := fm.NumClear()
	h.Deallocate(fm)
	after := fm.NumClear()

	if after <= before {
		t.Fatalf("NumClear() did not increase: before=%d after=%d", before, after)
	}
	if fm.Test(1) {
		t.Fatal("header's own sector should be cleared after Deallocate")
	}
}

func TestSectorForOffsetLocalAndChained(t *testing.T) {
	d := newTestDisk(t)
	fm := freemap.New(core.NumSectors)
	fm.Mark(0)
	fm.Mark(1)

	h := New(d, 1)
	size := core.MaxFileSize + core.SectorSize*2
	if err := h.Allocate(fm, size); err != core.NoError {
		t.Fatalf("Allocate() = %v", err)
	}

	local := h.SectorForOffset(0)
	if int32(local) != h.image.DataSectors[0] {
		t.Fatalf("SectorForOffset(0) = %d, want %d", local, h.image.DataSectors[0])
	}

	chained := h.SectorForOffset(core.MaxFileSize)
	if int32(chained) != h.next.image.DataSectors[0] {
		t.Fatalf("SectorForOffset(MaxFileSize) = %d, want %d", chained, h.next.image.DataSectors[0])
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	d := newTestDisk(t)
	fm := freemap.New(core.NumSectors)
	fm.Mark(0)
	fm.Mark(1)

	h := New(d, 1)
	size := core.MaxFileSize + core.SectorSize*3
	if err := h.Allocate(fm, size); err != core.NoError {
		t.Fatalf("Allocate() = %v", err)
	}
	h.Save()

	loaded := Load(d, 1)
	if loaded.FileLength() != size {
		t.Fatalf("Load().FileLength() = %d, want %d", loaded.FileLength(), size)
	}
	if loaded.next == nil {
		t.Fatal("Load() should have followed the chain")
	}
	if loaded.image.NumSectors != h.image.NumSectors {
		t.Fatalf("NumSectors mismatch after round trip: got %d want %d", loaded.image.NumSectors, h.image.NumSectors)
	}
}
