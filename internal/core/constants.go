// Copyright (c) 2015 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package core

// Global constants that several components need to agree on are defined
// here. If a constant is only needed by a single component, it should not
// be placed here.
const (
	// SectorSize is the fixed size in bytes of one unit of disk I/O.
	SectorSize = 128

	// NumSectors is the fixed number of sectors on a simulated disk.
	NumSectors = 2048

	// FreeMapSector is the well-known sector holding the free-map file's header.
	FreeMapSector = 0

	// RootDirSector is the well-known sector holding the root directory file's header.
	RootDirSector = 1

	// NumDirect is the number of direct data-sector pointers in one file header:
	// what fits in a sector after the reserved slot and the fixed fields.
	NumDirect = (SectorSize - headerReservedSlot - headerFixedFields) / 4

	// headerReservedSlot is the number of leading bytes of a file header
	// sector that are never serialized (internal/fsheader's reservedSlotBytes).
	headerReservedSlot = 4

	// headerFixedFields is the number of bytes of a file header occupied by
	// numBytes, numSectors and nextHeaderSector, after the reserved slot.
	headerFixedFields = 12

	// MaxFileSize is the most file data bytes storable in a single header's
	// direct pointers.
	MaxFileSize = NumDirect * SectorSize

	// NoNextHeader is the sentinel stored in nextHeaderSector when a header
	// is the last in its chain.
	NoNextHeader = -1

	// NumDirEntries is the fixed number of entries in one directory table.
	NumDirEntries = 64

	// FileNameMaxLen is the maximum length, in bytes, of one path segment.
	FileNameMaxLen = 9

	// MaxPathLen is the maximum total length, in bytes, of a path string.
	MaxPathLen = 255

	// DirEntrySize is the packed, on-disk size of one directory entry:
	// inUse(1) + name(FileNameMaxLen+1) + sector(4) + type(4).
	DirEntrySize = 1 + (FileNameMaxLen + 1) + 4 + 4

	// DirectoryFileSize is the backing-file size of a directory's entry table.
	DirectoryFileSize = NumDirEntries * DirEntrySize

	// OpenFileTableSize is the fixed number of slots in the per-process
	// open-file table.
	OpenFileTableSize = 20

	// AgingCadenceTicks is how often, in simulated ticks, the tick handler
	// invokes Aging.
	AgingCadenceTicks = 100

	// AgingWaitingThreshold is the accumulated waiting time, in ticks, at
	// which a ready thread is promoted.
	AgingWaitingThreshold = 1500

	// AgingPriorityStep is how much priority increases on a promotion.
	AgingPriorityStep = 10

	// MinPriority and MaxPriority bound a thread's priority.
	MinPriority = 0
	MaxPriority = 149

	// L2Floor and L1Floor are the priority-band boundaries: L3 is
	// [MinPriority, L2Floor), L2 is [L2Floor, L1Floor), L1 is [L1Floor, MaxPriority].
	L2Floor = 50
	L1Floor = 100
)
