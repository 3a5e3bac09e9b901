// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package disk

import (
	"bytes"
	"testing"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/pkg/blockcache"
)

func TestCachedDiskServesReadFromCache(t *testing.T) {
	inner := NewMemDisk(16, 4)
	cached := NewCachedDisk(inner, blockcache.New(4))

	want := bytes.Repeat([]byte{0xAB}, 16)
	if err := cached.WriteSector(core.SectorNum(0), want); err != nil {
		t.Fatalf("WriteSector: %v", err)
	}

	got := make([]byte, 16)
	if err := cached.ReadSector(core.SectorNum(0), got); err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadSector = %v, want %v", got, want)
	}

	// Corrupt the inner disk directly; a cache hit should still return the
	// last value written through the CachedDisk, proving the read didn't
	// hit the inner disk a second time.
	stale := make([]byte, 16)
	inner.ReadSector(core.SectorNum(0), stale)
	copy(inner.sectors[0], bytes.Repeat([]byte{0xFF}, 16))

	got2 := make([]byte, 16)
	if err := cached.ReadSector(core.SectorNum(0), got2); err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	if !bytes.Equal(got2, want) {
		t.Fatalf("cached ReadSector = %v, want stale cached value %v", got2, want)
	}
}

func TestCachedDiskInvalidatesOnWrite(t *testing.T) {
	inner := NewMemDisk(16, 4)
	cached := NewCachedDisk(inner, blockcache.New(4))

	first := bytes.Repeat([]byte{0x01}, 16)
	cached.WriteSector(core.SectorNum(1), first)
	buf := make([]byte, 16)
	cached.ReadSector(core.SectorNum(1), buf)

	second := bytes.Repeat([]byte{0x02}, 16)
	if err := cached.WriteSector(core.SectorNum(1), second); err != nil {
		t.Fatalf("WriteSector: %v", err)
	}

	got := make([]byte, 16)
	if err := cached.ReadSector(core.SectorNum(1), got); err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Fatalf("ReadSector after rewrite = %v, want %v", got, second)
	}
}
