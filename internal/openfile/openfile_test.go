// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT
//
// Tests for openfile.go
package openfile

import (
	"bytes"
	"testing"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/freemap"
	"github.com/kernellab/core/internal/fsheader"
	"github.com/kernellab/core/pkg/disk"
)

func newTestHeader(t *testing.T, size int) *fsheader.Header {
	t.Helper()
	d := disk.NewMemDisk(core.SectorSize, core.NumSectors)
	fm := freemap.New(core.NumSectors)
	h := fsheader.New(d, 0)
	if err := h.Allocate(fm, size); err != core.NoError {
		t.Fatalf("Allocate() = %v", err)
	}
	return h
}

func TestOpenAssignsOneBasedSlots(t *testing.T) {
	var table Table
	h := newTestHeader(t, core.SectorSize)
	id, err := table.Open(h)
	if err != core.NoError {
		t.Fatalf("Open() = %v, want NoError", err)
	}
	if id != 1 {
		t.Fatalf("Open() id = %d, want 1", id)
	}
}

func TestTableExhaustionFails(t *testing.T) {
	var table Table
	for i := 0; i < core.OpenFileTableSize; i++ {
		h := newTestHeader(t, core.SectorSize)
		if _, err := table.Open(h); err != core.NoError {
			t.Fatalf("Open() slot %d = %v, want NoError", i, err)
		}
	}
	h := newTestHeader(t, core.SectorSize)
	if _, err := table.Open(h); err != core.ErrSlotExhausted {
		t.Fatalf("Open() on full table = %v, want ErrSlotExhausted", err)
	}
}

func TestCloseThenCloseAgainFails(t *testing.T) {
	var table Table
	h := newTestHeader(t, core.SectorSize)
	id, _ := table.Open(h)

	if err := table.Close(id); err != core.NoError {
		t.Fatalf("Close() = %v, want NoError", err)
	}
	if err := table.Close(id); err != core.ErrNotFound {
		t.Fatalf("Close() again = %v, want ErrNotFound", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	var table Table
	h := newTestHeader(t, core.SectorSize)
	id, _ := table.Open(h)
	f, err := table.Get(id)
	if err != core.NoError {
		t.Fatalf("Get() = %v, want NoError", err)
	}

	want := []byte("hello")
	if n := f.Write(want); n != len(want) {
		t.Fatalf("Write() = %d, want %d", n, len(want))
	}

	// Cursor has advanced past the write; Get returns the same handle, so
	// rewind its cursor to read from offset 0.
	f2, _ := table.Get(id)
	f2.cursor = 0
	got := make([]byte, len(want))
	if n := f2.Read(got); n != len(want) {
		t.Fatalf("Read() = %d, want %d", n, len(want))
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Read() = %q, want %q", got, want)
	}
}
