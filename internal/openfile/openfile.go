// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package openfile implements the per-process open-file table: a
// fixed array of 20 slots, each binding a file's header chain to
// a monotonic byte cursor.
package openfile

import (
	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/fsheader"
)

// OpenFile is an in-memory handle binding a file's header chain to a
// byte cursor that advances on every Read/Write.
type OpenFile struct {
	header *fsheader.Header
	cursor int
}

// Read copies up to len(buf) bytes starting at the cursor and advances
// it by the number of bytes copied.
func (f *OpenFile) Read(buf []byte) int {
	n := f.header.ReadAt(buf, f.cursor)
	f.cursor += n
	return n
}

// Write copies len(buf) bytes to the cursor position and advances it.
// The caller must ensure the write does not exceed the file's length;
// see fsheader.Header.WriteAt.
func (f *OpenFile) Write(buf []byte) int {
	f.header.WriteAt(buf, f.cursor)
	f.cursor += len(buf)
	return len(buf)
}

// Length reports the total length of the underlying file.
func (f *OpenFile) Length() int {
	return f.header.FileLength()
}

// Table is the fixed-size open-file table. A zero Table is ready to use.
type Table struct {
	slots [core.OpenFileTableSize]*OpenFile
}

// Open binds header to the lowest free slot and returns its 1-based id
// (0 is reserved for failure), or core.ErrSlotExhausted if the table is
// full.
func (t *Table) Open(header *fsheader.Header) (int, core.Error) {
	for i := range t.slots {
		if t.slots[i] == nil {
			t.slots[i] = &OpenFile{header: header}
			return i + 1, core.NoError
		}
	}
	return 0, core.ErrSlotExhausted
}

// Close frees the slot bound to id. Closing an invalid or already-closed
// id fails without side effect.
func (t *Table) Close(id int) core.Error {
	if _, err := t.lookup(id); err != core.NoError {
		return err
	}
	t.slots[id-1] = nil
	return core.NoError
}

// Get returns the OpenFile bound to id.
func (t *Table) Get(id int) (*OpenFile, core.Error) {
	return t.lookup(id)
}

func (t *Table) lookup(id int) (*OpenFile, core.Error) {
	if id < 1 || id > core.OpenFileTableSize {
		return nil, core.ErrNotFound
	}
	f := t.slots[id-1]
	if f == nil {
		return nil, core.ErrNotFound
	}
	return f, core.NoError
}
