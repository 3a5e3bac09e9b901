// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package directory implements the fixed-capacity directory table.
// A directory holds exactly core.NumDirEntries named
// entries, each referring either to a file or a sub-directory via a
// header sector; directories are themselves stored as ordinary files
// whose contents are the packed entry table.
package directory

import (
	"fmt"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/fsheader"
)

// EntryType distinguishes a file entry from a sub-directory entry.
type EntryType int

const (
	// FileType marks an entry that refers to an ordinary file.
	FileType EntryType = iota
	// DirType marks an entry that refers to a sub-directory.
	DirType
)

func (t EntryType) String() string {
	if t == DirType {
		return "D"
	}
	return "F"
}

// Entry is one slot of a directory's table.
type Entry struct {
	InUse  bool
	Name   string
	Sector core.SectorNum
	Type   EntryType
}

// Directory is the in-memory form of a directory's entry table.
type Directory struct {
	entries [core.NumDirEntries]Entry
}

// New creates an empty directory table.
func New() *Directory {
	return &Directory{}
}

// FetchFrom decodes the directory table from the start of the backing
// file's contents.
func FetchFrom(h *fsheader.Header) *Directory {
	buf := make([]byte, core.DirectoryFileSize)
	h.ReadAt(buf, 0)
	return decode(buf)
}

// WriteBack encodes the directory table and writes it to the start of
// the backing file's contents.
func (d *Directory) WriteBack(h *fsheader.Header) {
	buf := make([]byte, core.DirectoryFileSize)
	d.encode(buf)
	h.WriteAt(buf, 0)
}

// FindIndex returns the slot index of the in-use entry named name, or -1.
func (d *Directory) FindIndex(name string) int {
	for i, e := range d.entries {
		if e.InUse && e.Name == name {
			return i
		}
	}
	return -1
}

// FindHere returns the entry named name at this level only, or ok=false.
// This is the only lookup namespace operations use when resolving a path
// segment against its immediate parent; the retired subtree-search find
// mode is superseded by the separate FindAnywhere below.
func (d *Directory) FindHere(name string) (Entry, bool) {
	i := d.FindIndex(name)
	if i < 0 {
		return Entry{}, false
	}
	return d.entries[i], true
}

// Add occupies the lowest free slot with a new entry, failing if name
// already exists or the table is full.
func (d *Directory) Add(name string, sector core.SectorNum, typ EntryType) core.Error {
	if d.FindIndex(name) >= 0 {
		return core.ErrAlreadyExists
	}
	for i := range d.entries {
		if !d.entries[i].InUse {
			d.entries[i] = Entry{InUse: true, Name: name, Sector: sector, Type: typ}
			return core.NoError
		}
	}
	return core.ErrNoSpace
}

// Remove marks the entry named name free. If fileOnly is true, an entry
// of type DirType fails instead. Remove does not cascade into contents;
// callers decide whether and how to free a sub-directory's own sectors.
func (d *Directory) Remove(name string, fileOnly bool) core.Error {
	i := d.FindIndex(name)
	if i < 0 {
		return core.ErrNotFound
	}
	if fileOnly && d.entries[i].Type == DirType {
		return core.ErrTypeMismatch
	}
	d.entries[i] = Entry{}
	return core.NoError
}

// Entries returns the in-use entries, for iteration by callers (listing,
// recursive collection).
func (d *Directory) Entries() []Entry {
	out := make([]Entry, 0, core.NumDirEntries)
	for _, e := range d.entries {
		if e.InUse {
			out = append(out, e)
		}
	}
	return out
}

// FindAnywhere performs a depth-first search of every sub-directory
// under d for an entry named name, returning the first match found.
// Order-dependent and ambiguous for paths with duplicated names; it is
// retained only as an explicit, separately-named diagnostic operation
// and is never used by path resolution.
func (d *Directory) FindAnywhere(loadSub func(core.SectorNum) *Directory, name string) (Entry, bool) {
	if e, ok := d.FindHere(name); ok {
		return e, true
	}
	for _, e := range d.Entries() {
		if e.Type != DirType {
			continue
		}
		sub := loadSub(e.Sector)
		if found, ok := sub.FindAnywhere(loadSub, name); ok {
			return found, true
		}
	}
	return Entry{}, false
}

// CollectForRemoval performs a single post-order traversal, adding every
// sector reachable under d (sub-directory header chains, their data
// sectors, and every sub-directory's own entries, recursively) into
// sectors. It does not mutate the free map or write anything back; the
// caller performs one free-map flush and one parent-directory flush
// afterward, replacing a double-traversing, re-opening removeAllObjects.
func (d *Directory) CollectForRemoval(loadHeader func(core.SectorNum) *fsheader.Header, loadSub func(core.SectorNum) *Directory, sectors map[core.SectorNum]bool) {
	for _, e := range d.Entries() {
		h := loadHeader(e.Sector)
		if e.Type == DirType {
			sub := loadSub(e.Sector)
			sub.CollectForRemoval(loadHeader, loadSub, sectors)
		}
		h.Collect(sectors)
	}
}

// List writes the directory's contents to a string at the given indent
// depth, descending into sub-directories when recursive is set.
func (d *Directory) List(depth int, recursive bool, loadSub func(core.SectorNum) *Directory) string {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	out := ""
	for _, e := range d.Entries() {
		out += fmt.Sprintf("%s[%s] %s\n", indent, e.Type, e.Name)
		if recursive && e.Type == DirType {
			out += loadSub(e.Sector).List(depth+1, recursive, loadSub)
		}
	}
	return out
}
