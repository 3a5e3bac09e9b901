// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package filesystem implements the hierarchical namespace over the
// free map, file header chain, and directory table. It resolves
// paths strictly segment-by-segment against each segment's immediate
// parent and owns the two well-known files at sector 0 (free map) and
// sector 1 (root directory).
package filesystem

import (
	"strings"

	log "github.com/golang/glog"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/directory"
	"github.com/kernellab/core/internal/freemap"
	"github.com/kernellab/core/internal/fsheader"
	"github.com/kernellab/core/pkg/disk"
)

// FileSystem binds a disk and its two well-known files.
type FileSystem struct {
	d             disk.Disk
	freeMap       *freemap.FreeMap
	freeMapHeader *fsheader.Header
	rootHeader    *fsheader.Header
}

func freeMapByteLen() int {
	return (core.NumSectors + 7) / 8
}

// Format initializes a fresh disk: sectors 0 and 1 are claimed for the
// free-map file and the root directory file, both header chains are
// allocated, and an empty root directory is written.
func Format(d disk.Disk) *FileSystem {
	fm := freemap.New(core.NumSectors)
	fm.Mark(core.FreeMapSector)
	fm.Mark(core.RootDirSector)

	fmHeader := fsheader.New(d, core.FreeMapSector)
	if err := fmHeader.Allocate(fm, freeMapByteLen()); err != core.NoError {
		core.PreconditionViolated("filesystem: cannot allocate free-map file on a fresh disk: %v", err)
	}

	rootHeader := fsheader.New(d, core.RootDirSector)
	if err := rootHeader.Allocate(fm, core.DirectoryFileSize); err != core.NoError {
		core.PreconditionViolated("filesystem: cannot allocate root directory file on a fresh disk: %v", err)
	}

	fmHeader.Save()
	rootHeader.Save()
	directory.New().WriteBack(rootHeader)

	fs := &FileSystem{d: d, freeMap: fm, freeMapHeader: fmHeader, rootHeader: rootHeader}
	fs.flushFreeMap()
	log.Infof("filesystem: formatted disk, %d sectors, %d free", core.NumSectors, fm.NumClear())
	return fs
}

// Load opens a previously formatted disk by reading the free map and the
// root directory's header chain back from their well-known sectors.
func Load(d disk.Disk) *FileSystem {
	fmHeader := fsheader.Load(d, core.FreeMapSector)
	rootHeader := fsheader.Load(d, core.RootDirSector)

	buf := make([]byte, fmHeader.FileLength())
	fmHeader.ReadAt(buf, 0)
	fm := freemap.Load(core.NumSectors, buf)

	return &FileSystem{d: d, freeMap: fm, freeMapHeader: fmHeader, rootHeader: rootHeader}
}

// FreeSectors reports how many sectors are currently unallocated.
func (fs *FileSystem) FreeSectors() int {
	return fs.freeMap.NumClear()
}

// TotalSectors reports the disk's fixed sector count.
func (fs *FileSystem) TotalSectors() int {
	return fs.freeMap.NumSectors()
}

func (fs *FileSystem) flushFreeMap() {
	fs.freeMapHeader.WriteAt(fs.freeMap.Bytes(), 0)
}

func (fs *FileSystem) loadHeader(sector core.SectorNum) *fsheader.Header {
	return fsheader.Load(fs.d, sector)
}

func (fs *FileSystem) loadDir(sector core.SectorNum) *directory.Directory {
	return directory.FetchFrom(fs.loadHeader(sector))
}

// splitPath validates length bounds and splits a leading-slash path into
// its non-empty segments. "/" itself splits to zero segments.
func splitPath(path string) ([]string, core.Error) {
	if len(path) == 0 || path[0] != '/' || len(path) > core.MaxPathLen {
		return nil, core.ErrInvalidPath
	}
	if path == "/" {
		return []string{}, core.NoError
	}
	segs := strings.Split(path[1:], "/")
	for _, s := range segs {
		if s == "" || len(s) > core.FileNameMaxLen {
			return nil, core.ErrInvalidPath
		}
	}
	return segs, core.NoError
}

// resolveDir walks segments from the root, resolving each one against its
// immediate parent only -- never a subtree search. It returns the final
// directory along with the header its backing file lives on.
func (fs *FileSystem) resolveDir(segments []string) (*directory.Directory, *fsheader.Header, core.Error) {
	h := fs.rootHeader
	dir := directory.FetchFrom(h)
	for _, seg := range segments {
		e, ok := dir.FindHere(seg)
		if !ok {
			return nil, nil, core.ErrNotFound
		}
		if e.Type != directory.DirType {
			return nil, nil, core.ErrTypeMismatch
		}
		h = fs.loadHeader(e.Sector)
		dir = directory.FetchFrom(h)
	}
	return dir, h, core.NoError
}

func splitParent(segs []string) ([]string, string) {
	return segs[:len(segs)-1], segs[len(segs)-1]
}

// Create adds a new file named by path, with a header chain allocated to
// hold initialSize bytes.
func (fs *FileSystem) Create(path string, initialSize int) core.Error {
	segs, err := splitPath(path)
	if err != core.NoError {
		return err
	}
	if len(segs) == 0 {
		return core.ErrInvalidPath
	}
	parentSegs, name := splitParent(segs)

	parentDir, parentHeader, err := fs.resolveDir(parentSegs)
	if err != core.NoError {
		return err
	}
	if _, ok := parentDir.FindHere(name); ok {
		return core.ErrAlreadyExists
	}

	saved := append([]byte(nil), fs.freeMap.Bytes()...)
	sector := fs.freeMap.FindAndSet()
	if !sector.IsValid() {
		return core.ErrNoSpace
	}
	h := fsheader.New(fs.d, sector)
	if err := h.Allocate(fs.freeMap, initialSize); err != core.NoError {
		// Drop every bit the partial chain took, not only the header sector.
		fs.freeMap = freemap.Load(fs.freeMap.NumSectors(), saved)
		return err
	}
	if err := parentDir.Add(name, sector, directory.FileType); err != core.NoError {
		h.Deallocate(fs.freeMap)
		return err
	}

	h.Save()
	parentDir.WriteBack(parentHeader)
	fs.flushFreeMap()
	return core.NoError
}

// CreateDirectory adds a new, empty sub-directory named by path.
func (fs *FileSystem) CreateDirectory(path string) core.Error {
	segs, err := splitPath(path)
	if err != core.NoError {
		return err
	}
	if len(segs) == 0 {
		return core.ErrInvalidPath
	}
	parentSegs, name := splitParent(segs)

	parentDir, parentHeader, err := fs.resolveDir(parentSegs)
	if err != core.NoError {
		return err
	}
	if _, ok := parentDir.FindHere(name); ok {
		return core.ErrAlreadyExists
	}

	sector := fs.freeMap.FindAndSet()
	if !sector.IsValid() {
		return core.ErrNoSpace
	}
	h := fsheader.New(fs.d, sector)
	if err := h.Allocate(fs.freeMap, core.DirectoryFileSize); err != core.NoError {
		fs.freeMap.Clear(sector)
		return err
	}
	if err := parentDir.Add(name, sector, directory.DirType); err != core.NoError {
		h.Deallocate(fs.freeMap)
		return err
	}

	h.Save()
	directory.New().WriteBack(h)
	parentDir.WriteBack(parentHeader)
	fs.flushFreeMap()
	return core.NoError
}

// Open resolves path and returns the header chain of the file it names.
func (fs *FileSystem) Open(path string) (*fsheader.Header, core.Error) {
	segs, err := splitPath(path)
	if err != core.NoError {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, core.ErrInvalidPath
	}
	parentSegs, name := splitParent(segs)

	parentDir, _, err := fs.resolveDir(parentSegs)
	if err != core.NoError {
		return nil, err
	}
	e, ok := parentDir.FindHere(name)
	if !ok {
		return nil, core.ErrNotFound
	}
	return fs.loadHeader(e.Sector), core.NoError
}

// Remove deletes the file or directory named by path. When recursive is
// false, removing a directory fails with core.ErrTypeMismatch. When
// recursive is true and the target is a directory, every sector reachable
// underneath it is collected in a single pass and freed together.
func (fs *FileSystem) Remove(path string, recursive bool) core.Error {
	segs, err := splitPath(path)
	if err != core.NoError {
		return err
	}
	if len(segs) == 0 {
		return core.ErrInvalidPath
	}
	parentSegs, name := splitParent(segs)

	parentDir, parentHeader, err := fs.resolveDir(parentSegs)
	if err != core.NoError {
		return err
	}
	e, ok := parentDir.FindHere(name)
	if !ok {
		return core.ErrNotFound
	}

	if !recursive && e.Type == directory.DirType {
		return core.ErrTypeMismatch
	}

	targetHeader := fs.loadHeader(e.Sector)
	if recursive && e.Type == directory.DirType {
		sectors := make(map[core.SectorNum]bool)
		targetDir := fs.loadDir(e.Sector)
		targetDir.CollectForRemoval(fs.loadHeader, fs.loadDir, sectors)
		targetHeader.Collect(sectors)
		for s := range sectors {
			fs.freeMap.Clear(s)
		}
	} else {
		targetHeader.Deallocate(fs.freeMap)
	}

	parentDir.Remove(name, false)
	parentDir.WriteBack(parentHeader)
	fs.flushFreeMap()
	return core.NoError
}

// List resolves path to a directory and renders its contents, descending
// into sub-directories when recursive is set.
func (fs *FileSystem) List(path string, recursive bool) (string, core.Error) {
	segs, err := splitPath(path)
	if err != core.NoError {
		return "", err
	}
	dir, _, err := fs.resolveDir(segs)
	if err != core.NoError {
		return "", err
	}
	return dir.List(0, recursive, fs.loadDir), core.NoError
}

// Stat resolves path and reports whether it names a file or a directory,
// without opening it.
func (fs *FileSystem) Stat(path string) (directory.EntryType, core.Error) {
	segs, err := splitPath(path)
	if err != core.NoError {
		return 0, err
	}
	if len(segs) == 0 {
		return directory.DirType, core.NoError
	}
	parentSegs, name := splitParent(segs)
	parentDir, _, err := fs.resolveDir(parentSegs)
	if err != core.NoError {
		return 0, err
	}
	e, ok := parentDir.FindHere(name)
	if !ok {
		return 0, core.ErrNotFound
	}
	return e.Type, core.NoError
}

// ListEntries resolves path to a directory and returns its immediate
// entries, unformatted, for callers that need structured access rather
// than List's rendered text (e.g. internal/fuseadapter).
func (fs *FileSystem) ListEntries(path string) ([]directory.Entry, core.Error) {
	segs, err := splitPath(path)
	if err != core.NoError {
		return nil, err
	}
	dir, _, err := fs.resolveDir(segs)
	if err != core.NoError {
		return nil, err
	}
	return dir.Entries(), core.NoError
}

// FindAnywhere performs the order-dependent depth-first subtree search
// retained only as an explicit diagnostic, never used by path resolution.
func (fs *FileSystem) FindAnywhere(name string) (directory.Entry, bool) {
	root := directory.FetchFrom(fs.rootHeader)
	return root.FindAnywhere(fs.loadDir, name)
}
