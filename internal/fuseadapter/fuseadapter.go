// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package fuseadapter optionally mounts the namespace as a real
// filesystem via bazil.org/fuse, translating Lookup/ReadDirAll/
// Open/Read/Write/Remove/Mkdir into internal/filesystem calls. This is
// diagnostics-only: it exists so a student can `ls` and `cat` their
// simulated disk with ordinary tools, not for production use.
package fuseadapter

import (
	"os"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"golang.org/x/net/context"

	log "github.com/golang/glog"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/directory"
	"github.com/kernellab/core/internal/filesystem"
	"github.com/kernellab/core/internal/fsheader"
)

// defaultCreateSize is how large a file created through a FUSE write
// path is allocated, since files here cannot be resized after creation
// and FUSE's Create call does not carry a size hint.
const defaultCreateSize = core.SectorSize * 8

// Mount mounts fsys on mountpoint and serves it in a background
// goroutine. Call the returned conn's Close to unmount.
func Mount(fsys *filesystem.FileSystem, mountpoint string) (*fuse.Conn, error) {
	conn, err := fuse.Mount(
		mountpoint,
		fuse.FSName("kernellab"),
		fuse.Subtype("kernelfs"),
		fuse.LocalVolume(),
	)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := fusefs.Serve(conn, &FS{fsys: fsys}); err != nil {
			log.Errorf("fuseadapter: serve on %s: %s", mountpoint, err)
		}
	}()
	return conn, nil
}

// FS is the root of the bridged filesystem.
type FS struct {
	fsys *filesystem.FileSystem
}

// Root implements fusefs.FS.
func (f *FS) Root() (fusefs.Node, error) {
	return &dirNode{fsys: f.fsys, path: "/"}, nil
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func translateError(err core.Error) error {
	switch err {
	case core.NoError:
		return nil
	case core.ErrNotFound:
		return fuse.ENOENT
	case core.ErrAlreadyExists:
		return fuse.EEXIST
	default:
		return err
	}
}

// dirNode bridges one of the namespace's directories.
type dirNode struct {
	fsys *filesystem.FileSystem
	path string
}

func (d *dirNode) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0755
	return nil
}

func (d *dirNode) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	path := joinPath(d.path, name)
	typ, err := d.fsys.Stat(path)
	if err != core.NoError {
		return nil, fuse.ENOENT
	}
	if typ == directory.DirType {
		return &dirNode{fsys: d.fsys, path: path}, nil
	}
	return &fileNode{fsys: d.fsys, path: path}, nil
}

func (d *dirNode) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries, err := d.fsys.ListEntries(d.path)
	if err != core.NoError {
		return nil, translateError(err)
	}
	out := make([]fuse.Dirent, 0, len(entries))
	for _, e := range entries {
		typ := fuse.DT_File
		if e.Type == directory.DirType {
			typ = fuse.DT_Dir
		}
		out = append(out, fuse.Dirent{Name: e.Name, Type: typ})
	}
	return out, nil
}

func (d *dirNode) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (fusefs.Node, error) {
	path := joinPath(d.path, req.Name)
	if err := d.fsys.CreateDirectory(path); err != core.NoError {
		return nil, translateError(err)
	}
	return &dirNode{fsys: d.fsys, path: path}, nil
}

func (d *dirNode) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	path := joinPath(d.path, req.Name)
	if err := d.fsys.Create(path, defaultCreateSize); err != core.NoError {
		return nil, nil, translateError(err)
	}
	node := &fileNode{fsys: d.fsys, path: path}
	h, err := d.fsys.Open(path)
	if err != core.NoError {
		return nil, nil, translateError(err)
	}
	return node, &fileHandle{header: h}, nil
}

func (d *dirNode) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	path := joinPath(d.path, req.Name)
	return translateError(d.fsys.Remove(path, req.Dir))
}

// fileNode bridges one of the namespace's files.
type fileNode struct {
	fsys *filesystem.FileSystem
	path string
}

func (f *fileNode) Attr(ctx context.Context, a *fuse.Attr) error {
	h, err := f.fsys.Open(f.path)
	if err != core.NoError {
		return translateError(err)
	}
	a.Mode = 0644
	a.Size = uint64(h.FileLength())
	return nil
}

func (f *fileNode) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	h, err := f.fsys.Open(f.path)
	if err != core.NoError {
		return nil, translateError(err)
	}
	return &fileHandle{header: h}, nil
}

// fileHandle bridges an open file's header chain to FUSE's read/write
// requests, which already carry their own offsets.
type fileHandle struct {
	header *fsheader.Header
}

func (h *fileHandle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	buf := make([]byte, req.Size)
	n := h.header.ReadAt(buf, int(req.Offset))
	resp.Data = buf[:n]
	return nil
}

func (h *fileHandle) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	h.header.WriteAt(req.Data, int(req.Offset))
	resp.Size = len(req.Data)
	return nil
}
