// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package syscallapi implements the thin user-visible syscall surface:
// Create, Open, Read, Write, Close, Halt. It translates every
// internal/core.Error into the 0/1/-1
// sentinel returns a simulated user program expects, never exposing
// core.Error itself across the boundary.
package syscallapi

import (
	"os"

	log "github.com/golang/glog"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/kernel"
)

// API is the syscall surface bound to one kernel Context.
type API struct {
	ctx *kernel.Context
}

// New binds a syscall surface to ctx.
func New(ctx *kernel.Context) *API {
	return &API{ctx: ctx}
}

// Create creates a new, empty file at name. Returns 0 on success, 1 on
// failure.
func (a *API) Create(name string) int {
	if a.ctx.FS.Create(name, core.SectorSize) == core.NoError {
		return 0
	}
	return 1
}

// Open resolves name and binds it to a fresh open-file slot. Returns the
// slot id (1..core.OpenFileTableSize) on success, 0 on failure.
func (a *API) Open(name string) int {
	h, err := a.ctx.FS.Open(name)
	if err != core.NoError {
		return 0
	}
	id, err := a.ctx.Open.Open(h)
	if err != core.NoError {
		return 0
	}
	return id
}

// Read copies up to length bytes from the open file bound to id into
// buf. Returns the number of bytes read, or -1 if id is not open.
func (a *API) Read(buf []byte, length int, id int) int {
	f, err := a.ctx.Open.Get(id)
	if err != core.NoError {
		return -1
	}
	if length > len(buf) {
		length = len(buf)
	}
	return f.Read(buf[:length])
}

// Write copies up to length bytes from buf to the open file bound to id.
// Returns the number of bytes written, or -1 if id is not open.
func (a *API) Write(buf []byte, length int, id int) int {
	f, err := a.ctx.Open.Get(id)
	if err != core.NoError {
		return -1
	}
	if length > len(buf) {
		length = len(buf)
	}
	return f.Write(buf[:length])
}

// Close releases the open-file slot bound to id. Returns 0 on success, 1
// on failure.
func (a *API) Close(id int) int {
	if a.ctx.Open.Close(id) == core.NoError {
		return 0
	}
	return 1
}

// Halt stops the simulated machine.
func (a *API) Halt() {
	log.Infof("syscallapi: halt requested at tick %d", a.ctx.Tick())
	os.Exit(0)
}
