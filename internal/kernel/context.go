// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package kernel bundles the thread scheduler, file system, open-file
// table, and tick counter into one explicit Context value, threaded
// into every operation that needs kernel state rather than
// referenced through package-level globals.
package kernel

import (
	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/filesystem"
	"github.com/kernellab/core/internal/openfile"
	"github.com/kernellab/core/internal/scheduler"
	"github.com/kernellab/core/pkg/disk"
)

// Context is the kernel's whole mutable state for one simulated machine.
type Context struct {
	cfg Config

	tick          core.Tick
	interruptsOff bool

	FS        *filesystem.FileSystem
	Scheduler *scheduler.Scheduler
	Open      *openfile.Table
}

// New creates a Context over d. When format is true the disk is
// (re)initialized via filesystem.Format; otherwise its existing free map
// and root directory are loaded via filesystem.Load. sink observes every
// scheduler dispatch event (typically internal/trace and
// internal/metrics fanned out through a multi-sink, see kernel.FanOut);
// destroy frees a zombie thread's address space.
func New(cfg Config, d disk.Disk, format bool, sink scheduler.EventSink, destroy func(*scheduler.Thread)) *Context {
	var fs *filesystem.FileSystem
	if format {
		fs = filesystem.Format(d)
	} else {
		fs = filesystem.Load(d)
	}

	ctx := &Context{
		cfg:  cfg,
		FS:   fs,
		Open: &openfile.Table{},
	}
	ctx.Scheduler = scheduler.New(ctx.InterruptsDisabled, nil, destroy, sink)
	return ctx
}

// InterruptsDisabled reports whether the simulated CPU currently has
// interrupts disabled. It is passed to scheduler.New as the scheduler's
// mutual-exclusion collaborator.
func (c *Context) InterruptsDisabled() bool {
	return c.interruptsOff
}

// DisableInterrupts and EnableInterrupts bracket the critical sections
// the scheduler requires around ReadyToRun, Aging, and Run.
func (c *Context) DisableInterrupts() {
	c.interruptsOff = true
}

func (c *Context) EnableInterrupts() {
	c.interruptsOff = false
}

// Tick returns the current simulated time.
func (c *Context) Tick() core.Tick {
	return c.tick
}

// Advance moves the tick clock forward by n ticks, firing Aging every
// AgingCadenceTicks boundary crossed.
func (c *Context) Advance(n core.Tick) {
	for i := core.Tick(0); i < n; i++ {
		c.tick++
		if c.tick%core.Tick(c.cfg.AgingCadenceTicks) == 0 {
			c.DisableInterrupts()
			c.Scheduler.Aging(c.tick)
			c.EnableInterrupts()
		}
	}
}
