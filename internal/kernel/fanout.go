// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package kernel

import (
	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/scheduler"
)

// FanOut forwards every scheduler.EventSink call to each sink in order,
// so a Context can feed both internal/trace and internal/metrics from
// one scheduler without either package depending on the other.
type FanOut []scheduler.EventSink

func (f FanOut) Inserted(tick core.Tick, id core.ThreadID, band core.Band) {
	for _, s := range f {
		s.Inserted(tick, id, band)
	}
}

func (f FanOut) Removed(tick core.Tick, id core.ThreadID, band core.Band) {
	for _, s := range f {
		s.Removed(tick, id, band)
	}
}

func (f FanOut) PriorityChanged(tick core.Tick, id core.ThreadID, from, to core.Priority) {
	for _, s := range f {
		s.PriorityChanged(tick, id, from, to)
	}
}

func (f FanOut) Dispatched(tick core.Tick, nextID, prevID core.ThreadID, ticksExecuted int) {
	for _, s := range f {
		s.Dispatched(tick, nextID, prevID, ticksExecuted)
	}
}
