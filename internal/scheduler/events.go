// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import "github.com/kernellab/core/internal/core"

// EventSink receives the dispatch event taxonomy emitted on debug
// channel 'z': A (inserted), B (removed), C (priority
// changed), E (selected for execution). internal/trace and
// internal/metrics both implement this to record and count events; a
// nil sink is valid and simply means no one is listening.
type EventSink interface {
	Inserted(tick core.Tick, id core.ThreadID, band core.Band)
	Removed(tick core.Tick, id core.ThreadID, band core.Band)
	PriorityChanged(tick core.Tick, id core.ThreadID, from, to core.Priority)
	Dispatched(tick core.Tick, nextID, prevID core.ThreadID, ticksExecuted int)
}
