// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package scheduler implements the multi-level feedback scheduler:
// three ready queues (L1 SJF, L2 non-preemptive priority, L3
// round-robin), priority aging, and dispatch with deferred zombie
// destruction.
package scheduler

import "github.com/kernellab/core/internal/core"

// Status is a thread's place in its lifecycle.
type Status int

const (
	// StatusJustCreated is a thread's status before its first ReadyToRun.
	StatusJustCreated Status = iota
	// StatusReady means the thread sits in one of the three ready queues.
	StatusReady
	// StatusRunning means the thread is the one currently dispatched.
	StatusRunning
	// StatusBlocked means the thread is waiting on an event outside the scheduler.
	StatusBlocked
	// StatusZombie means the thread has finished and awaits destruction.
	StatusZombie
)

func (s Status) String() string {
	switch s {
	case StatusJustCreated:
		return "just-created"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusBlocked:
		return "blocked"
	case StatusZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// Thread is one schedulable kernel thread.
type Thread struct {
	ID           core.ThreadID
	Priority     core.Priority
	BurstTime    int
	WaitingTime  int
	Status       Status
	StartOfBurst core.Tick
	AddressSpace interface{}

	// seq stamps L3's FIFO order; it is set fresh on every ReadyToRun.
	seq uint64
}

// NewThread creates a just-created thread with a fresh id.
func NewThread(priority core.Priority, burstTime int, addressSpace interface{}) *Thread {
	return &Thread{
		ID:           core.NextThreadID(),
		Priority:     priority.Clamp(),
		BurstTime:    burstTime,
		Status:       StatusJustCreated,
		AddressSpace: addressSpace,
	}
}

// UpdateBurstEstimate computes a new burst-time estimate from the
// previous estimate and the ticks a thread actually ran for, using an
// exponential average with smoothing factor 0.5.
func UpdateBurstEstimate(prevEstimate, ticksExecuted int) int {
	const alpha = 0.5
	return int(alpha*float64(ticksExecuted) + (1-alpha)*float64(prevEstimate))
}
