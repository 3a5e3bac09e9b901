// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	log "github.com/golang/glog"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/pkg/heapqueue"
)

// Scheduler holds the three ready queues and the currently running and
// pending-zombie threads. Mutual exclusion is obtained entirely by the
// interruptsDisabled precondition every public method asserts; the
// scheduler itself never blocks or re-enters dispatch.
type Scheduler struct {
	l1, l2, l3 *heapqueue.Queue[*Thread]

	interruptsDisabled func() bool
	switchContext      func(next *Thread)
	destroy            func(*Thread)
	sink               EventSink

	running *Thread
	zombie  *Thread
	seqGen  uint64
}

// New creates a Scheduler with empty ready queues.
//
// interruptsDisabled reports whether the caller currently has interrupts
// disabled; every public method asserts it is true. switchContext is the
// simulated context-switch primitive, invoked once per Run with the
// thread being switched to. destroy frees a zombie thread's resources
// (its address space, stack, etc). sink, if non-nil, also observes every
// dispatch event; it is typically internal/trace or internal/metrics.
func New(interruptsDisabled func() bool, switchContext func(*Thread), destroy func(*Thread), sink EventSink) *Scheduler {
	s := &Scheduler{
		interruptsDisabled: interruptsDisabled,
		switchContext:      switchContext,
		destroy:            destroy,
		sink:               sink,
	}
	s.l1 = heapqueue.New(func(a, b *Thread) bool {
		if a.BurstTime != b.BurstTime {
			return a.BurstTime < b.BurstTime
		}
		return a.ID < b.ID
	})
	s.l2 = heapqueue.New(func(a, b *Thread) bool {
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.ID < b.ID
	})
	s.l3 = heapqueue.New(func(a, b *Thread) bool {
		return a.seq < b.seq
	})
	return s
}

func (s *Scheduler) assertInterruptsDisabled(op string) {
	if s.interruptsDisabled != nil && !s.interruptsDisabled() {
		core.PreconditionViolated("scheduler: %s called with interrupts enabled", op)
	}
}

func (s *Scheduler) queueFor(band core.Band) *heapqueue.Queue[*Thread] {
	switch band {
	case core.BandL1:
		return s.l1
	case core.BandL2:
		return s.l2
	default:
		return s.l3
	}
}

func (s *Scheduler) nextSeq() uint64 {
	s.seqGen++
	return s.seqGen
}

// ReadyToRun inserts t into the queue matching its current priority
// band. t must be just-created, running, or blocked.
func (s *Scheduler) ReadyToRun(t *Thread, tick core.Tick) {
	s.assertInterruptsDisabled("ReadyToRun")
	switch t.Status {
	case StatusJustCreated, StatusRunning, StatusBlocked:
	default:
		core.PreconditionViolated("scheduler: ReadyToRun precondition violated, thread %s is %s", t.ID, t.Status)
	}
	t.Status = StatusReady
	t.seq = s.nextSeq()
	band := core.BandOf(t.Priority)
	s.queueFor(band).Push(t)
	s.emitInserted(tick, t.ID, band)
}

// FindNextToRun removes and returns the highest-priority ready thread --
// L1 before L2 before L3, each ordered per its own discipline -- or nil
// if every queue is empty.
func (s *Scheduler) FindNextToRun(tick core.Tick) *Thread {
	for _, band := range [...]core.Band{core.BandL1, core.BandL2, core.BandL3} {
		q := s.queueFor(band)
		if q.Len() == 0 {
			continue
		}
		t := q.Pop()
		s.emitRemoved(tick, t.ID, band)
		return t
	}
	return nil
}

// Aging increments every ready thread's waiting time by the fixed
// cadence, promoting any thread that crosses the aging threshold and
// migrating it to a higher band if its new priority crosses one.
func (s *Scheduler) Aging(tick core.Tick) {
	s.assertInterruptsDisabled("Aging")
	for _, band := range [...]core.Band{core.BandL1, core.BandL2, core.BandL3} {
		q := s.queueFor(band)
		var promoted, reordered []*Thread
		q.Each(func(t *Thread) {
			t.WaitingTime += core.AgingCadenceTicks
			oldPriority := t.Priority
			for t.WaitingTime >= core.AgingWaitingThreshold {
				t.WaitingTime -= core.AgingWaitingThreshold
				t.Priority = (t.Priority + core.AgingPriorityStep).Clamp()
			}
			if t.Priority == oldPriority {
				return
			}
			s.emitPriorityChanged(tick, t.ID, oldPriority, t.Priority)
			if core.BandOf(t.Priority) != band {
				promoted = append(promoted, t)
				return
			}
			reordered = append(reordered, t)
		})
		// Fix is deferred until Each returns: it swaps elements of the
		// same backing array Each ranges over, so calling it mid-iteration
		// could visit a thread twice or not at all.
		for _, t := range reordered {
			q.Fix(func(c *Thread) bool { return c.ID == t.ID })
		}
		for _, t := range promoted {
			q.Remove(func(c *Thread) bool { return c.ID == t.ID })
			s.emitRemoved(tick, t.ID, band)
			newBand := core.BandOf(t.Priority)
			t.seq = s.nextSeq()
			s.queueFor(newBand).Push(t)
			s.emitInserted(tick, t.ID, newBand)
		}
	}
}

// Run dispatches next. If finishing is true, the currently running
// thread (if any) is marked a zombie and remembered for destruction by
// the next call to CheckToBeDestroyed -- it cannot free itself because
// its stack is still live.
func (s *Scheduler) Run(next *Thread, finishing bool, tick core.Tick) {
	s.assertInterruptsDisabled("Run")

	if finishing {
		if s.zombie != nil {
			core.PreconditionViolated("scheduler: Run(finishing=true) with a zombie destruction already pending")
		}
		if s.running != nil {
			s.running.Status = StatusZombie
			s.zombie = s.running
		}
	}

	var prevID core.ThreadID
	var ticksExecuted int
	if s.running != nil {
		prevID = s.running.ID
		ticksExecuted = int(tick - s.running.StartOfBurst)
	}
	s.emitDispatched(tick, next.ID, prevID, ticksExecuted)

	next.Status = StatusRunning
	next.StartOfBurst = tick
	s.running = next

	if s.switchContext != nil {
		s.switchContext(next)
	}

	// On resumption the thread re-stamps its burst start and checks for a
	// deferred zombie.
	next.StartOfBurst = tick
	s.CheckToBeDestroyed()
}

// CheckToBeDestroyed frees any pending zombie exactly once; a second
// call with nothing pending is a no-op.
func (s *Scheduler) CheckToBeDestroyed() {
	if s.zombie == nil {
		return
	}
	z := s.zombie
	s.zombie = nil
	if s.destroy != nil {
		s.destroy(z)
	}
	log.Infof("scheduler: destroyed zombie thread %s", z.ID)
}

// Running returns the thread currently marked running, or nil.
func (s *Scheduler) Running() *Thread {
	return s.running
}

func (s *Scheduler) emitInserted(tick core.Tick, id core.ThreadID, band core.Band) {
	log.Infof("z A tick=%d thread=%s band=%s", tick, id, band)
	if s.sink != nil {
		s.sink.Inserted(tick, id, band)
	}
}

func (s *Scheduler) emitRemoved(tick core.Tick, id core.ThreadID, band core.Band) {
	log.Infof("z B tick=%d thread=%s band=%s", tick, id, band)
	if s.sink != nil {
		s.sink.Removed(tick, id, band)
	}
}

func (s *Scheduler) emitPriorityChanged(tick core.Tick, id core.ThreadID, from, to core.Priority) {
	log.Infof("z C tick=%d thread=%s from=%d to=%d", tick, id, from, to)
	if s.sink != nil {
		s.sink.PriorityChanged(tick, id, from, to)
	}
}

func (s *Scheduler) emitDispatched(tick core.Tick, nextID, prevID core.ThreadID, ticksExecuted int) {
	log.Infof("z E tick=%d next=%s prev=%s ticks=%d", tick, nextID, prevID, ticksExecuted)
	if s.sink != nil {
		s.sink.Dispatched(tick, nextID, prevID, ticksExecuted)
	}
}
