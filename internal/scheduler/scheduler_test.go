// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT
//
// Tests for scheduler.go and thread.go
package scheduler

import (
	"testing"

	"github.com/kernellab/core/internal/core"
)

func alwaysDisabled() bool { return true }

func TestBandOrderingAcrossQueues(t *testing.T) {
	s := New(alwaysDisabled, nil, nil, nil)

	t1 := NewThread(40, 0, nil)
	t2 := NewThread(60, 0, nil)
	t3 := NewThread(120, 0, nil)
	s.ReadyToRun(t1, 0)
	s.ReadyToRun(t2, 0)
	s.ReadyToRun(t3, 0)

	want := []*Thread{t3, t2, t1}
	for i, w := range want {
		got := s.FindNextToRun(0)
		if got != w {
			t.Fatalf("FindNextToRun() #%d = %s, want %s", i, got.ID, w.ID)
		}
	}
}

func TestL1TieBrokenByLowerID(t *testing.T) {
	s := New(alwaysDisabled, nil, nil, nil)

	tb := NewThread(120, 5, nil) // id assigned first -> lower id
	ta := NewThread(120, 5, nil) // id assigned second -> higher id
	s.ReadyToRun(tb, 0)
	s.ReadyToRun(ta, 0)

	got := s.FindNextToRun(0)
	if got != tb {
		t.Fatalf("FindNextToRun() = %s, want %s (lower id)", got.ID, tb.ID)
	}
}

func TestAgingPromotesAcrossBands(t *testing.T) {
	s := New(alwaysDisabled, nil, nil, nil)
	th := NewThread(45, 0, nil)
	s.ReadyToRun(th, 0)

	fire := func(n int) {
		for i := 0; i < n; i++ {
			s.Aging(0)
		}
	}

	fire(15) // 1500 ticks
	if th.Priority != 55 {
		t.Fatalf("priority after 1500 ticks = %d, want 55", th.Priority)
	}
	if core.BandOf(th.Priority) != core.BandL2 {
		t.Fatalf("band after 1500 ticks = %s, want L2", core.BandOf(th.Priority))
	}

	fire(15) // total 3000 ticks
	if th.Priority != 65 {
		t.Fatalf("priority after 3000 ticks = %d, want 65", th.Priority)
	}
	if core.BandOf(th.Priority) != core.BandL2 {
		t.Fatalf("band after 3000 ticks = %s, want L2", core.BandOf(th.Priority))
	}

	fire(120) // total 15000 ticks
	if th.Priority != 145 {
		t.Fatalf("priority after 15000 ticks = %d, want 145", th.Priority)
	}
	if core.BandOf(th.Priority) != core.BandL1 {
		t.Fatalf("band after 15000 ticks = %s, want L1", core.BandOf(th.Priority))
	}

	got := s.FindNextToRun(0)
	if got != th {
		t.Fatal("promoted thread should be dispatched from L1 now")
	}
}

func TestAgingNeverLowersPriorityAndClamps(t *testing.T) {
	s := New(alwaysDisabled, nil, nil, nil)
	th := NewThread(core.MaxPriority, 0, nil)
	s.ReadyToRun(th, 0)

	for i := 0; i < 200; i++ {
		s.Aging(0)
	}
	if th.Priority != core.MaxPriority {
		t.Fatalf("priority = %d, want capped at %d", th.Priority, core.MaxPriority)
	}
}

func TestAgingReordersWithinL2(t *testing.T) {
	s := New(alwaysDisabled, nil, nil, nil)

	lower := NewThread(55, 0, nil) // L2: [50, 100)
	higher := NewThread(60, 0, nil)
	s.ReadyToRun(lower, 0)
	s.ReadyToRun(higher, 0)
	lower.WaitingTime = core.AgingWaitingThreshold - core.AgingCadenceTicks

	s.Aging(0) // lower crosses the threshold and is promoted to 65; higher stays at 60

	if lower.Priority != 65 || core.BandOf(lower.Priority) != core.BandL2 {
		t.Fatalf("lower.Priority = %d, want 65 still in L2", lower.Priority)
	}
	if higher.Priority != 60 {
		t.Fatalf("higher.Priority = %d, want unchanged at 60", higher.Priority)
	}

	got := s.FindNextToRun(0)
	if got != lower {
		t.Fatalf("FindNextToRun() = %s (priority %d), want %s (priority %d) -- L2 heap invariant not restored after in-place aging",
			got.ID, got.Priority, lower.ID, lower.Priority)
	}
}

func TestFinishingHandoffDestroysExactlyOnce(t *testing.T) {
	destroyed := make([]core.ThreadID, 0)
	s := New(alwaysDisabled, nil, func(t *Thread) {
		destroyed = append(destroyed, t.ID)
	}, nil)

	a := NewThread(100, 0, nil)
	b := NewThread(100, 0, nil)
	a.Status = StatusRunning
	s.running = a

	s.Run(a, false, 0) // establish a as running via the normal path
	s.Run(b, true, 10) // a finishes, b takes over

	if len(destroyed) != 1 || destroyed[0] != a.ID {
		t.Fatalf("destroyed = %v, want exactly [%s]", destroyed, a.ID)
	}

	s.CheckToBeDestroyed() // second call is a no-op
	if len(destroyed) != 1 {
		t.Fatalf("destroyed after second CheckToBeDestroyed = %v, want still length 1", destroyed)
	}
}

func TestSuccessiveFinishingHandoffsEachDestroyOnce(t *testing.T) {
	// Exercised indirectly: Run(finishing=true) a second time before the
	// first zombie is destroyed would call core.PreconditionViolated,
	// which aborts the process via log.Fatalf. That path is not directly
	// testable without subverting the process, so we instead assert the
	// non-fatal precondition: CheckToBeDestroyed clears the pending slot
	// before a second finishing handoff is attempted.
	destroyed := 0
	s := New(alwaysDisabled, nil, func(*Thread) { destroyed++ }, nil)

	a := NewThread(100, 0, nil)
	b := NewThread(100, 0, nil)
	c := NewThread(100, 0, nil)

	s.Run(a, false, 0)
	s.Run(b, true, 5)
	s.Run(c, true, 10)

	if destroyed != 2 {
		t.Fatalf("destroyed = %d, want 2", destroyed)
	}
}

func TestUpdateBurstEstimate(t *testing.T) {
	got := UpdateBurstEstimate(10, 20)
	if got != 15 {
		t.Fatalf("UpdateBurstEstimate(10, 20) = %d, want 15", got)
	}
}
