// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT
//
// Tests for trace.go
package trace

import (
	"testing"

	"github.com/kernellab/core/internal/core"
)

func TestRingBufferWrapsAtCapacity(t *testing.T) {
	l := NewLog(3, "")
	for i := 0; i < 5; i++ {
		l.Inserted(core.Tick(i), core.ThreadID(i+1), core.BandL1)
	}
	recent := l.Recent()
	if len(recent) != 3 {
		t.Fatalf("Recent() length = %d, want 3", len(recent))
	}
	// The last three inserts (tick 2, 3, 4) should have survived, oldest first.
	for i, e := range recent {
		wantTick := core.Tick(i + 2)
		if e.Tick != wantTick {
			t.Fatalf("Recent()[%d].Tick = %d, want %d", i, e.Tick, wantTick)
		}
	}
}

func TestRingBufferBelowCapacity(t *testing.T) {
	l := NewLog(10, "")
	l.Dispatched(5, 1, 2, 3)
	recent := l.Recent()
	if len(recent) != 1 {
		t.Fatalf("Recent() length = %d, want 1", len(recent))
	}
	if recent[0].Kind != KindDispatched {
		t.Fatalf("Recent()[0].Kind = %c, want %c", recent[0].Kind, KindDispatched)
	}
}

func TestPriorityChangedRecordsFromAndTo(t *testing.T) {
	l := NewLog(4, "")
	l.PriorityChanged(1, 7, 45, 55)
	recent := l.Recent()
	if len(recent) != 1 || recent[0].FromPriority != 45 || recent[0].ToPriority != 55 {
		t.Fatalf("Recent() = %+v, want one event with from=45 to=55", recent)
	}
}
