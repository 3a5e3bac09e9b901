// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT
//
// Tests for freemap.go
package freemap

import (
	"testing"

	"github.com/kernellab/core/internal/core"
)

func TestFindAndSetLowestIndex(t *testing.T) {
	f := New(16)
	f.Mark(0)
	f.Mark(1)

	got := f.FindAndSet()
	if got != 2 {
		t.Fatalf("FindAndSet() = %d, want 2", got)
	}
	if !f.Test(2) {
		t.Fatal("sector 2 should be marked after FindAndSet")
	}
}

func TestFindAndSetFull(t *testing.T) {
	f := New(4)
	for i := 0; i < 4; i++ {
		f.Mark(core.SectorNum(i))
	}
	if got := f.FindAndSet(); got != core.NoSector {
		t.Fatalf("FindAndSet() on full map = %d, want NoSector", got)
	}
}

func TestClearRestoresBit(t *testing.T) {
	f := New(8)
	n := f.FindAndSet()
	f.Clear(n)
	if f.Test(n) {
		t.Fatalf("sector %d still marked after Clear", n)
	}
	if got := f.NumClear(); got != 8 {
		t.Fatalf("NumClear() = %d, want 8", got)
	}
}

func TestSingleClearDoesNotTripDoubleClearCheck(t *testing.T) {
	// PreconditionViolated calls log.Fatalf, which we can't easily observe
	// without exiting the test process, so we only exercise the
	// precondition-holding path here and rely on freemap.go's assertion
	// for the violation itself.
	f := New(8)
	n := f.FindAndSet()
	f.Clear(n)
	if f.Test(n) {
		t.Fatal("expected sector to be clear")
	}
}

func TestNumClearAccounting(t *testing.T) {
	f := New(10)
	if got := f.NumClear(); got != 10 {
		t.Fatalf("NumClear() on empty map = %d, want 10", got)
	}
	for i := 0; i < 3; i++ {
		f.FindAndSet()
	}
	if got := f.NumClear(); got != 7 {
		t.Fatalf("NumClear() after 3 allocations = %d, want 7", got)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	f := New(24)
	f.Mark(0)
	f.Mark(5)
	f.Mark(23)

	loaded := Load(24, f.Bytes())
	for _, n := range []core.SectorNum{0, 5, 23} {
		if !loaded.Test(n) {
			t.Fatalf("sector %d not marked after Load round trip", n)
		}
	}
	if got := loaded.NumClear(); got != 21 {
		t.Fatalf("NumClear() after Load = %d, want 21", got)
	}
}
