// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package heapqueue

import "testing"

type item struct {
	id       int
	priority int
}

func byPriorityDesc(a, b *item) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.id < b.id
}

func TestFixRestoresOrderAfterInPlaceKeyChange(t *testing.T) {
	q := New(byPriorityDesc)
	low := &item{id: 1, priority: 55}
	high := &item{id: 2, priority: 60}
	q.Push(low)
	q.Push(high)

	if got := q.Peek(); got != high {
		t.Fatalf("Peek() = %+v, want %+v", got, high)
	}

	low.priority = 65 // now the higher priority, in place, no Push/Pop
	if !q.Fix(func(c *item) bool { return c.id == low.id }) {
		t.Fatal("Fix() = false, want true (low is queued)")
	}

	if got := q.Peek(); got != low {
		t.Fatalf("Peek() after Fix = %+v, want %+v", got, low)
	}
}

func TestFixReturnsFalseWhenNoMatch(t *testing.T) {
	q := New(byPriorityDesc)
	q.Push(&item{id: 1, priority: 10})

	if q.Fix(func(c *item) bool { return c.id == 99 }) {
		t.Fatal("Fix() = true, want false for an absent id")
	}
}
