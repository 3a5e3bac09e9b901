// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package heapqueue provides a generic container/heap-backed priority
// queue over any element type ordered by a Less comparator, so the
// scheduler's three ready queues can share one implementation.
package heapqueue

import "container/heap"

// Less orders two elements of the same queue. The element for which
// Less returns true is popped first.
type Less[T any] func(a, b T) bool

// Queue is an unbounded, non-blocking priority queue ordered by a Less
// function supplied at construction. It is not safe for concurrent use;
// callers serialize access the same way the scheduler serializes access
// to its ready queues (interrupts disabled).
type Queue[T any] struct {
	data quHeap[T]
}

// New creates an empty Queue ordered by less.
func New[T any](less Less[T]) *Queue[T] {
	return &Queue[T]{data: quHeap[T]{less: less}}
}

// Len returns the number of elements currently queued.
func (q *Queue[T]) Len() int {
	return len(q.data.items)
}

// Push inserts item into the queue.
func (q *Queue[T]) Push(item T) {
	heap.Push(&q.data, item)
}

// Pop removes and returns the front element. It panics if the queue is
// empty; callers must check Len first.
func (q *Queue[T]) Pop() T {
	return heap.Pop(&q.data).(T)
}

// Peek returns the front element without removing it. It panics if the
// queue is empty.
func (q *Queue[T]) Peek() T {
	return q.data.items[0]
}

// Remove deletes the first element for which match returns true and
// returns it along with true. If no element matches, it returns the
// zero value and false.
func (q *Queue[T]) Remove(match func(T) bool) (T, bool) {
	for i, item := range q.data.items {
		if match(item) {
			removed := heap.Remove(&q.data, i)
			return removed.(T), true
		}
	}
	var zero T
	return zero, false
}

// Fix re-establishes the heap invariant for the first element for which
// match returns true, after its ordering key has changed in place.
// Callers must use this instead of mutating a queued element's key and
// leaving it in place; it returns false if no element matches.
func (q *Queue[T]) Fix(match func(T) bool) bool {
	for i, item := range q.data.items {
		if match(item) {
			heap.Fix(&q.data, i)
			return true
		}
	}
	return false
}

// Each calls fn for every queued element, in heap (not sorted) order.
func (q *Queue[T]) Each(fn func(T)) {
	for _, item := range q.data.items {
		fn(item)
	}
}

// quHeap adapts a slice plus a Less function to the container/heap
// interface.
type quHeap[T any] struct {
	items []T
	less  Less[T]
}

func (h quHeap[T]) Len() int           { return len(h.items) }
func (h quHeap[T]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h quHeap[T]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *quHeap[T]) Push(x interface{}) {
	h.items = append(h.items, x.(T))
}

func (h *quHeap[T]) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
