// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package trace captures the scheduler's debug channel 'z' dispatch
// events into an in-memory ring buffer and, optionally,
// a durable github.com/mattn/go-sqlite3 database for offline querying by
// `kernelctl trace`.
package trace

import (
	"database/sql"

	// Registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"

	log "github.com/golang/glog"

	"github.com/kernellab/core/internal/core"
)

// Kind identifies which of the four dispatch events a record holds.
type Kind byte

const (
	KindInserted        Kind = 'A'
	KindRemoved         Kind = 'B'
	KindPriorityChanged Kind = 'C'
	KindDispatched      Kind = 'E'
)

// Event is one recorded dispatch event. Not every field is meaningful
// for every Kind; zero values are used for the fields a given Kind does
// not populate.
type Event struct {
	Tick          core.Tick
	Kind          Kind
	ThreadID      core.ThreadID
	Band          core.Band
	FromPriority  core.Priority
	ToPriority    core.Priority
	NextID        core.ThreadID
	PrevID        core.ThreadID
	TicksExecuted int
}

// ring is a fixed-capacity circular buffer of the most recent events.
type ring struct {
	events []Event
	next   int
	filled bool
}

func newRing(capacity int) *ring {
	return &ring{events: make([]Event, capacity)}
}

func (r *ring) append(e Event) {
	r.events[r.next] = e
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.filled = true
	}
}

// all returns the buffered events in chronological order.
func (r *ring) all() []Event {
	if !r.filled {
		return append([]Event(nil), r.events[:r.next]...)
	}
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	out = append(out, r.events[:r.next]...)
	return out
}

// Log is the scheduler's debug sink: every event lands in the ring
// buffer, and -- if opened against a database file -- is also persisted
// to sqlite.
type Log struct {
	ring       *ring
	db         *sql.DB
	insertStmt *sql.Stmt
}

// NewLog creates a Log with an in-memory ring buffer of ringCapacity
// events. If dbPath is non-empty, events are additionally persisted to
// a sqlite3 database at that path, following the same dedicated
// sqlite-backed event log pattern used elsewhere.
func NewLog(ringCapacity int, dbPath string) *Log {
	l := &Log{ring: newRing(ringCapacity)}
	if dbPath == "" {
		return l
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatalf("trace: failed to open %s: %s", dbPath, err)
	}
	createStmt := `CREATE TABLE IF NOT EXISTS events (
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		thread_id INTEGER NOT NULL,
		band TEXT,
		from_priority INTEGER,
		to_priority INTEGER,
		next_id INTEGER,
		prev_id INTEGER,
		ticks_executed INTEGER
	)`
	if _, err := db.Exec(createStmt); err != nil {
		db.Close()
		log.Fatalf("trace: failed to create events table: %s", err)
	}
	insertStmt, err := db.Prepare(`INSERT INTO events
		(tick, kind, thread_id, band, from_priority, to_priority, next_id, prev_id, ticks_executed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		log.Fatalf("trace: failed to prepare insert statement: %s", err)
	}

	l.db = db
	l.insertStmt = insertStmt
	return l
}

// Close releases the underlying sqlite handle, if any.
func (l *Log) Close() {
	if l.db != nil {
		l.db.Close()
	}
}

func (l *Log) record(e Event) {
	l.ring.append(e)
	if l.insertStmt == nil {
		return
	}
	_, err := l.insertStmt.Exec(
		int64(e.Tick), string(e.Kind), int64(e.ThreadID),
		e.Band.String(), int64(e.FromPriority), int64(e.ToPriority),
		int64(e.NextID), int64(e.PrevID), e.TicksExecuted,
	)
	if err != nil {
		log.Errorf("trace: insert failed: %s", err)
	}
}

// Recent returns every event currently held in the ring buffer, oldest
// first.
func (l *Log) Recent() []Event {
	return l.ring.all()
}

// The following methods implement scheduler.EventSink.

func (l *Log) Inserted(tick core.Tick, id core.ThreadID, band core.Band) {
	l.record(Event{Tick: tick, Kind: KindInserted, ThreadID: id, Band: band})
}

func (l *Log) Removed(tick core.Tick, id core.ThreadID, band core.Band) {
	l.record(Event{Tick: tick, Kind: KindRemoved, ThreadID: id, Band: band})
}

func (l *Log) PriorityChanged(tick core.Tick, id core.ThreadID, from, to core.Priority) {
	l.record(Event{Tick: tick, Kind: KindPriorityChanged, ThreadID: id, FromPriority: from, ToPriority: to})
}

func (l *Log) Dispatched(tick core.Tick, nextID, prevID core.ThreadID, ticksExecuted int) {
	l.record(Event{Tick: tick, Kind: KindDispatched, NextID: nextID, PrevID: prevID, TicksExecuted: ticksExecuted})
}

// QuerySqlite opens dbPath (in the driver's default read-write mode, not
// read-only) and returns the most recent limit events, newest first, for
// `kernelctl trace` to inspect a database from a past run.
func QuerySqlite(dbPath string, limit int) ([]Event, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT tick, kind, thread_id, band, from_priority, to_priority, next_id, prev_id, ticks_executed
		FROM events ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var kind, band string
		var tick, threadID, from, to, next, prev int64
		if err := rows.Scan(&tick, &kind, &threadID, &band, &from, &to, &next, &prev, &e.TicksExecuted); err != nil {
			return nil, err
		}
		e.Tick = core.Tick(tick)
		e.Kind = Kind(kind[0])
		e.ThreadID = core.ThreadID(threadID)
		for _, b := range [...]core.Band{core.BandL1, core.BandL2, core.BandL3} {
			if band == b.String() {
				e.Band = b
			}
		}
		e.FromPriority = core.Priority(from)
		e.ToPriority = core.Priority(to)
		e.NextID = core.ThreadID(next)
		e.PrevID = core.ThreadID(prev)
		out = append(out, e)
	}
	return out, rows.Err()
}
