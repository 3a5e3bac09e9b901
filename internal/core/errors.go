// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package core

import log "github.com/golang/glog"

// Error is the kernel's own error type. Recoverable operations return a
// value of this type (NoError on success) instead of the builtin error, so
// that the thin syscall surface can translate failures into the 0/1/-1
// sentinels user programs expect without string matching.
type Error int

const (
	// NoError means the operation succeeded.
	NoError = Error(iota)

	// ErrInvalidPath is returned when a path or path segment violates a
	// length bound.
	ErrInvalidPath

	// ErrNotFound is returned when a name or path component does not exist.
	ErrNotFound

	// ErrAlreadyExists is returned when a create conflicts with an existing
	// entry of the same name.
	ErrAlreadyExists

	// ErrNoSpace is returned when the free map is exhausted or a directory
	// table is full.
	ErrNoSpace

	// ErrTypeMismatch is returned when an operation is attempted against an
	// object of the wrong kind, e.g. a non-recursive remove of a directory.
	ErrTypeMismatch

	// ErrSlotExhausted is returned when the open-file table has no free slot.
	ErrSlotExhausted
)

var description = map[Error]string{
	NoError:          "no error",
	ErrInvalidPath:   "path or path segment exceeds its length bound",
	ErrNotFound:      "name or path component not found",
	ErrAlreadyExists: "name already exists",
	ErrNoSpace:       "no space left (free map or directory table is full)",
	ErrTypeMismatch:  "operation not valid for this entry's type",
	ErrSlotExhausted: "open-file table is full",
}

// String returns a human readable description of the error.
func (e Error) String() string {
	if s, ok := description[e]; ok {
		return s
	}
	return "unknown kernel error"
}

// Error adapts a core.Error to the builtin error interface.
func (e Error) Error() string {
	return e.String()
}

// Ok reports whether e represents success.
func (e Error) Ok() bool {
	return e == NoError
}

// PreconditionViolated aborts the kernel. These mark invariant violations --
// dispatch attempted with interrupts enabled, a double-finish, a double free
// of a sector -- bugs to fix, not conditions a caller can recover from. It
// never returns.
func PreconditionViolated(format string, args ...interface{}) {
	log.Fatalf("precondition violated: "+format, args...)
}
