// Copyright (c) 2018 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

// Package retry backs off and retries an operation that can fail
// transiently, such as opening a boltdb file another kernelctl
// process still holds locked.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Attempt is one try of the operation under retry. On every call it
// receives the attempt number, starting at 0. It returns true once the
// operation has succeeded and no further attempts are needed.
type Attempt func(attempt int) (done bool)

// Retrier is a backoff schedule for a single call to Do.
type Retrier struct {
	// MinSleep is the shortest and initial sleep time between attempts.
	MinSleep time.Duration

	// MaxSleep bounds how long backoff can grow to between attempts.
	MaxSleep time.Duration

	// MaxRetry, if greater than zero, bounds the total wall-clock time
	// spent across every attempt.
	MaxRetry time.Duration

	// MaxNumRetries, if greater than zero, bounds the number of attempts.
	MaxNumRetries int
}

// Do calls attempt, backing off and retrying while it returns false.
// It returns (true, false) once attempt succeeds, (false, false) once
// MaxNumRetries or MaxRetry is exhausted, and (false, true) if ctx is
// cancelled while sleeping between attempts.
func (r *Retrier) Do(ctx context.Context, attempt Attempt) (success, cancelled bool) {
	if r.MaxSleep < r.MinSleep {
		r.MaxSleep = r.MinSleep
	}
	backoff := r.MinSleep
	start := time.Now()
	for i := 0; ; i++ {
		if r.MaxNumRetries > 0 && i >= r.MaxNumRetries ||
			r.MaxRetry > 0 && time.Since(start)+backoff > r.MaxRetry {
			return false, false
		}
		if attempt(i) {
			return true, false
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false, true
		}
		backoff = time.Duration(float64(backoff) * (1.75 + 0.5*rand.Float64()))
		if backoff > r.MaxSleep {
			backoff = r.MaxSleep + time.Duration(float64(r.MinSleep)*rand.Float64())
		}
	}
}
