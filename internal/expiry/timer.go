/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package expiry

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Timer is a single-shot countdown. Each Arm returns a generation number that
// is passed to the expiry callback, so a callback from a replaced arming can
// be told apart from the current one.
type Timer struct {
	mu       sync.Mutex
	clock    clock.Clock
	timer    *clock.Timer
	gen      uint64
	armed    bool
	expired  bool
	deadline time.Time
	onExpire func(gen uint64)
}

// New creates a disarmed timer. onExpire may be nil.
func New(c clock.Clock, onExpire func(gen uint64)) *Timer {
	if c == nil {
		c = clock.New()
	}
	return &Timer{
		clock:    c,
		onExpire: onExpire,
	}
}

// Arm cancels any pending fire and schedules a new one d from now.
func (t *Timer) Arm(d time.Duration) (uint64, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.armed = true
	t.expired = false
	t.deadline = t.clock.Now().Add(d)
	t.timer = t.clock.AfterFunc(d, func() { t.fire(gen) })
	return gen, t.deadline
}

// Cancel stops a pending fire. It is safe to call repeatedly or before Arm.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	t.armed = false
	t.expired = false
}

// IsExpired reports whether the armed countdown has elapsed, either because
// the callback ran or because the deadline is already behind the clock.
func (t *Timer) IsExpired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.armed {
		return false
	}
	return t.expired || !t.clock.Now().Before(t.deadline)
}

// Deadline returns the current deadline and whether the timer is armed.
func (t *Timer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deadline, t.armed
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.armed {
		t.mu.Unlock()
		return
	}
	t.expired = true
	t.timer = nil
	cb := t.onExpire
	t.mu.Unlock()

	// called without the lock so the owner may take its own lock
	if cb != nil {
		cb(gen)
	}
}

func (t *Timer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
