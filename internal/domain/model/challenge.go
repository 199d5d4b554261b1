/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// State is the lifecycle position of the active challenge.
type State int

const (
	StateNoKey State = iota
	StatePending
	StateExpired
	StateMatched
	StateMismatched
)

func (s State) String() string {
	switch s {
	case StateNoKey:
		return "no-key"
	case StatePending:
		return "pending"
	case StateExpired:
		return "expired"
	case StateMatched:
		return "matched"
	case StateMismatched:
		return "mismatched"
	default:
		return "unknown"
	}
}

// Result is the outcome of a validation. The numeric values are the codes
// returned to the caller of the validate control request.
type Result int32

const (
	ResultMismatched  Result = 0
	ResultMatched     Result = 1
	ResultExpired     Result = 2
	ResultNoKeyIssued Result = 3
)

func (r Result) String() string {
	switch r {
	case ResultMismatched:
		return "mismatched"
	case ResultMatched:
		return "matched"
	case ResultExpired:
		return "expired"
	case ResultNoKeyIssued:
		return "no-key-issued"
	default:
		return "unknown"
	}
}

// Challenge is a point-in-time copy of the active challenge without its secret.
type Challenge struct {
	ID           string
	State        State
	HasKey       bool
	HasSubmitted bool
	IssuedAt     time.Time
	Deadline     time.Time
}
