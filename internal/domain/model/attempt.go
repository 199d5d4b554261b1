/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// Attempt is an audit record of one validation. The secret key is never part of it.
type Attempt struct {
	ID          int64
	ChallengeID string
	Result      Result
	Detail      []byte // CBOR encoded AttemptDetail
	CreatedAt   time.Time
}

// AttemptDetail describes the transition a validation caused.
type AttemptDetail struct {
	_         struct{} `cbor:",toarray"`
	From      string
	To        string
	Submitted bool
}
