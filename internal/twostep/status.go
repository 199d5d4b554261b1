/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package twostep

import "github.com/kentakayama/two-step-auth/internal/domain/model"

const (
	StatusInvalid = "Invalid Key!"
	StatusSuccess = "Successful two-step authentication!"
	StatusExpired = "Expired Key!"
)

func statusLine(s model.State) string {
	switch s {
	case model.StateMatched:
		return StatusSuccess
	case model.StateExpired:
		return StatusExpired
	default:
		return StatusInvalid
	}
}
