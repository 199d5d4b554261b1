/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package service

import (
	"context"

	"github.com/kentakayama/two-step-auth/internal/domain/model"
)

// AttemptRepository defines the interface for validation audit persistence.
type AttemptRepository interface {
	Create(ctx context.Context, a *model.Attempt) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Attempt, error)
	ListByChallengeID(ctx context.Context, challengeID string) ([]*model.Attempt, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Attempt, error)
}
