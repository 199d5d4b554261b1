/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kentakayama/two-step-auth/internal/domain/model"
)

// AttemptRepository handles validation audit persistence.
type AttemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Create inserts a new attempt and returns the inserted id.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) (int64, error) {
	const q = `
		INSERT INTO attempts (challenge_id, result, detail, created_at)
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q, a.ChallengeID, int32(a.Result), a.Detail, a.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindByID returns an attempt by its ID, or nil when absent.
func (r *AttemptRepository) FindByID(ctx context.Context, id int64) (*model.Attempt, error) {
	const q = `
		SELECT id, challenge_id, result, detail, created_at
		FROM attempts
		WHERE id = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var a model.Attempt
	if err := row.Scan(&a.ID, &a.ChallengeID, &a.Result, &a.Detail, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan attempt: %w", err)
	}
	return &a, nil
}

// ListByChallengeID returns the attempts against one challenge, oldest first.
func (r *AttemptRepository) ListByChallengeID(ctx context.Context, challengeID string) ([]*model.Attempt, error) {
	const q = `
		SELECT id, challenge_id, result, detail, created_at
		FROM attempts
		WHERE challenge_id = ?
		ORDER BY id ASC
	`
	return r.list(ctx, q, challengeID)
}

// ListRecent returns up to limit attempts, newest first.
func (r *AttemptRepository) ListRecent(ctx context.Context, limit int) ([]*model.Attempt, error) {
	const q = `
		SELECT id, challenge_id, result, detail, created_at
		FROM attempts
		ORDER BY id DESC
		LIMIT ?
	`
	return r.list(ctx, q, limit)
}

func (r *AttemptRepository) list(ctx context.Context, q string, args ...any) ([]*model.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.ChallengeID, &a.Result, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}
