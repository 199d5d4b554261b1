/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package twostep holds the single active two-step challenge: it issues a
// key, arms its expiry and judges submitted candidates against it.
package twostep

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/kentakayama/two-step-auth/internal/config"
	"github.com/kentakayama/two-step-auth/internal/domain"
	"github.com/kentakayama/two-step-auth/internal/domain/model"
	"github.com/kentakayama/two-step-auth/internal/domain/service"
	"github.com/kentakayama/two-step-auth/internal/expiry"
	"github.com/kentakayama/two-step-auth/internal/keygen"
)

// Session is the challenge state machine. All methods are safe for
// concurrent use; none of them blocks waiting for the expiry window.
type Session struct {
	mu     sync.Mutex
	cfg    config.AuthConfig
	gen    keygen.KeyGenerator
	clock  clock.Clock
	timer  *expiry.Timer
	audit  service.AttemptRepository
	logger *log.Logger
	ctx    context.Context // Background context for audit writes

	id        string
	secret    int
	hasSecret bool
	submitted int
	hasSubmit bool
	state     model.State
	issuedAt  time.Time
	deadline  time.Time
	armGen    uint64
	closed    bool
}

type Option func(*Session)

// WithGenerator replaces the default LCG key generator.
func WithGenerator(g keygen.KeyGenerator) Option {
	return func(s *Session) {
		s.gen = g
	}
}

// WithClock drives the expiry timer and timestamps from c.
func WithClock(c clock.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithAttemptRepository records every validation outcome.
func WithAttemptRepository(r service.AttemptRepository) Option {
	return func(s *Session) {
		s.audit = r
	}
}

// NewSession creates a session in the NoKey state.
func NewSession(cfg config.AuthConfig, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Session{
		cfg:    cfg,
		clock:  clock.New(),
		logger: cfg.Logger,
		ctx:    context.Background(),
		state:  model.StateNoKey,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.gen == nil {
		g, err := keygen.NewGenerator(
			keygen.WithClock(s.clock),
			keygen.WithBounds(cfg.KeyMin, cfg.KeyMax),
			keygen.WithMaxAttempts(cfg.MaxGenerateAttempts),
		)
		if err != nil {
			return nil, err
		}
		s.gen = g
	}
	s.timer = expiry.New(s.clock, s.onExpire)
	return s, nil
}

// Generate issues a fresh key, discarding any prior challenge, and arms the
// expiry window.
func (s *Session) Generate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateLocked()
}

func (s *Session) generateLocked() error {
	if s.closed {
		return domain.ErrSessionClosed
	}

	s.logger.Printf("Creating key..")
	key, err := s.gen.Next()
	if err != nil {
		s.logger.Printf("failed to create key: %v", err)
		return fmt.Errorf("generate key: %w", err)
	}
	if !s.cfg.InRange(key) {
		s.logger.Printf("generator returned out of range key %d", key)
		return fmt.Errorf("generate key: %w: %d outside [%d, %d]", domain.ErrGeneratorExhausted, key, s.cfg.KeyMin, s.cfg.KeyMax)
	}

	s.id = uuid.NewString()
	s.secret = key
	s.hasSecret = true
	s.submitted = 0
	s.hasSubmit = false
	s.state = model.StatePending
	s.issuedAt = s.clock.Now()
	s.armGen, s.deadline = s.timer.Arm(s.cfg.ExpiryWindow)

	s.logger.Printf("Key %d created (challenge %s)", key, s.id)
	s.logger.Printf("Timer successfully started, expires at %s", s.deadline.Format(time.RFC3339))
	return nil
}

// Submit stores candidate and validates it. Out-of-range candidates return
// domain.ErrInvalidFormat, drop any earlier candidate and leave the challenge
// state untouched.
func (s *Session) Submit(candidate int) (model.Result, error) {
	s.mu.Lock()
	if err := s.storeLocked(candidate); err != nil {
		s.mu.Unlock()
		return model.ResultMismatched, err
	}
	attempt := s.validateLocked()
	s.mu.Unlock()

	s.record(attempt)
	return attempt.Result, nil
}

// Store keeps candidate for a later Validate without judging it.
func (s *Session) Store(candidate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(candidate)
}

func (s *Session) storeLocked(candidate int) error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	if !s.cfg.InRange(candidate) {
		s.logger.Printf("User entered invalid key format")
		s.clearCandidateLocked()
		return fmt.Errorf("%w: %d outside [%d, %d]", domain.ErrInvalidFormat, candidate, s.cfg.KeyMin, s.cfg.KeyMax)
	}
	s.submitted = candidate
	s.hasSubmit = true
	return nil
}

// DiscardCandidate drops any stored candidate, as a rejected write does. The
// challenge state is left unchanged.
func (s *Session) DiscardCandidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCandidateLocked()
}

func (s *Session) clearCandidateLocked() {
	s.submitted = 0
	s.hasSubmit = false
}

// Validate judges the stored candidate against the issued key. Missing key
// and expiry take precedence over equality, so a correct but late candidate
// reports Expired.
func (s *Session) Validate() (model.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.ResultMismatched, domain.ErrSessionClosed
	}
	attempt := s.validateLocked()
	s.mu.Unlock()

	s.record(attempt)
	return attempt.Result, nil
}

func (s *Session) validateLocked() *model.Attempt {
	from := s.state
	var result model.Result

	switch {
	case !s.hasSecret:
		s.logger.Printf("Key is missing")
		result = model.ResultNoKeyIssued
	case s.state == model.StateExpired || s.timer.IsExpired():
		s.state = model.StateExpired
		result = model.ResultExpired
	case !s.hasSubmit:
		s.logger.Printf("User Key is missing")
		s.state = model.StateMismatched
		result = model.ResultMismatched
	case s.submitted == s.secret:
		s.state = model.StateMatched
		result = model.ResultMatched
	default:
		s.state = model.StateMismatched
		result = model.ResultMismatched
	}
	s.logger.Printf("Validated challenge %s: %s (%s -> %s)", s.id, result, from, s.state)

	detail, err := cbor.Marshal(model.AttemptDetail{
		From:      from.String(),
		To:        s.state.String(),
		Submitted: s.hasSubmit,
	})
	if err != nil {
		s.logger.Printf("failed to encode attempt detail: %v", err)
	}
	return &model.Attempt{
		ChallengeID: s.id,
		Result:      result,
		Detail:      detail,
		CreatedAt:   s.clock.Now().UTC(),
	}
}

// ReadStatus returns the status line for the current state. Reading an
// expired challenge issues a new key as a side effect; callers that want the
// rotation explicit should use RotateIfExpired before reading.
func (s *Session) ReadStatus() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", domain.ErrSessionClosed
	}
	s.expireIfDueLocked()

	line := statusLine(s.state)
	if s.state == model.StateExpired {
		if err := s.generateLocked(); err != nil {
			return line, err
		}
	}
	return line, nil
}

// RotateIfExpired issues a new key when the current one has expired and
// reports whether it did.
func (s *Session) RotateIfExpired() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, domain.ErrSessionClosed
	}
	s.expireIfDueLocked()
	if s.state != model.StateExpired {
		return false, nil
	}
	if err := s.generateLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// State returns the current state, folding in an elapsed deadline.
func (s *Session) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfDueLocked()
	return s.state
}

// Snapshot returns a copy of the challenge without the secret.
func (s *Session) Snapshot() model.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfDueLocked()
	return model.Challenge{
		ID:           s.id,
		State:        s.state,
		HasKey:       s.hasSecret,
		HasSubmitted: s.hasSubmit,
		IssuedAt:     s.issuedAt,
		Deadline:     s.deadline,
	}
}

// Close cancels the timer. Later calls return domain.ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.timer.Cancel()
	s.closed = true
	return nil
}

// expireIfDueLocked moves Pending to Expired once the deadline has passed,
// even if the timer callback has not been delivered yet.
func (s *Session) expireIfDueLocked() {
	if s.state == model.StatePending && s.timer.IsExpired() {
		s.logger.Printf("Key expired (challenge %s)", s.id)
		s.state = model.StateExpired
	}
}

func (s *Session) onExpire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a later Generate has re-armed; this fire belongs to a replaced key
	if gen != s.armGen || s.closed {
		return
	}
	s.expireIfDueLocked()
}

func (s *Session) record(a *model.Attempt) {
	if s.audit == nil || a == nil {
		return
	}
	if _, err := s.audit.Create(s.ctx, a); err != nil {
		s.logger.Printf("failed to record attempt: %v", err)
	}
}
