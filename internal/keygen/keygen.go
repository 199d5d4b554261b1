/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package keygen produces the numeric one-time keys.
//
// The stream comes from a linear congruential generator and is predictable to
// anyone who learns the seed. It is not suitable for security sensitive secrets.
package keygen

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/kentakayama/two-step-auth/internal/domain"
)

const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	lcgModulus    = 1 << 31

	// DefaultMin and DefaultMax bound issued keys, inclusive.
	DefaultMin = 10_000_000
	DefaultMax = 99_999_999
	// DefaultMaxAttempts caps shaping rounds before giving up.
	DefaultMaxAttempts = 64
)

// KeyGenerator produces keys within configured bounds.
type KeyGenerator interface {
	Next() (int, error)
}

// LCG is the raw generator. The zero value is unseeded.
type LCG struct {
	seed   uint32
	seeded bool
}

// NewLCG returns a generator with a fixed seed.
func NewLCG(seed uint32) *LCG {
	return &LCG{seed: seed % lcgModulus, seeded: true}
}

// Seeded reports whether the generator has been seeded.
func (l *LCG) Seeded() bool {
	return l.seeded
}

// Reseed replaces the state.
func (l *LCG) Reseed(seed uint32) {
	l.seed = seed % lcgModulus
	l.seeded = true
}

// Next advances the state and returns it.
func (l *LCG) Next() uint32 {
	l.seed = uint32((uint64(l.seed)*lcgMultiplier + lcgIncrement) % lcgModulus)
	return l.seed
}

// Generator shapes LCG output into keys. Safe for concurrent use.
type Generator struct {
	mu          sync.Mutex
	lcg         *LCG
	clock       clock.Clock
	epoch       time.Time
	min, max    int
	maxAttempts int
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the stream deterministic.
func WithSeed(seed uint32) Option {
	return func(g *Generator) {
		g.lcg.Reseed(seed)
	}
}

// WithClock sets the clock the lazy seed is read from.
func WithClock(c clock.Clock) Option {
	return func(g *Generator) {
		g.clock = c
	}
}

// WithBounds sets the inclusive key range.
func WithBounds(lo, hi int) Option {
	return func(g *Generator) {
		g.min = lo
		g.max = hi
	}
}

// WithMaxAttempts caps the number of shaping rounds per key.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		g.maxAttempts = n
	}
}

// NewGenerator returns a Generator with default bounds unless overridden.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		lcg:         &LCG{},
		clock:       clock.New(),
		min:         DefaultMin,
		max:         DefaultMax,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.min <= 0 || g.min > g.max {
		return nil, fmt.Errorf("invalid key bounds [%d, %d]", g.min, g.max)
	}
	if g.maxAttempts <= 0 {
		return nil, fmt.Errorf("invalid max attempts %d", g.maxAttempts)
	}
	g.epoch = g.clock.Now()
	return g, nil
}

// Next returns a key in [min, max].
func (g *Generator) Next() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lcg.Seeded() {
		// elapsed time keeps the monotonic reading
		g.lcg.Reseed(uint32(g.clock.Since(g.epoch).Nanoseconds() + g.epoch.UnixNano()))
	}

	for i := 0; i < g.maxAttempts; i++ {
		if key, ok := g.shape(); ok {
			return key, nil
		}
	}
	return 0, fmt.Errorf("%w after %d attempts", domain.ErrGeneratorExhausted, g.maxAttempts)
}

func (g *Generator) shape() (int, bool) {
	n := int(g.lcg.Next()%10000) * int(g.lcg.Next()%10000)
	if n < g.min {
		n *= int(g.lcg.Next() % 10)
	}
	if n > g.max {
		n /= 10
	}
	return n, n >= g.min && n <= g.max
}

// Sequence replays fixed keys, cycling when exhausted.
type Sequence struct {
	mu   sync.Mutex
	keys []int
	pos  int
}

// NewSequence returns a Sequence over keys.
func NewSequence(keys ...int) *Sequence {
	return &Sequence{keys: keys}
}

// Next returns the next key, or domain.ErrGeneratorExhausted when empty.
func (s *Sequence) Next() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.keys) == 0 {
		return 0, domain.ErrGeneratorExhausted
	}
	k := s.keys[s.pos%len(s.keys)]
	s.pos++
	return k, nil
}
