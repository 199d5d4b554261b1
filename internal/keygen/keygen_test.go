/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package keygen

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/kentakayama/two-step-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCG_Next(t *testing.T) {
	l := NewLCG(1)
	assert.Equal(t, uint32(1103527590), l.Next())
	assert.Equal(t, uint32(377401575), l.Next())
	assert.Equal(t, uint32(662824084), l.Next())
}

func TestLCG_Unseeded(t *testing.T) {
	var l LCG
	assert.False(t, l.Seeded())
	l.Reseed(1)
	assert.True(t, l.Seeded())
	assert.Equal(t, uint32(1103527590), l.Next())
}

func TestGenerator_DeterministicWithSeed(t *testing.T) {
	g, err := NewGenerator(WithSeed(1))
	require.Nil(t, err)

	var got []int
	for i := 0; i < 3; i++ {
		k, err := g.Next()
		require.Nil(t, err)
		got = append(got, k)
	}
	assert.Equal(t, []int{11954250, 11357604, 48774910}, got)
}

func TestGenerator_KeysWithinBounds(t *testing.T) {
	for seed := uint32(0); seed < 2000; seed++ {
		g, err := NewGenerator(WithSeed(seed))
		require.Nil(t, err)
		for i := 0; i < 5; i++ {
			k, err := g.Next()
			require.Nil(t, err, "seed %d", seed)
			if k < DefaultMin || k > DefaultMax {
				t.Fatalf("seed %d produced out of range key %d", seed, k)
			}
		}
	}
}

func TestGenerator_LazySeedFromClock(t *testing.T) {
	mock := clock.NewMock()
	mock.Add(123456789 * time.Nanosecond)
	g, err := NewGenerator(WithClock(mock))
	require.Nil(t, err)
	assert.False(t, g.lcg.Seeded())

	mock.Add(time.Second)
	k, err := g.Next()
	require.Nil(t, err)
	assert.True(t, g.lcg.Seeded())
	assert.GreaterOrEqual(t, k, DefaultMin)
	assert.LessOrEqual(t, k, DefaultMax)
}

func TestGenerator_Exhausted(t *testing.T) {
	g, err := NewGenerator(WithSeed(1), WithBounds(99_999_990, 99_999_999), WithMaxAttempts(3))
	require.Nil(t, err)

	_, err = g.Next()
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, domain.ErrGeneratorExhausted))
}

func TestNewGenerator_InvalidOptions(t *testing.T) {
	_, err := NewGenerator(WithBounds(0, 10))
	assert.NotNil(t, err)
	_, err = NewGenerator(WithBounds(20, 10))
	assert.NotNil(t, err)
	_, err = NewGenerator(WithMaxAttempts(0))
	assert.NotNil(t, err)
}

func TestSequence(t *testing.T) {
	s := NewSequence(42424242, 13131313)
	for _, want := range []int{42424242, 13131313, 42424242} {
		k, err := s.Next()
		require.Nil(t, err)
		assert.Equal(t, want, k)
	}

	_, err := NewSequence().Next()
	assert.True(t, errors.Is(err, domain.ErrGeneratorExhausted))
}
