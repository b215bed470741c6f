package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestLimiterAllowsUpToLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := New(NewMemoryStore(clock), 5, time.Hour, "ratelimit:test")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow(ctx, "visitor-1"), "hit %d should pass", i+1)
	}
	err := l.Allow(ctx, "visitor-1")
	require.Error(t, err)

	var cerr *utils.CustomError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, utils.ErrTooManyRequests.Code, cerr.Code)
	assert.Greater(t, cerr.RetryAfter, 0)
}

func TestLimiterIsolatesIdentities(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := New(NewMemoryStore(clock), 2, time.Hour, "ratelimit:test")
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "visitor-1"))
	require.NoError(t, l.Allow(ctx, "visitor-1"))
	require.Error(t, l.Allow(ctx, "visitor-1"))

	require.NoError(t, l.Allow(ctx, "visitor-2"), "a second identity has its own window")
}

func TestLimiterWindowResets(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := New(NewMemoryStore(clock), 1, time.Hour, "ratelimit:test")
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "visitor-1"))
	require.Error(t, l.Allow(ctx, "visitor-1"))

	clock.advance(30 * time.Minute)
	require.Error(t, l.Allow(ctx, "visitor-1"), "still inside the window")

	clock.advance(31 * time.Minute)
	require.NoError(t, l.Allow(ctx, "visitor-1"), "a fresh window admits again")
}

func TestLimiterRetryAfterShrinksWithTime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := New(NewMemoryStore(clock), 1, time.Hour, "ratelimit:test")
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "visitor-1"))

	err := l.Allow(ctx, "visitor-1")
	var first *utils.CustomError
	require.ErrorAs(t, err, &first)

	clock.advance(45 * time.Minute)
	err = l.Allow(ctx, "visitor-1")
	var later *utils.CustomError
	require.ErrorAs(t, err, &later)

	assert.Less(t, later.RetryAfter, first.RetryAfter)
}

func TestMemoryStoreCountAndReset(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(clock)
	ctx := context.Background()

	count, reset, err := s.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, time.Minute, reset)

	clock.advance(20 * time.Second)
	count, reset, err = s.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, 40*time.Second, reset)
}
