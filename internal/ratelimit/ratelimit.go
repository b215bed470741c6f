// Package ratelimit provides a windowed submission counter keyed by caller
// identity. The clock and the counter store are injected so the limiter can
// run against redis in a multi-process deployment and against an in-memory
// store in tests.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cosmicdev/devspace/pkg/utils"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// Clock abstracts time for the in-memory store.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Store counts hits per key within a window. Increment returns the count
// after the hit and how long until the window resets.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, reset time.Duration, err error)
}

// Limiter enforces a per-identity cap within a rolling window.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
	prefix string
}

func New(store Store, limit int, window time.Duration, prefix string) *Limiter {
	return &Limiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		prefix: prefix,
	}
}

// Allow records a hit for the identity and returns a rate-limit error with a
// retry-after hint when the cap is exceeded.
func (l *Limiter) Allow(ctx context.Context, identity string) error {
	count, reset, err := l.store.Increment(ctx, l.prefix+":"+identity, l.window)
	if err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Rate limit store failed")
	}
	if count > l.limit {
		retry := int(reset.Seconds())
		if retry < 1 {
			retry = 1
		}
		return utils.NewRateLimitError(retry)
	}
	return nil
}

// RedisStore backs the limiter with redis INCR/EXPIRE so the window is
// shared across processes.
type RedisStore struct {
	Client *storage.RedisClient
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := s.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := s.Client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		return count, window, nil
	}

	ttl, err := s.Client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return count, ttl, nil
}

// MemoryStore is a process-local window counter, reset lazily on access.
type MemoryStore struct {
	Clock Clock

	mu      sync.Mutex
	windows map[string]*memoryWindow
}

type memoryWindow struct {
	count   int64
	started time.Time
}

func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryStore{
		Clock:   clock,
		windows: make(map[string]*memoryWindow),
	}
}

func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Clock.Now()
	w, ok := s.windows[key]
	if !ok || now.Sub(w.started) >= window {
		w = &memoryWindow{started: now}
		s.windows[key] = w
	}
	w.count++

	return w.count, window - now.Sub(w.started), nil
}
