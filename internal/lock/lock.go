// Package lock serialises critical sections keyed by resource, such as
// all schedule writes against one machine.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrNotObtained = errors.New("lock not obtained")

// Release frees a held lock. It is safe to call once.
type Release func()

type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// LocalLocker is an in-process keyed mutex. It is used when no Redis is
// configured, which is correct for a single API instance.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Release, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotObtained, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// RedisLocker holds keys in Redis so several API instances share one view.
type RedisLocker struct {
	client   *redislock.Client
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
	prefix   string
}

func NewRedisLocker(rdb *redis.Client, ttl, wait, interval time.Duration) *RedisLocker {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &RedisLocker{
		client:   redislock.New(rdb),
		ttl:      ttl,
		wait:     wait,
		interval: interval,
		prefix:   "printshop:lock:",
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	retries := int(l.wait / l.interval)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.interval), retries),
	}

	lk, err := l.client.Obtain(ctx, l.prefix+key, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be cancelled
			_ = lk.Release(context.Background())
		})
	}, nil
}
