package lock

import (
	"code_assessment/internal/common"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes work per key across goroutines (and, for the Redis
// implementation, across processes).
type Locker interface {
	// Lock blocks until key is held or ctx ends. The returned func releases it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker returns an in-process keyed mutex. Entries are dropped
// once no goroutine holds or waits for them.
func NewMemoryLocker() Locker {
	return &keyedMutex{locks: make(map[string]*keyEntry)}
}

func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyEntry{sem: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e, false)
		return nil, fmt.Errorf("lock %s: %w: %w", key, common.ErrLockFailed, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(key, e, true) })
	}, nil
}

func (k *keyedMutex) release(key string, e *keyEntry, held bool) {
	if held {
		<-e.sem
	}
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

const (
	minRetry = 5 * time.Millisecond
	maxRetry = 50 * time.Millisecond
)

type redisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker returns a lock built on SET NX PX with a token-checked
// release. A holder that outlives ttl loses the lock; a waiter gives up
// after wait.
func NewRedisLocker(rdb *redis.Client, prefix string, ttl, wait time.Duration) Locker {
	return &redisLocker{rdb: rdb, prefix: prefix, ttl: ttl, wait: wait}
}

// retryDelay spreads waiters over [backoff/2, backoff) so they do not all
// poll at the same instant.
func retryDelay(backoff time.Duration) time.Duration {
	half := backoff / 2
	return half + rand.N(half)
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	backoff := minRetry
	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w: %w", lockKey, common.ErrLockFailed, err)
		}
		if ok {
			break
		}
		select {
		case <-time.After(retryDelay(backoff)):
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w: %w", lockKey, common.ErrLockFailed, ctx.Err())
		}
		backoff = min(backoff*2, maxRetry)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			deleted, err := releaseScript.Run(releaseCtx, l.rdb, []string{lockKey}, token).Int64()
			if err != nil {
				slog.Error("failed to release lock", "key", lockKey, "error", err)
			} else if deleted != 1 {
				slog.Warn("lock expired before release", "key", lockKey)
			}
		})
	}, nil
}
