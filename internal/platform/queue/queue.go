package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrEmpty is returned by Pop when no job arrived before the timeout.
	ErrEmpty = errors.New("queue: no job available")
	ErrFull  = errors.New("queue: full")
)

// JobQueue carries grading job ids from the API to the workers.
type JobQueue interface {
	Push(ctx context.Context, jobID string) error
	// Pop waits up to timeout for the next job id.
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	// Requeue puts a job id back so it is the next one popped.
	Requeue(ctx context.Context, jobID string) error
}

type redisQueue struct {
	rdb  *redis.Client
	name string
}

// NewRedisQueue returns a FIFO queue on a Redis list: LPUSH to enqueue,
// BRPOP to dequeue.
func NewRedisQueue(rdb *redis.Client, name string) JobQueue {
	return &redisQueue{rdb: rdb, name: name}
}

func (q *redisQueue) Push(ctx context.Context, jobID string) error {
	if err := q.rdb.LPush(ctx, q.name, jobID).Err(); err != nil {
		return fmt.Errorf("failed to push job %s to Redis queue %s: %w", jobID, q.name, err)
	}
	return nil
}

func (q *redisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrEmpty
		}
		return "", fmt.Errorf("failed to BRPop from Redis queue %s: %w", q.name, err)
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return "", ErrEmpty
	}
	return res[1], nil
}

func (q *redisQueue) Requeue(ctx context.Context, jobID string) error {
	if err := q.rdb.RPush(ctx, q.name, jobID).Err(); err != nil {
		return fmt.Errorf("failed to re-queue job %s: %w", jobID, err)
	}
	return nil
}

type memoryQueue struct {
	jobs chan string
}

// NewMemoryQueue returns an in-process queue holding up to capacity ids.
func NewMemoryQueue(capacity int) JobQueue {
	return &memoryQueue{jobs: make(chan string, capacity)}
}

func (q *memoryQueue) Push(ctx context.Context, jobID string) error {
	select {
	case q.jobs <- jobID:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to push job %s: %w", jobID, ctx.Err())
	}
}

func (q *memoryQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case id := <-q.jobs:
		return id, nil
	case <-timer.C:
		return "", ErrEmpty
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Requeue on a channel cannot jump the line; the id goes to the back. It
// never waits: the caller is a worker, which is also the only consumer.
func (q *memoryQueue) Requeue(ctx context.Context, jobID string) error {
	select {
	case q.jobs <- jobID:
		return nil
	default:
		return fmt.Errorf("failed to re-queue job %s: %w", jobID, ErrFull)
	}
}
