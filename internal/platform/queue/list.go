package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Pop when the timeout elapsed without a value.
var ErrEmpty = errors.New("queue: empty")

// ListQueue is a FIFO of job IDs on a Redis list (LPUSH / BRPOP).
type ListQueue struct {
	rdb  *redis.Client
	name string
}

func NewListQueue(rdb *redis.Client, name string) *ListQueue {
	return &ListQueue{rdb: rdb, name: name}
}

func (q *ListQueue) Push(ctx context.Context, id string) error {
	return q.rdb.LPush(ctx, q.name, id).Err()
}

// Pop blocks up to timeout for the oldest ID.
func (q *ListQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrEmpty
		}
		return "", err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return "", ErrEmpty
	}
	return res[1], nil
}
