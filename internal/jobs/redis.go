package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisScheduler pushes jobs onto a redis list consumed by the worker
// process. Delivery is at-least-once: a worker that crashes mid-job simply
// leaves derived state stale until the next triggering mutation.
type RedisScheduler struct {
	client *redis.Client
	key    string
}

// NewRedisScheduler creates a scheduler publishing to the given list key.
func NewRedisScheduler(client *redis.Client, key string) *RedisScheduler {
	return &RedisScheduler{client: client, key: key}
}

// Schedule enqueues the job as a JSON payload.
func (s *RedisScheduler) Schedule(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := s.client.LPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}
