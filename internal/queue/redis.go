// Package queue carries background embedding jobs over a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job asks the embedding worker to (re)compute the vector of one blog
type Job struct {
	BlogID  string `json:"blog_id"`
	Attempt int    `json:"attempt"`
}

// RedisQueue implements a FIFO job queue on a Redis list
type RedisQueue struct {
	client redis.Cmdable
	key    string
}

func NewRedisQueue(client redis.Cmdable, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue publishes a job
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop blocks until a job is available or ctx is done
func (q *RedisQueue) Pop(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return Job{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return Job{}, err
		}
		if len(res) != 2 {
			return Job{}, errors.New("redis queue: unexpected response")
		}
		return decodeJob(res[1])
	}
}

// Len reports how many jobs are waiting
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func decodeJob(payload string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	if job.BlogID == "" {
		return Job{}, errors.New("decode job: missing blog_id")
	}
	return job, nil
}
