package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kwameasante/lingomate/internal/jobs"
)

// ErrEmpty signals that no job was available within the dequeue timeout.
var ErrEmpty = errors.New("queue is empty")

const queueKey = "lingomate:jobs:v1"

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  -1, // blocking pops manage their own deadline
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// Enqueue pushes a job onto the shared list.
func (c *Client) Enqueue(ctx context.Context, j jobs.Job) error {
	b, err := json.Marshal(j)

	if err != nil {
		return err
	}

	return c.redisdb.LPush(ctx, queueKey, b).Err()
}

// Dequeue blocks up to timeout waiting for the next job.
func (c *Client) Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error) {
	res, err := c.redisdb.BRPop(ctx, timeout, queueKey).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, ErrEmpty
		}

		return jobs.Job{}, err
	}

	// BRPOP returns [key, value]
	var j jobs.Job

	if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
		return jobs.Job{}, err
	}

	return j, nil
}

// Ping checks redis connectivity, used by readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}
