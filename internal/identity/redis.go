package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "resolvedStudent:"

// RedisMemo shares mappings between gateway replicas.
type RedisMemo struct {
	Client *redis.Client
	TTL    time.Duration
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return opts, nil
}

// NewRedisMemo connects and pings. A zero ttl keeps entries forever.
func NewRedisMemo(ctx context.Context, url string, ttl time.Duration) (*RedisMemo, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisMemo{Client: client, TTL: ttl}, nil
}

func (m *RedisMemo) Get(ctx context.Context, candidate int64) (int64, bool, error) {
	v, err := m.Client.Get(ctx, redisKey(candidate)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (m *RedisMemo) Set(ctx context.Context, candidate, studentID int64) error {
	if err := m.Client.Set(ctx, redisKey(candidate), studentID, m.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// HealthCheck verifies the connection is alive.
func (m *RedisMemo) HealthCheck(ctx context.Context) error {
	return m.Client.Ping(ctx).Err()
}

func (m *RedisMemo) Close() error {
	return m.Client.Close()
}

func redisKey(candidate int64) string {
	return redisKeyPrefix + strconv.FormatInt(candidate, 10)
}
