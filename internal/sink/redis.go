package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list outcomes are appended to when no key is given.
const DefaultRedisKey = "chainrunner:outcomes"

// RedisSink appends each outcome as a JSON document to a Redis list.
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink connects to the server described by a redis:// URL and checks
// the connection with a PING.
func NewRedisSink(ctx context.Context, url, key string) (*RedisSink, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisSinkFromClient(client, key), nil
}

// NewRedisSinkFromClient wraps an existing client.
func NewRedisSinkFromClient(client *redis.Client, key string) *RedisSink {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSink{client: client, key: key}
}

// Key returns the Redis list key.
func (s *RedisSink) Key() string {
	return s.key
}

func (s *RedisSink) Publish(ctx context.Context, o Outcome) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("publish outcome to redis list %q: %w", s.key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
