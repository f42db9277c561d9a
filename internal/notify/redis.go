package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPublishTimeout = 2 * time.Second

// Publisher is the subset of *redis.Client used by RedisListener.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisListener relays every message to a Redis pub/sub channel so other
// processes on the host can follow the stream.
type RedisListener struct {
	pub     Publisher
	channel string
	timeout time.Duration
}

// NewRedisListener creates a RedisListener publishing on channel.
func NewRedisListener(pub Publisher, channel string) *RedisListener {
	return &RedisListener{
		pub:     pub,
		channel: channel,
		timeout: defaultPublishTimeout,
	}
}

// NewRedisClient connects to Redis and fails fast when the server is not
// reachable.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultPublishTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// Receive publishes message on the configured channel.
func (r *RedisListener) Receive(message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.pub.Publish(ctx, r.channel, message).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", r.channel, err)
	}
	return nil
}
