package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/logger"
)

// RedisDB wraps a Redis client
type RedisDB struct {
	Client *redis.Client
}

var _ KVStore = (*RedisDB)(nil)

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        50,
		MinIdleConns:    5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to Redis",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
	)

	return &RedisDB{Client: client}, nil
}

// Close closes the Redis connection
func (db *RedisDB) Close() error {
	if db.Client != nil {
		return db.Client.Close()
	}
	return nil
}

func (db *RedisDB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx).Err()
}

// Get returns ErrCacheMiss when the key does not exist
func (db *RedisDB) Get(ctx context.Context, key string) (string, error) {
	val, err := db.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (db *RedisDB) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return db.Client.Set(ctx, key, value, ttl).Err()
}

func (db *RedisDB) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return db.Client.Del(ctx, keys...).Err()
}

// SAdd adds members to a set and refreshes the set's expiry
func (db *RedisDB) SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	pipe := db.Client.TxPipeline()
	pipe.SAdd(ctx, key, args...)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (db *RedisDB) SMembers(ctx context.Context, key string) ([]string, error) {
	return db.Client.SMembers(ctx, key).Result()
}

func (db *RedisDB) SRem(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return db.Client.SRem(ctx, key, args...).Err()
}

// RateLimit implements a fixed-window rate limiter. It returns whether the
// request is allowed and how many requests remain in the window.
func (db *RedisDB) RateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	pipe := db.Client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := incr.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= limit, remaining, nil
}

// Publish sends payload to every subscriber of channel
func (db *RedisDB) Publish(ctx context.Context, channel string, payload []byte) error {
	return db.Client.Publish(ctx, channel, payload).Err()
}

// Subscribe delivers the payloads published on channel until ctx is done
func (db *RedisDB) Subscribe(ctx context.Context, channel string) <-chan []byte {
	out := make(chan []byte, 64)
	sub := db.Client.Subscribe(ctx, channel)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					logger.Warn("dropping pubsub message, consumer is slow", zap.String("channel", channel))
				}
			}
		}
	}()
	return out
}
