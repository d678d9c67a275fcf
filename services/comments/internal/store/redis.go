package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "comments:record:"

// RedisRecords stores each record as a plain string value without expiry.
type RedisRecords struct {
	client *redis.Client
}

// NewRedisRecords parses url (redis://...) and falls back to treating it
// as a bare host:port address.
func NewRedisRecords(url string) *RedisRecords {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	return &RedisRecords{client: redis.NewClient(opts)}
}

func (s *RedisRecords) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisRecords) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisRecords) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, redisKeyPrefix+key, value, 0).Err()
}

func (s *RedisRecords) Close() error {
	return s.client.Close()
}
