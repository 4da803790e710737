package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLastImage — ключ last_image:<userID>; ttl 0 — без срока жизни.
type RedisLastImage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLastImage(client *redis.Client, ttl time.Duration) *RedisLastImage {
	return &RedisLastImage{client: client, ttl: ttl}
}

func redisKey(userID int64) string { return "last_image:" + strconv.FormatInt(userID, 10) }

func (s *RedisLastImage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisLastImage) Get(ctx context.Context, userID int64) (string, error) {
	ref, err := s.client.Get(ctx, redisKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return ref, nil
}

func (s *RedisLastImage) Set(ctx context.Context, userID int64, ref string) error {
	return s.client.Set(ctx, redisKey(userID), ref, s.ttl).Err()
}

func (s *RedisLastImage) Close() error {
	return s.client.Close()
}
