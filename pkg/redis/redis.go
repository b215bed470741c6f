package storage

import (
	"context"
	"time"

	"github.com/cosmicdev/devspace/pkg/logger"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	*redis.Client
}

// NewRedis initializes a Redis client with context.
func NewRedis(ctx context.Context, addr, password string) (*RedisClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "redis initialization canceled")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to connect to Redis", err.Error())
	}

	return &RedisClient{client}, nil
}

// CacheJSON stores a marshaled value under key with a TTL, best effort.
func (r *RedisClient) CacheJSON(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if r == nil || r.Client == nil {
		return
	}
	r.Set(ctx, key, data, ttl)
}

// GetJSON fetches a cached value. A nil client or a miss returns false.
func (r *RedisClient) GetJSON(ctx context.Context, key string) ([]byte, bool) {
	if r == nil || r.Client == nil {
		return nil, false
	}
	data, err := r.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Invalidate drops one or more cache keys, best effort.
func (r *RedisClient) Invalidate(ctx context.Context, keys ...string) {
	if r == nil || r.Client == nil {
		return
	}
	if len(keys) > 0 {
		r.Del(ctx, keys...)
	}
}

// Close shuts down the Redis connection.
func (r *RedisClient) Close(log *logger.Logger) error {
	if err := r.Client.Close(); err != nil {
		log.Error(context.Background()).WithMeta(map[string]string{"error": err.Error()}).Logs("Redis close failed")
		return utils.NewError(utils.ErrInternalServerError.Code, "Failed to close Redis", err.Error())
	}
	log.Info(context.Background()).Logs("Redis connection closed successfully")
	return nil
}
