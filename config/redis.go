package config

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var rdb *redis.Client

var ctx = context.Background()

func GetRedisDB() *redis.Client {
	return rdb
}

// ConnectRedis sets the global Redis client. Safe to call even when Redis is
// unreachable; the helpers below degrade to no-ops so OTP issuance fails loudly
// at the service layer instead of crashing startup.
func ConnectRedis() error {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}
	rdb = client
	return nil
}

func SetRedisValue(key string, value string, exp time.Duration) error {
	if rdb == nil {
		return redis.ErrClosed
	}
	return rdb.Set(ctx, key, value, exp).Err()
}

func GetRedisValue(key string) (string, bool, error) {
	if rdb == nil {
		return "", false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func RemoveRedisKey(keys ...string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, keys...).Result()
	return err
}

// RedisStore adapts the package helpers to a keyed TTL store.
type RedisStore struct{}

func (RedisStore) Set(key, value string, ttl time.Duration) error {
	return SetRedisValue(key, value, ttl)
}

func (RedisStore) Get(key string) (string, bool, error) {
	return GetRedisValue(key)
}

func (RedisStore) Del(key string) error {
	return RemoveRedisKey(key)
}
