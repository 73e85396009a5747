// Package cache fronts the read-heavy browse queries with Redis.
//
// Redis is optional at boot: if Connect fails the client stays nil and every
// operation degrades to a no-op, so GiftBid keeps answering straight from the
// record store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/giftbid/config"
)

var (
	RDB *redis.Client
	Ctx = context.Background()
)

// Connect dials Redis and verifies it with a ping. On failure the package
// stays in no-op mode and the error is returned for the caller to log.
func Connect() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})
	if err := client.Ping(Ctx).Err(); err != nil {
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = client
	return nil
}

// Get unmarshals the cached value for key into dest.
// Reports true only on a usable hit; any miss, decode failure, or
// disconnected client reads as a miss.
func Get(key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}
	raw, err := RDB.Get(Ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores value under key for ttl.
func Set(key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return RDB.Set(Ctx, key, data, ttl).Err()
}

// Del removes keys.
func Del(keys ...string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Del(Ctx, keys...).Err()
}

// Forget removes a single key (Laravel-style alias for Del).
func Forget(key string) error { return Del(key) }
