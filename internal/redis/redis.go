package redis

import (
	"context"
	"sync"

	"github.com/fakhrymubarak/weather-lookup/internal/config"
	redisv9 "github.com/redis/go-redis/v9"
)

var (
	client *redisv9.Client
	once   sync.Once
)

// GetClient returns the shared cache client for redis.addr.
func GetClient() *redisv9.Client {
	once.Do(func() {
		addr := config.GetRedisAddr()
		client = redisv9.NewClient(&redisv9.Options{
			Addr: addr,
		})
		config.GetLogger().Debugw("Redis client created", "addr", addr)
	})
	return client
}

// Ping reports whether the shared client can reach its server.
func Ping(ctx context.Context) error {
	return GetClient().Ping(ctx).Err()
}

// ResetClientForTest closes and drops the Redis client singleton. Use only in tests.
func ResetClientForTest() {
	if client != nil {
		_ = client.Close()
	}
	once = sync.Once{}
	client = nil
}
