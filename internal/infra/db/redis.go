package db

import (
	"app/internal/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis はrate limiter用のredisクライアントを返す。
// REDIS_ADDR未設定ならnil（rate limit無効）。
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}
