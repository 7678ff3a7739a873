package dal

import (
	"context"
	"fmt"
	"time"

	"rd-topup-api/internal/config"

	"github.com/go-redis/redis/v8"
)

// OpenRedis 连接 redis 并 ping 一次
func OpenRedis(c config.RedisCfg) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
