package redis

import (
	"context"
	"fmt"
	"time"

	"social-go/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewClient 创建 Redis 客户端并 Ping 一次确认连接可用。
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("无法连接到 Redis (%s): %w", cfg.Addr, err)
	}
	return client, nil
}
