package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

type Config interface {
	RedisOptions() *goredis.Options
}

// New connects to redis and checks the connection with PING.
func New(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(cfg.RedisOptions())

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
