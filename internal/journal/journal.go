// Package journal persists invocation records. Drivers: memory, mysql,
// sqlite, redis and rabbitmq (publish only).
package journal

import (
	"context"
	"fmt"

	"AgentKit-Chain/internal/config"
	"AgentKit-Chain/internal/invocation"
)

// Journal is an invocation.Recorder that owns external resources.
type Journal interface {
	invocation.Recorder
	Close() error
}

// Open builds the journal selected by cfg.Driver. The "none" driver returns
// nil, nil.
func Open(ctx context.Context, cfg config.JournalConfig) (Journal, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.Capacity), nil
	case "none":
		return nil, nil
	case "mysql", "sqlite":
		return OpenSQL(ctx, SQLConfig{Driver: cfg.Driver, DSN: cfg.DSN})
	case "redis":
		return NewRedis(ctx, RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			MaxLen:   cfg.Capacity,
		})
	case "rabbitmq":
		return NewRabbitMQ(RabbitMQConfig{
			URL:     cfg.RabbitMQ.URL,
			Queue:   cfg.RabbitMQ.Queue,
			Durable: cfg.RabbitMQ.Durable,
		})
	default:
		return nil, fmt.Errorf("未知的调用记录驱动: %s", cfg.Driver)
	}
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
