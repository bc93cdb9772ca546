// Package cache поднимает подключение к Redis, общее для сервисов, которым
// нужно разделяемое между экземплярами состояние.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/familyvault/internal/config"
)

// Cache держит клиент Redis.
type Cache struct {
	Db *redis.Client
}

// InitServer создаёт клиент по настройкам и проверяет соединение через PING.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Close закрывает соединения клиента.
func (c *Cache) Close() error {
	return c.Db.Close()
}
