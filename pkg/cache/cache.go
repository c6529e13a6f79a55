package cache

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/vigil-sec/vigil/pkg/config"
)

// Cache holds the shared Redis client used by the threat store.
type Cache struct {
	client *redis.Client
}

func NewCache(cfg config.RedisConfig) (*Cache, error) {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		options.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	client := redis.NewClient(options)

	return &Cache{client: client}, nil
}

// NewCacheWithClient wraps an existing client. Used by tests with redismock.
func NewCacheWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
