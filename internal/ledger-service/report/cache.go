package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda relatórios prontos. Invalidate descarta tudo de uma vez.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context) error
}

const (
	keyPrefix     = "ledger:report:"
	keyGeneration = keyPrefix + "gen"
)

// RedisCache encapsula o cache de relatórios no Redis.
// Cada chave carrega a geração atual do ledger; Invalidate só incrementa a geração
// e as entradas antigas expiram pelo TTL.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func (c *RedisCache) generation(ctx context.Context) (string, error) {
	g, err := c.Client.Get(ctx, keyGeneration).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return g, err
}

func (c *RedisCache) key(ctx context.Context, k string) (string, error) {
	g, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	return keyPrefix + g + ":" + k, nil
}

func (c *RedisCache) Get(ctx context.Context, k string, dst any) (bool, error) {
	key, err := c.key(ctx, k)
	if err != nil {
		return false, err
	}
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *RedisCache) Set(ctx context.Context, k string, v any) error {
	key, err := c.key(ctx, k)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, b, c.TTL).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.Client.Incr(ctx, keyGeneration).Err()
}

// NopCache desliga o cache (REDIS_ADDR vazio, CLI, testes)
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (NopCache) Set(context.Context, string, any) error         { return nil }
func (NopCache) Invalidate(context.Context) error               { return nil }
