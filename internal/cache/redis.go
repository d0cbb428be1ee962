package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/FikranSE/bookingapp/config"
	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client     *redis.Client
	catalogTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		catalogTTL: catalogTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetRooms(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	if err := c.getJSON(ctx, catalogKey(domain.ResourceRoom), &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *RedisCache) SetRooms(ctx context.Context, rooms []domain.Room) error {
	return c.setJSON(ctx, catalogKey(domain.ResourceRoom), rooms)
}

func (c *RedisCache) GetTransports(ctx context.Context) ([]domain.Transport, error) {
	var transports []domain.Transport
	if err := c.getJSON(ctx, catalogKey(domain.ResourceTransport), &transports); err != nil {
		return nil, err
	}
	return transports, nil
}

func (c *RedisCache) SetTransports(ctx context.Context, transports []domain.Transport) error {
	return c.setJSON(ctx, catalogKey(domain.ResourceTransport), transports)
}

func (c *RedisCache) InvalidateCatalog(ctx context.Context, kind domain.ResourceKind) error {
	return c.client.Del(ctx, catalogKey(kind)).Err()
}

// AcquireLock takes a lease on name for ttl. The returned token must be passed
// to ReleaseLock.
func (c *RedisCache) AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, lockKey(name), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (c *RedisCache) ReleaseLock(ctx context.Context, name, token string) error {
	if err := releaseScript.Run(ctx, c.client, []string{lockKey(name)}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// getJSON leaves dst untouched on a cache miss.
func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func (c *RedisCache) setJSON(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.catalogTTL).Err()
}

func catalogKey(kind domain.ResourceKind) string {
	return fmt.Sprintf("cache:catalog:%s", kind)
}

func lockKey(name string) string {
	return fmt.Sprintf("lock:%s", name)
}
