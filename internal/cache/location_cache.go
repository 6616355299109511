// Package cache кэширует вычисленные координаты по линии и километру.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"powerline-locator-go/pkg/models"

	"github.com/redis/go-redis/v9"
)

// LocationCache кэш результатов вычисления координат
type LocationCache interface {
	// Get возвращает nil без ошибки при промахе
	Get(ctx context.Context, lineID string, km float64) (*models.LocationResult, error)
	Set(ctx context.Context, lineID string, km float64, result *models.LocationResult) error
	// InvalidateLine удаляет все записи линии
	InvalidateLine(ctx context.Context, lineID string) error
}

// Open создает клиент Redis; пустой addr возвращает nil
func Open(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// redisLocationCache хэш faultloc:<lineID>, поле = km, значение = JSON
type redisLocationCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisLocationCache создает кэш поверх Redis; nil клиент дает no-op кэш
func NewRedisLocationCache(client redis.Cmdable, ttl time.Duration) LocationCache {
	if client == nil {
		return Noop{}
	}
	return &redisLocationCache{client: client, ttl: ttl}
}

// Key ключ хэша линии
func Key(lineID string) string {
	return "faultloc:" + lineID
}

// Field каноническое представление km
func Field(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}

// Get возвращает сохраненный расчет или nil при промахе
func (c *redisLocationCache) Get(ctx context.Context, lineID string, km float64) (*models.LocationResult, error) {
	data, err := c.client.HGet(ctx, Key(lineID), Field(km)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var result models.LocationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &result, nil
}

// Set сохраняет расчет в хэше линии и продлевает TTL
func (c *redisLocationCache) Set(ctx context.Context, lineID string, km float64, result *models.LocationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	key := Key(lineID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, Field(km), data)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// InvalidateLine удаляет все расчеты линии
func (c *redisLocationCache) InvalidateLine(ctx context.Context, lineID string) error {
	if err := c.client.Del(ctx, Key(lineID)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Noop кэш, который ничего не хранит
type Noop struct{}

// Get всегда промах
func (Noop) Get(context.Context, string, float64) (*models.LocationResult, error) { return nil, nil }

// Set ничего не сохраняет
func (Noop) Set(context.Context, string, float64, *models.LocationResult) error { return nil }

// InvalidateLine ничего не делает
func (Noop) InvalidateLine(context.Context, string) error { return nil }
