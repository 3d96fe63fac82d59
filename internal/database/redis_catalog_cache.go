package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

// Compile-time check to ensure redisCatalogCache implements CatalogRepository
var _ interfaces.CatalogRepository = (*redisCatalogCache)(nil)

// redisCatalogCache - read-through кэш контент-каталога поверх PostgreSQL.
// Определения каталога неизменяемы в рамках релиза контента, поэтому
// достаточно TTL без инвалидации.
type redisCatalogCache struct {
	client *redis.Client
	inner  interfaces.CatalogRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCatalogCache wraps a CatalogRepository with a Redis read-through cache.
func NewRedisCatalogCache(client *redis.Client, inner interfaces.CatalogRepository, ttl time.Duration, logger *zap.Logger) interfaces.CatalogRepository {
	return &redisCatalogCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		logger: logger.Named("RedisCatalogCache"),
	}
}

// GetPuzzle возвращает пазл из кэша, при промахе читает из БД и кэширует.
func (c *redisCatalogCache) GetPuzzle(ctx context.Context, puzzleID string) (*models.PuzzleDefinition, error) {
	key := fmt.Sprintf("catalog:puzzle:%s", puzzleID)
	puzzle := &models.PuzzleDefinition{}
	if ok := c.readCached(ctx, key, puzzle); ok {
		return puzzle, nil
	}

	puzzle, err := c.inner.GetPuzzle(ctx, puzzleID)
	if err != nil {
		return nil, err
	}
	c.writeCached(ctx, key, puzzle)
	return puzzle, nil
}

// GetMission возвращает миссию из кэша, при промахе читает из БД и кэширует.
func (c *redisCatalogCache) GetMission(ctx context.Context, missionID string) (*models.MissionDefinition, error) {
	key := fmt.Sprintf("catalog:mission:%s", missionID)
	mission := &models.MissionDefinition{}
	if ok := c.readCached(ctx, key, mission); ok {
		return mission, nil
	}

	mission, err := c.inner.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	c.writeCached(ctx, key, mission)
	return mission, nil
}

// GetRoom возвращает комнату из кэша, при промахе читает из БД и кэширует.
func (c *redisCatalogCache) GetRoom(ctx context.Context, roomID string) (*models.RoomDefinition, error) {
	key := fmt.Sprintf("catalog:room:%s", roomID)
	room := &models.RoomDefinition{}
	if ok := c.readCached(ctx, key, room); ok {
		return room, nil
	}

	room, err := c.inner.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	c.writeCached(ctx, key, room)
	return room, nil
}

// readCached пытается прочитать и распаковать значение из кэша.
// Ошибки кэша не фатальны, при любой проблеме идем в БД.
func (c *redisCatalogCache) readCached(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to read catalog cache", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Failed to unmarshal cached catalog entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *redisCatalogCache) writeCached(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to marshal catalog entry for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write catalog cache", zap.String("key", key), zap.Error(err))
	}
}
