package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/kart-io/logger"
	gocache "github.com/patrickmn/go-cache"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

// PlanCacheConfig 规划结果缓存配置。
type PlanCacheConfig struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// PlanCache 规划结果缓存，后端为 Redis 或进程内存。
// 缓存值是序列化后的最终状态，读出的每份状态互不共享。
type PlanCache struct {
	redis  *goredis.Client
	local  *gocache.Cache
	config *PlanCacheConfig
}

// NewRedisPlanCache 创建 Redis 后端的缓存。
func NewRedisPlanCache(redis *goredis.Client, config *PlanCacheConfig) *PlanCache {
	return &PlanCache{redis: redis, config: withCacheDefaults(config)}
}

// NewMemoryPlanCache 创建进程内存后端的缓存。
func NewMemoryPlanCache(config *PlanCacheConfig, cleanupInterval time.Duration) *PlanCache {
	config = withCacheDefaults(config)
	return &PlanCache{
		local:  gocache.New(config.TTL, cleanupInterval),
		config: config,
	}
}

func withCacheDefaults(config *PlanCacheConfig) *PlanCacheConfig {
	if config == nil {
		config = &PlanCacheConfig{Enabled: true}
	}
	if config.TTL <= 0 {
		config.TTL = time.Hour
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "tripplanner:plan:"
	}
	return config
}

// Key 基于请求与当天日期生成缓存键，计划依赖今天的日期。
func (c *PlanCache) Key(req model.PlanRequest, today time.Time) string {
	data, _ := json.Marshal(req)
	hash := sha256.Sum256(append(append(data, '|'), today.Format(model.DateLayout)...))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

func (c *PlanCache) enabled() bool {
	return c != nil && c.config.Enabled && (c.redis != nil || c.local != nil)
}

// Get 读取缓存，未命中时返回 nil, nil。损坏的条目会被删除。
func (c *PlanCache) Get(ctx context.Context, key string) (*model.PlanningState, error) {
	if !c.enabled() {
		return nil, nil
	}

	data, err := c.read(ctx, key)
	if err != nil {
		logger.Warnw("failed to get from cache", "error", err.Error(), "key", key)
		return nil, err
	}
	if data == nil {
		logger.Debugw("cache miss", "key", key)
		return nil, nil
	}

	var state model.PlanningState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warnw("failed to unmarshal cached plan", "error", err.Error(), "key", key)
		c.delete(ctx, key)
		return nil, err
	}

	logger.Infow("cache hit", "key", key)
	return &state, nil
}

// Set 写入缓存。
func (c *PlanCache) Set(ctx context.Context, key string, state *model.PlanningState) error {
	if !c.enabled() || state == nil {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		logger.Warnw("failed to marshal plan for caching", "error", err.Error())
		return err
	}

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
			logger.Warnw("failed to set cache", "error", err.Error(), "key", key)
			return err
		}
	} else {
		c.local.Set(key, data, c.config.TTL)
	}

	logger.Debugw("cached plan", "key", key, "ttl", c.config.TTL)
	return nil
}

// Clear 清除全部规划缓存。
func (c *PlanCache) Clear(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	if c.local != nil {
		c.local.Flush()
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return err
	}
	logger.Infow("cleared plan cache", "deleted_count", deleted)
	return nil
}

func (c *PlanCache) read(ctx context.Context, key string) ([]byte, error) {
	if c.redis == nil {
		v, ok := c.local.Get(key)
		if !ok {
			return nil, nil
		}
		data, _ := v.([]byte)
		return data, nil
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	return data, err
}

func (c *PlanCache) delete(ctx context.Context, key string) {
	if c.redis == nil {
		c.local.Delete(key)
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}
