// Package cache provides a Redis-backed read cache for hot profile data.
// The cache is strictly an accelerator: every entry carries a TTL and a
// miss or a Redis outage degrades to the database, never to an error the
// caller has to handle.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/config"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
)

// RedisCache wraps a Redis client with the key schema used by the bot.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.AppConfig) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

// NewRedisCacheWithClient wraps an existing client. Used by tests.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForProfile generates the Redis key for a cached profile.
func (c *RedisCache) KeyForProfile(userID int64) string {
	return fmt.Sprintf("profile:%d", userID)
}

// KeyForLikeCount generates the Redis key for a user's like count.
func (c *RedisCache) KeyForLikeCount(userID int64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// SetProfile caches a profile as JSON with the profile TTL.
func (c *RedisCache) SetProfile(ctx context.Context, profile *models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile %d: %w", profile.UserID, err)
	}
	return c.Client.Set(ctx, c.KeyForProfile(profile.UserID), data, constants.CacheProfileTTL).Err()
}

// GetProfile returns the cached profile, or (nil, nil) on a miss.
func (c *RedisCache) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	val, err := c.Client.Get(ctx, c.KeyForProfile(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	} else if err != nil {
		return nil, err
	}

	profile := &models.Profile{}
	if err := json.Unmarshal([]byte(val), profile); err != nil {
		// A malformed entry is dropped so the next read repopulates it.
		log.Warn().Err(err).Int64("user_id", userID).Msg("Dropping malformed cached profile")
		_ = c.Client.Del(ctx, c.KeyForProfile(userID)).Err()
		return nil, nil
	}
	return profile, nil
}

// InvalidateProfile removes a cached profile after a write.
func (c *RedisCache) InvalidateProfile(ctx context.Context, userID int64) error {
	return c.Client.Del(ctx, c.KeyForProfile(userID)).Err()
}

// UpdateLikeCount stores a user's like count.
func (c *RedisCache) UpdateLikeCount(ctx context.Context, userID int64, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, constants.CacheLikeCountTTL).Err()
}

// GetLikeCount returns the cached like count. A miss returns (0, false, nil).
func (c *RedisCache) GetLikeCount(ctx context.Context, userID int64) (int64, bool, error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, constants.CacheLikeCountTTL).Err()

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// IncrLikeCount bumps a cached like counter. Counters missing from the cache
// are left missing so the next read repopulates from the database.
func (c *RedisCache) IncrLikeCount(ctx context.Context, userID int64) error {
	key := c.KeyForLikeCount(userID)
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return nil
	}
	return c.Client.Incr(ctx, key).Err()
}

// WarmProfiles pre-populates the cache with a batch of profiles. Failures are
// logged per profile and do not abort the batch.
func (c *RedisCache) WarmProfiles(ctx context.Context, profiles []*models.Profile) int {
	warmed := 0
	for _, profile := range profiles {
		if err := c.SetProfile(ctx, profile); err != nil {
			log.Warn().Err(err).Int64("user_id", profile.UserID).Msg("Profile warmup write failed")
			continue
		}
		warmed++
	}

	log.Debug().Int("warmed", warmed).Int("batch", len(profiles)).Msg("Profile cache warmup finished")
	return warmed
}
