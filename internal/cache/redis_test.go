package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/cache"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewRedisCacheWithClient(client)
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestRedisCache_ProfileRoundTrip(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	profile := models.NewProfile(1001, "ace", 2450, "", "igl",
		[]string{"mirage"}, []string{"evening"}, []string{"matchmaking"}, nil)

	require.NoError(t, c.SetProfile(ctx, profile))

	got, err := c.GetProfile(ctx, 1001)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1001), got.UserID)
	assert.Equal(t, "ace", got.GameNickname)
	assert.Equal(t, []string{"mirage"}, got.FavoriteMaps)

	// Every entry carries a TTL.
	assert.Greater(t, mr.TTL(c.KeyForProfile(1001)), time.Duration(0))
}

func TestRedisCache_GetProfile_Miss(t *testing.T) {
	c, _ := setupCache(t)

	got, err := c.GetProfile(context.Background(), 404)

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_GetProfile_MalformedEntryDropped(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(c.KeyForProfile(1001), "not json"))

	got, err := c.GetProfile(ctx, 1001)

	assert.NoError(t, err)
	assert.Nil(t, got)
	// The bad entry is gone so the next read repopulates it.
	assert.False(t, mr.Exists(c.KeyForProfile(1001)))
}

func TestRedisCache_InvalidateProfile(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	profile := models.NewProfile(1001, "ace", 2450, "", "igl", nil, nil, nil, nil)
	require.NoError(t, c.SetProfile(ctx, profile))
	require.NoError(t, c.InvalidateProfile(ctx, 1001))

	assert.False(t, mr.Exists(c.KeyForProfile(1001)))
}

func TestRedisCache_LikeCount(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	count, ok, err := c.GetLikeCount(ctx, 1001)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, count)

	require.NoError(t, c.UpdateLikeCount(ctx, 1001, 7))

	count, ok, err = c.GetLikeCount(ctx, 1001)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), count)
}

func TestRedisCache_IncrLikeCount(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	// An absent counter stays absent so the next read goes to the database.
	require.NoError(t, c.IncrLikeCount(ctx, 1001))
	assert.False(t, mr.Exists(c.KeyForLikeCount(1001)))

	require.NoError(t, c.UpdateLikeCount(ctx, 1001, 3))
	require.NoError(t, c.IncrLikeCount(ctx, 1001))

	count, ok, err := c.GetLikeCount(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), count)
}

func TestRedisCache_WarmProfiles(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	profiles := []*models.Profile{
		models.NewProfile(1, "a", 1000, "", "igl", nil, nil, nil, nil),
		models.NewProfile(2, "b", 2000, "", "sniper", nil, nil, nil, nil),
	}

	warmed := c.WarmProfiles(ctx, profiles)

	assert.Equal(t, 2, warmed)
	assert.True(t, mr.Exists(c.KeyForProfile(1)))
	assert.True(t, mr.Exists(c.KeyForProfile(2)))
}
