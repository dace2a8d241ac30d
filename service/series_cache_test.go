package services

import (
	"testing"
	"time"

	"quadrant-server/dao/redis"
	"quadrant-server/db"
	"quadrant-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("workbook one"))
	b := Fingerprint([]byte("workbook two"))

	assert.Len(t, a, 16)
	assert.Equal(t, a, Fingerprint([]byte("workbook one")))
	assert.NotEqual(t, a, b)
}

func TestMemorySeriesCache_ReturnsSameInstance(t *testing.T) {
	mc := NewMemorySeriesCache()
	series := &models.NormalizedSeries{Rows: []models.ObservationRow{{Category: "A"}}}

	_, ok, err := mc.Get("fp")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mc.Set("fp", series))
	got, ok, err := mc.Get("fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, series, got)
}

func TestTieredSeriesCache_PromotesRedisHits(t *testing.T) {
	client := db.NewMockRedisClient()
	dao := redis.NewRedisSeriesDAO(client)
	series := &models.NormalizedSeries{Rows: []models.ObservationRow{{Period: day(2024, 1, 1), Category: "A", Sale: 1, Rent: 2}}}
	require.NoError(t, dao.SetSeries("fp", series))

	memory := NewMemorySeriesCache()
	tc := NewTieredSeriesCache(memory, dao)

	first, ok, err := tc.Get("fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, series, first)

	second, ok, err := tc.Get("fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, first, second)

	inMemory, ok, _ := memory.Get("fp")
	assert.True(t, ok)
	assert.Same(t, first, inMemory)
}

func TestTieredSeriesCache_SetWritesBothTiers(t *testing.T) {
	dao := redis.NewRedisSeriesDAO(db.NewMockRedisClient())
	memory := NewMemorySeriesCache()
	tc := NewTieredSeriesCache(memory, dao)
	series := &models.NormalizedSeries{Rows: []models.ObservationRow{{Period: day(2024, 1, 1), Category: "B"}}}

	require.NoError(t, tc.Set("fp", series))

	fromRedis, ok, err := dao.GetSeries("fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, series, fromRedis)

	fromMemory, ok, _ := memory.Get("fp")
	require.True(t, ok)
	assert.Same(t, series, fromMemory)
}

func TestTieredSeriesCache_CorruptRedisEntryIsMiss(t *testing.T) {
	client := db.NewMockRedisClient()
	require.NoError(t, client.Set("normalized_series_v1:fp", "{"))
	tc := NewTieredSeriesCache(NewMemorySeriesCache(), redis.NewRedisSeriesDAO(client))

	got, ok, err := tc.Get("fp")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMemorySeriesCache_DeleteAndFingerprints(t *testing.T) {
	mc := NewMemorySeriesCache()
	require.NoError(t, mc.Set("b", &models.NormalizedSeries{}))
	require.NoError(t, mc.Set("a", &models.NormalizedSeries{}))

	ids, err := mc.Fingerprints()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, mc.Delete("a"))
	ids, err = mc.Fingerprints()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestExpiringMemorySeriesCache_Evicts(t *testing.T) {
	mc := NewExpiringMemorySeriesCache(20 * time.Millisecond)
	require.NoError(t, mc.Set("fp", &models.NormalizedSeries{}))

	_, ok, err := mc.Get("fp")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok, _ := mc.Get("fp")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestTieredSeriesCache_FingerprintsAndDelete(t *testing.T) {
	dao := redis.NewRedisSeriesDAO(db.NewMockRedisClient())
	memory := NewMemorySeriesCache()
	tc := NewTieredSeriesCache(memory, dao)
	require.NoError(t, tc.Set("both", &models.NormalizedSeries{}))
	require.NoError(t, dao.SetSeries("redis-only", &models.NormalizedSeries{}))
	require.NoError(t, memory.Set("memory-only", &models.NormalizedSeries{}))

	ids, err := tc.Fingerprints()
	require.NoError(t, err)
	assert.Equal(t, []string{"both", "memory-only", "redis-only"}, ids)

	require.NoError(t, tc.Delete("both"))
	_, ok, _ := memory.Get("both")
	assert.False(t, ok)
	_, ok, err = dao.GetSeries("both")
	require.NoError(t, err)
	assert.False(t, ok, "deleted series must not be promoted again from redis")
}
