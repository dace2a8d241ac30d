package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	"quadrant-server/dao/redis"
	"quadrant-server/models"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"
)

// Fingerprint identifies a workbook by its content.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// SeriesCache holds normalized series keyed by workbook fingerprint.
type SeriesCache interface {
	Get(fingerprint string) (*models.NormalizedSeries, bool, error)
	Set(fingerprint string, series *models.NormalizedSeries) error
	Delete(fingerprint string) error
	// Fingerprints lists the cached workbooks in sorted order.
	Fingerprints() ([]string, error)
}

// MemorySeriesCache keeps series in process. Hits return the stored instance itself.
type MemorySeriesCache struct {
	store *cache.Cache
}

// NewMemorySeriesCache never evicts; use it when memory is the only tier.
func NewMemorySeriesCache() *MemorySeriesCache {
	return &MemorySeriesCache{store: cache.New(cache.NoExpiration, 0)}
}

// NewExpiringMemorySeriesCache evicts entries ttl after they were stored.
func NewExpiringMemorySeriesCache(ttl time.Duration) *MemorySeriesCache {
	return &MemorySeriesCache{store: cache.New(ttl, ttl)}
}

func (mc *MemorySeriesCache) Get(fingerprint string) (*models.NormalizedSeries, bool, error) {
	v, ok := mc.store.Get(fingerprint)
	if !ok {
		return nil, false, nil
	}
	series, ok := v.(*models.NormalizedSeries)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cache entry type %T for %s", v, fingerprint)
	}
	return series, true, nil
}

func (mc *MemorySeriesCache) Set(fingerprint string, series *models.NormalizedSeries) error {
	mc.store.Set(fingerprint, series, cache.DefaultExpiration)
	return nil
}

func (mc *MemorySeriesCache) Delete(fingerprint string) error {
	mc.store.Delete(fingerprint)
	return nil
}

func (mc *MemorySeriesCache) Fingerprints() ([]string, error) {
	items := mc.store.Items()
	ids := make([]string, 0, len(items))
	for k := range items {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids, nil
}

// TieredSeriesCache fronts the redis DAO with the in-process cache.
// Redis hits are promoted so later lookups share one instance.
type TieredSeriesCache struct {
	memory *MemorySeriesCache
	dao    *redis.RedisSeriesDAO
}

func NewTieredSeriesCache(memory *MemorySeriesCache, dao *redis.RedisSeriesDAO) *TieredSeriesCache {
	return &TieredSeriesCache{memory: memory, dao: dao}
}

func (tc *TieredSeriesCache) Get(fingerprint string) (*models.NormalizedSeries, bool, error) {
	if series, ok, err := tc.memory.Get(fingerprint); err != nil || ok {
		return series, ok, err
	}

	series, ok, err := tc.dao.GetSeries(fingerprint)
	if err != nil {
		// a broken redis tier degrades to a recompute
		log.Printf("[SeriesCache] Redis lookup failed for %s: %v", fingerprint, err)
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}

	log.Printf("[SeriesCache] Promoting workbook %s from redis", fingerprint)
	if err := tc.memory.Set(fingerprint, series); err != nil {
		return nil, false, err
	}
	return series, true, nil
}

func (tc *TieredSeriesCache) Set(fingerprint string, series *models.NormalizedSeries) error {
	if err := tc.memory.Set(fingerprint, series); err != nil {
		return err
	}
	if err := tc.dao.SetSeries(fingerprint, series); err != nil {
		log.Printf("[SeriesCache] Failed to write workbook %s to redis: %v", fingerprint, err)
	}
	return nil
}

func (tc *TieredSeriesCache) Delete(fingerprint string) error {
	if err := tc.memory.Delete(fingerprint); err != nil {
		return err
	}
	// a copy left in redis would be promoted again on the next lookup
	return tc.dao.DeleteSeries(fingerprint)
}

// Fingerprints merges both tiers. Redis failures fall back to the memory listing.
func (tc *TieredSeriesCache) Fingerprints() ([]string, error) {
	ids, err := tc.memory.Fingerprints()
	if err != nil {
		return nil, err
	}
	stored, err := tc.dao.ListFingerprints()
	if err != nil {
		log.Printf("[SeriesCache] Redis listing failed: %v", err)
		return ids, nil
	}

	seen := make(map[string]struct{}, len(ids)+len(stored))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range stored {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
