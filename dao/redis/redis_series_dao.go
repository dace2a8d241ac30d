package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"quadrant-server/db"
	"quadrant-server/models"
)

// NORMALIZED_SERIES_KEY_FORMAT is used to cache a normalized series per workbook fingerprint.
const NORMALIZED_SERIES_KEY_FORMAT = "normalized_series_v1:%s"

// RedisSeriesDAO persists normalized series using Redis.
type RedisSeriesDAO struct {
	client db.RedisClient
}

// NewRedisSeriesDAO initializes a RedisSeriesDAO with the Redis client.
func NewRedisSeriesDAO(client db.RedisClient) *RedisSeriesDAO {
	return &RedisSeriesDAO{client: client}
}

// SetSeries caches the normalized series of a workbook by its fingerprint.
func (dao *RedisSeriesDAO) SetSeries(fingerprint string, series *models.NormalizedSeries) error {
	key := fmt.Sprintf(NORMALIZED_SERIES_KEY_FORMAT, fingerprint)
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to marshal series for workbook %s: %w", fingerprint, err)
	}
	if err := dao.client.Set(key, string(data)); err != nil {
		return fmt.Errorf("failed to set series in redis: %w", err)
	}
	log.Printf("[RedisSeriesDAO] Cached %d rows for workbook %s", len(series.Rows), fingerprint)
	return nil
}

// GetSeries returns (nil, false, nil) on a cache miss.
func (dao *RedisSeriesDAO) GetSeries(fingerprint string) (*models.NormalizedSeries, bool, error) {
	key := fmt.Sprintf(NORMALIZED_SERIES_KEY_FORMAT, fingerprint)
	str, err := dao.client.Get(key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get series from redis: %w", err)
	}
	var s models.NormalizedSeries
	if err := json.Unmarshal([]byte(str), &s); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal series JSON: %w", err)
	}
	return &s, true, nil
}

// ListFingerprints returns the fingerprints of all cached workbooks.
func (dao *RedisSeriesDAO) ListFingerprints() ([]string, error) {
	pattern := fmt.Sprintf(NORMALIZED_SERIES_KEY_FORMAT, "*")
	keys, err := dao.client.Keys(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list series keys: %w", err)
	}
	prefix := fmt.Sprintf(NORMALIZED_SERIES_KEY_FORMAT, "")
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	return ids, nil
}

func (dao *RedisSeriesDAO) DeleteSeries(fingerprint string) error {
	key := fmt.Sprintf(NORMALIZED_SERIES_KEY_FORMAT, fingerprint)
	if err := dao.client.Del(key); err != nil {
		return fmt.Errorf("failed to delete series key %s: %w", key, err)
	}
	log.Printf("[RedisSeriesDAO] Deleted series cache for %s", fingerprint)
	return nil
}
