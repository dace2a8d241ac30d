package db_test

import (
	"context"
	"sort"
	"testing"

	"quadrant-server/db"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clients returns the mock and a go-redis client backed by miniredis.
func clients(t *testing.T) []struct {
	name   string
	client db.RedisClient
} {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return []struct {
		name   string
		client db.RedisClient
	}{
		{"MockRedisClient", db.NewMockRedisClient()},
		{"GoRedisClient", db.NewGoRedisClient(context.Background(), rdb)},
	}
}

// Test the Set and Get methods for both MockRedisClient and GoRedisClient
func TestRedisClient_SetAndGet(t *testing.T) {
	for _, test := range clients(t) {
		t.Run(test.name, func(t *testing.T) {
			key := "test-key"
			value := "test-value"

			// Act
			err := test.client.Set(key, value)
			if err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			retrieved, err := test.client.Get(key)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}

			// Assert
			if retrieved != value {
				t.Errorf("Expected %s, got %s", value, retrieved)
			}
		})
	}
}

func TestRedisClient_GetMissingKey(t *testing.T) {
	for _, test := range clients(t) {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.client.Get("missing")
			assert.ErrorIs(t, err, db.ErrKeyNotFound)
		})
	}
}

func TestRedisClient_KeysAndDel(t *testing.T) {
	for _, test := range clients(t) {
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, test.client.Set("normalized_series_v1:aa", "1"))
			require.NoError(t, test.client.Set("normalized_series_v1:bb", "2"))
			require.NoError(t, test.client.Set("other:cc", "3"))

			keys, err := test.client.Keys("normalized_series_v1:*")
			require.NoError(t, err)
			sort.Strings(keys)
			assert.Equal(t, []string{"normalized_series_v1:aa", "normalized_series_v1:bb"}, keys)

			require.NoError(t, test.client.Del("normalized_series_v1:aa"))
			_, err = test.client.Get("normalized_series_v1:aa")
			assert.ErrorIs(t, err, db.ErrKeyNotFound)
		})
	}
}

// Test Ping for both MockRedisClient and GoRedisClient
func TestRedisClient_Ping(t *testing.T) {
	for _, test := range clients(t) {
		t.Run(test.name, func(t *testing.T) {
			// Act
			err := test.client.Ping()

			// Assert
			if err != nil {
				t.Errorf("Ping failed: %v", err)
			}
		})
	}
}
