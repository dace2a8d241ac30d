package di

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"quadrant-server/config"
	services "quadrant-server/service"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainer_WithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := config.Load()
	cfg.RedisAddress = mr.Addr()
	cfg.RedisEnabled = true
	cfg.WorkbookSourceURL = "https://example.com/weekly.xlsx"

	c := NewContainer(cfg)

	assert.NotNil(t, c.RedisClient)
	assert.NotNil(t, c.RedisSeriesDao)
	assert.IsType(t, &services.TieredSeriesCache{}, c.SeriesCache)
	assert.NotNil(t, c.WorkbookRefresherService)
}

func TestNewContainer_WithoutRedis(t *testing.T) {
	cfg := config.Load()
	cfg.RedisEnabled = false
	cfg.WorkbookSourceURL = ""

	c := NewContainer(cfg)

	assert.Nil(t, c.RedisClient)
	assert.IsType(t, &services.MemorySeriesCache{}, c.SeriesCache)
	assert.Nil(t, c.WorkbookRefresherService)

	c.Router.RegisterRoutes()
	rr := httptest.NewRecorder()
	c.MuxRouter.ServeHTTP(rr, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
