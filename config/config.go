package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// HTTP server config
const HTTP_ADDR = ":8080"
const MAX_UPLOAD_MB = 20

// Redis Config
const REDIS_DB_ADDRESS = "redis:6379"
const REDIS_DB_PASSWORD = ""
const REDIS_DB = 0

// Workbook layout of the weekly KB time series file
const SALE_SHEET_NAME = "3.매매지수"
const RENT_SHEET_NAME = "4.전세지수"
const PERIOD_COLUMN_NAME = "구분"

// SKIP_ROWS are zero-based row positions dropped before the header row.
var SKIP_ROWS = []int{0, 2, 3}

// Workbook refresher config
const WORKBOOK_REFRESH_MINUTES = 60 * 24

// Series cache config; the in-process tier only expires when redis backs it
const MEMORY_CACHE_MINUTES = 60

// Resources file paths
const RESOURCES_PATH_PREFIX = "resources"
const DEFAULT_WORKBOOK_RESOURCE = "weekly_time_series.xlsx"

// Config holds the runtime settings, defaulted from the constants above.
type Config struct {
	HTTPAddr    string
	MaxUploadMB int64

	RedisEnabled  bool
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	SaleSheet    string
	RentSheet    string
	PeriodColumn string
	SkipRows     []int

	DefaultWorkbookPath    string
	WorkbookSourceURL      string
	WorkbookRefreshMinutes int

	MemoryCacheMinutes int

	ZeroLines bool
}

// Load reads an optional .env file and overlays environment variables on the defaults.
func Load() *Config {
	// .env is optional; containers inject env vars directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] Failed to load .env: %v", err)
	}

	return &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", HTTP_ADDR),
		MaxUploadMB: int64(getEnvPositiveInt("MAX_UPLOAD_MB", MAX_UPLOAD_MB)),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", true),
		RedisAddress:  getEnv("REDIS_ADDR", REDIS_DB_ADDRESS),
		RedisPassword: getEnv("REDIS_PASSWORD", REDIS_DB_PASSWORD),
		RedisDB:       getEnvInt("REDIS_DB", REDIS_DB),

		SaleSheet:    getEnv("SALE_SHEET", SALE_SHEET_NAME),
		RentSheet:    getEnv("RENT_SHEET", RENT_SHEET_NAME),
		PeriodColumn: getEnv("PERIOD_COLUMN", PERIOD_COLUMN_NAME),
		SkipRows:     getEnvIntList("SKIP_ROWS", SKIP_ROWS),

		DefaultWorkbookPath:    getEnv("DEFAULT_WORKBOOK_PATH", defaultWorkbookPath()),
		WorkbookSourceURL:      getEnv("WORKBOOK_SOURCE_URL", ""),
		WorkbookRefreshMinutes: getEnvPositiveInt("WORKBOOK_REFRESH_MINUTES", WORKBOOK_REFRESH_MINUTES),

		MemoryCacheMinutes: getEnvPositiveInt("MEMORY_CACHE_MINUTES", MEMORY_CACHE_MINUTES),

		ZeroLines: getEnvBool("QUADRANT_ZERO_LINES", true),
	}
}

// BaseDir returns the absolute path of the project root directory
func BaseDir() string {
	// Check if PROJECT_ROOT is set
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		return root
	}

	// Default to the current working directory
	wd, err := os.Getwd()
	if err != nil {
		panic("Unable to determine working directory: " + err.Error())
	}

	return wd
}

func GetResourcePath(resourceFile string) string {
	return filepath.Join(BaseDir(), RESOURCES_PATH_PREFIX, resourceFile)
}

// defaultWorkbookPath is the bundled resource workbook, or "" when it is not shipped.
func defaultWorkbookPath() string {
	path := GetResourcePath(DEFAULT_WORKBOOK_RESOURCE)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[Config] Invalid integer for %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

// getEnvPositiveInt rejects zero and negative values, which are meaningless for sizes and intervals.
func getEnvPositiveInt(key string, fallback int) int {
	n := getEnvInt(key, fallback)
	if n <= 0 {
		log.Printf("[Config] %s must be positive, got %d, using %d", key, n, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[Config] Invalid boolean for %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

// getEnvIntList parses a comma separated list such as "0,2,3".
func getEnvIntList(key string, fallback []int) []int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return append([]int(nil), fallback...)
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			log.Printf("[Config] Invalid list for %s=%q, using %v", key, v, fallback)
			return append([]int(nil), fallback...)
		}
		out = append(out, n)
	}
	return out
}
