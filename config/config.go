package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"aniverse/storage"
)

// DefaultFavoritesKey is the storage key the browser client used for the list
const DefaultFavoritesKey = "aniverse_favorites"

// Config holds everything the binaries read from the environment
type Config struct {
	DataPath       string
	Storage        storage.Options
	FavoritesKey   string
	Strict         bool
	CatalogURL     string
	CatalogToken   string
	CatalogTimeout time.Duration
	Port           string
	RefreshSpec    string
	RunMode        string
	LogLevel       string
}

// Load reads the configuration from environment variables.
// Callers import github.com/joho/godotenv/autoload so a .env file is honored.
func Load() (*Config, error) {
	dataPath := getenv("DATA_PATH", "./data")

	quota, err := strconv.ParseInt(getenv("STORAGE_QUOTA_BYTES", strconv.FormatInt(storage.DefaultQuotaBytes, 10)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid STORAGE_QUOTA_BYTES: %w", err)
	}

	strict, err := strconv.ParseBool(getenv("FAVORITES_STRICT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid FAVORITES_STRICT: %w", err)
	}

	timeout, err := time.ParseDuration(getenv("CATALOG_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATALOG_TIMEOUT: %w", err)
	}

	runMode := getenv("RUN_MODE", "server")
	if runMode != "server" && runMode != "once" {
		return nil, fmt.Errorf("invalid RUN_MODE: %s", runMode)
	}

	return &Config{
		DataPath: dataPath,
		Storage: storage.Options{
			Backend:     getenv("STORAGE_BACKEND", storage.BackendSQLite),
			DataPath:    dataPath,
			RedisURL:    getenv("REDIS_URL", "redis://localhost:6379"),
			RedisPrefix: getenv("REDIS_PREFIX", "aniverse:"),
			QuotaBytes:  quota,
		},
		FavoritesKey:   getenv("FAVORITES_KEY", DefaultFavoritesKey),
		Strict:         strict,
		CatalogURL:     os.Getenv("CATALOG_URL"),
		CatalogToken:   os.Getenv("CATALOG_TOKEN"),
		CatalogTimeout: timeout,
		Port:           getenv("PORT", "8080"),
		RefreshSpec:    getenv("REFRESH_SCHEDULE", "0 0 */6 * * *"),
		RunMode:        runMode,
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
