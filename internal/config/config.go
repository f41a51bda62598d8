package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	TablePrefix string
	CORSOrigins string

	// SessionSecret signs session tokens; must be at least 32 bytes.
	SessionSecret string
	SessionTTL    time.Duration

	// StorageConfigPath is the persisted storage selector document.
	StorageConfigPath string

	// PathSecret keys the path token codec used in public URLs.
	PathSecret string

	// ShareSweepInterval is how often expired shares are purged.
	ShareSweepInterval time.Duration
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        env,
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		TablePrefix:        getTablePrefix(env),
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:3000"),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionTTL:         getDuration("SESSION_TTL_HOURS", 72) * time.Hour,
		StorageConfigPath:  getEnv("STORAGE_CONFIG_PATH", "data/storage.json"),
		PathSecret:         getEnv("PATH_SECRET", ""),
		ShareSweepInterval: getDuration("SHARE_SWEEP_INTERVAL_HOURS", 1) * time.Hour,
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultHours int64) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(defaultHours)
}
