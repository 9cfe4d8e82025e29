package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	BackendMemory = "memory"
	BackendRedis  = "redis"

	defaultDSN         = "host=localhost user=postgres password=postgres dbname=warehouse port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string
	AppEnv      string
	CORSOrigins string

	StorageDriver string
	DatabaseDSN   string

	JWTSecret string
	TokenTTL  time.Duration

	LogLevel    string
	LogEncoding string

	SessionBackend string
	LockBackend    string
	Redis          RedisConfig

	SeedAdminPassword  string
	SeedViewerPassword string
	SeedDefaultLayout  bool

	// Warnings collects non-fatal findings; main logs them once the logger exists.
	Warnings []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		AppEnv:             getEnv("APP_ENV", "development"),
		CORSOrigins:        getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		DatabaseDSN:        getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 24*time.Hour),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogEncoding:        getEnv("LOG_ENCODING", ""),
		SessionBackend:     strings.ToLower(getEnv("SESSION_BACKEND", BackendMemory)),
		LockBackend:        strings.ToLower(getEnv("LOCK_BACKEND", BackendMemory)),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedViewerPassword: getEnv("SEED_VIEWER_PASSWORD", ""),
		SeedDefaultLayout:  getEnvBool("SEED_DEFAULT_LAYOUT", true),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseDSN == defaultDSN {
		cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN is using the default value, set your own Postgres connection for production")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		cfg.Warnings = append(cfg.Warnings, "CORS_ALLOWED_ORIGINS is using the default value, set your own domain for production")
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}
	if c.StorageDriver != StoragePostgres && c.StorageDriver != StorageMemory {
		errs = append(errs, errors.New("STORAGE_DRIVER must be postgres or memory"))
	}
	if c.SessionBackend != BackendMemory && c.SessionBackend != BackendRedis {
		errs = append(errs, errors.New("SESSION_BACKEND must be memory or redis"))
	}
	if c.LockBackend != BackendMemory && c.LockBackend != BackendRedis {
		errs = append(errs, errors.New("LOCK_BACKEND must be memory or redis"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesRedis reports whether any backend needs a Redis client.
func (c *Config) UsesRedis() bool {
	return c.SessionBackend == BackendRedis || c.LockBackend == BackendRedis
}

// AllowedOrigins returns the trimmed, comma-joined CORS origin list.
func (c *Config) AllowedOrigins() string {
	origins := strings.Split(c.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return strings.Join(origins, ",")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
