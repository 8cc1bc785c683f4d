package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	// Ledger storage. Postgres when a DSN is set, otherwise a local sqlite
	// file standing in for the browser-local store of the original client.
	PostgresDSN string
	SQLitePath  string

	// Pinning. Remote Pinata-compatible API when credentials are set,
	// otherwise a badger-backed local content store under BlobPath.
	PinataBaseURL   string
	PinataAPIKey    string
	PinataSecretKey string
	BlobPath        string
	PinTimeout      time.Duration
	UploadRetries   int

	UploadMaxBytes int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	UploadRateLimit  int
	UploadRateWindow time.Duration

	AllowPurge bool
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:         addr,
		LogLevel:         envDefault("LOG_LEVEL", "info"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		SQLitePath:       envDefault("SQLITE_PATH", "cyberhope.db"),
		PinataBaseURL:    envDefault("PINATA_BASE_URL", "https://api.pinata.cloud"),
		PinataAPIKey:     os.Getenv("PINATA_API_KEY"),
		PinataSecretKey:  os.Getenv("PINATA_SECRET_API_KEY"),
		BlobPath:         envDefault("BLOB_PATH", "blobs"),
		PinTimeout:       envDurationDefault("PIN_TIMEOUT_SECONDS", 30*time.Second),
		UploadRetries:    envIntDefault("UPLOAD_RETRIES", 2),
		UploadMaxBytes:   envInt64Default("UPLOAD_MAX_BYTES", 10<<20),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          envIntDefault("REDIS_DB", 0),
		UploadRateLimit:  envIntDefault("UPLOAD_RATE_LIMIT", 0),
		UploadRateWindow: envDurationDefault("UPLOAD_RATE_WINDOW_SECONDS", time.Minute),
		AllowPurge:       os.Getenv("ALLOW_PURGE") == "true",
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func envInt64Default(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func envDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}
