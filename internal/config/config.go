// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradeexplorer/internal/partition"
	"tradeexplorer/internal/query"
)

const (
	defaultPort     = "8080"
	defaultLogLevel = "info"
)

type Config struct {
	Partition partition.Config
	Query     query.Config
	// StorePath is the sqlite snapshot database; empty disables the tier.
	StorePath   string
	Port        string
	CORSOrigins []string
	LogLevel    slog.Level
}

// Load reads the given .env files, when present, into the environment and
// then builds the configuration from it. Variables already set win over the
// files.
func Load(files ...string) (Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return FromEnv(), nil
}

func FromEnv() Config {
	return Config{
		Partition: partition.Config{
			BaseURL:         getenv("TRADE_STORAGE_BASE_URL", partition.DefaultBaseURL),
			Bucket:          getenv("TRADE_BUCKET", partition.DefaultBucket),
			Prefix:          getenv("TRADE_PREFIX", partition.DefaultPrefix),
			PageSize:        getenvInt("TRADE_LIST_PAGE_SIZE", partition.DefaultPageSize),
			Timeout:         time.Duration(getenvInt("TRADE_LIST_TIMEOUT_SECONDS", int(partition.DefaultTimeout/time.Second))) * time.Second,
			RateLimitPerSec: getenvInt("TRADE_RATE_LIMIT_PER_SEC", partition.DefaultRateLimitPerSec),
			RateLimitBurst:  getenvInt("TRADE_RATE_LIMIT_BURST", partition.DefaultRateLimitBurst),
			UserAgent:       getenv("TRADE_USER_AGENT", partition.DefaultUserAgent),
		},
		Query: query.Config{
			Path:        getenv("TRADE_DUCKDB_PATH", ""),
			HTTPTimeout: time.Duration(getenvInt("TRADE_HTTP_TIMEOUT_MS", int(query.DefaultHTTPTimeout/time.Millisecond))) * time.Millisecond,
		},
		StorePath:   getenv("TRADE_STORE_PATH", ""),
		Port:        getenv("PORT", defaultPort),
		CORSOrigins: getenvList("TRADE_CORS_ORIGINS"),
		LogLevel:    parseLevel(getenv("LOG_LEVEL", defaultLogLevel)),
	}
}

// NewLogger returns a text logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
