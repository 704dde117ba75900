// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/macrolog/internal/backup"
	"github.com/dukerupert/macrolog/internal/inference"
	"github.com/dukerupert/macrolog/internal/nutrition"
)

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	JWTSecret string

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	InferenceTimeout time.Duration

	OtherPolicy nutrition.OtherPolicy

	// ParseRateLimit is the number of food-parse requests allowed per user
	// per minute.
	ParseRateLimit int

	// AllowedOrigins are websocket origin patterns. Empty allows any origin.
	AllowedOrigins []string

	// AdminUsers are user ids allowed to manage database snapshots.
	AdminUsers []string

	Backup backup.Config
}

// Load reads the configuration. Outside production a .env file in the
// working directory is loaded first; variables already set in the
// environment win over it.
func Load() (*Config, error) {
	if os.Getenv("MACROLOG_ENV") != "production" {
		_ = godotenv.Load()
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which reports the value of a key
// and whether it is set.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:             get("MACROLOG_PORT", "8080"),
		DBPath:           get("MACROLOG_DB_PATH", "macrolog.db"),
		LogLevel:         get("MACROLOG_LOG_LEVEL", "info"),
		LogFormat:        get("MACROLOG_LOG_FORMAT", "text"),
		JWTSecret:        get("MACROLOG_JWT_SECRET", ""),
		AnthropicAPIKey:  get("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   get("ANTHROPIC_MODEL", inference.DefaultModel),
		AnthropicBaseURL: get("ANTHROPIC_BASE_URL", inference.DefaultBaseURL),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("MACROLOG_JWT_SECRET is required")
	}

	timeout, err := time.ParseDuration(get("MACROLOG_INFERENCE_TIMEOUT", inference.DefaultTimeout.String()))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("MACROLOG_INFERENCE_TIMEOUT: invalid duration %q", get("MACROLOG_INFERENCE_TIMEOUT", ""))
	}
	cfg.InferenceTimeout = timeout

	policy, err := nutrition.ParseOtherPolicy(get("MACROLOG_OTHER_SEX_FORMULA", ""))
	if err != nil {
		return nil, fmt.Errorf("MACROLOG_OTHER_SEX_FORMULA: %w", err)
	}
	cfg.OtherPolicy = policy

	limit, err := strconv.Atoi(get("MACROLOG_PARSE_RATE_LIMIT", "30"))
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("MACROLOG_PARSE_RATE_LIMIT: want a positive integer, got %q", get("MACROLOG_PARSE_RATE_LIMIT", ""))
	}
	cfg.ParseRateLimit = limit

	cfg.AllowedOrigins = splitList(get("MACROLOG_ALLOWED_ORIGINS", ""))
	cfg.AdminUsers = splitList(get("MACROLOG_ADMIN_USERS", ""))

	cfg.Backup = backup.Config{
		S3: backup.S3Config{
			Endpoint:  get("MACROLOG_BACKUP_ENDPOINT", ""),
			Bucket:    get("MACROLOG_BACKUP_BUCKET", ""),
			Region:    get("MACROLOG_BACKUP_REGION", ""),
			AccessKey: get("MACROLOG_BACKUP_ACCESS_KEY", ""),
			SecretKey: get("MACROLOG_BACKUP_SECRET_KEY", ""),
		},
		Passphrase: get("MACROLOG_BACKUP_PASSPHRASE", ""),
		Prefix:     get("MACROLOG_BACKUP_PREFIX", "macrolog"),
	}
	for _, d := range []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"MACROLOG_BACKUP_INTERVAL", "24h", &cfg.Backup.Interval},
		{"MACROLOG_BACKUP_RETENTION", "720h", &cfg.Backup.Retention},
	} {
		v, err := time.ParseDuration(get(d.key, d.def))
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%s: invalid duration %q", d.key, get(d.key, d.def))
		}
		*d.dst = v
	}

	return cfg, nil
}

// splitList splits a comma-separated value, dropping empty items. It returns
// nil for an empty value.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
