// Package config loads service configuration from built-in defaults, an
// optional YAML file and the environment, in increasing priority.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/neexbeast/wanderplan/internal/validation"
)

// ConfigPathEnvVar names the environment variable pointing at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPath is read when ConfigPathEnvVar is unset and the file exists.
const DefaultConfigPath = "config.yaml"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Auth      AuthConfig      `koanf:"auth"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Planner   PlannerConfig   `koanf:"planner"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	URL            string        `koanf:"url" validate:"required"`
	MaxConns       int32         `koanf:"max_conns" validate:"min=1"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"gt=0"`
	Breaker        BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of Postgres.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests" validate:"min=1"`
	Interval         time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
}

type RedisConfig struct {
	URL         string        `koanf:"url" validate:"required"`
	CacheTTL    time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	PoolSize    int           `koanf:"pool_size" validate:"min=1"`
	DialTimeout time.Duration `koanf:"dial_timeout" validate:"gt=0"`
	ReadTimeout time.Duration `koanf:"read_timeout" validate:"gt=0"`
}

// AuthConfig holds the optional bearer token. Empty disables authentication.
type AuthConfig struct {
	BearerToken string `koanf:"bearer_token"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins" validate:"min=1"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `koanf:"requests_per_minute" validate:"min=1"`
}

// PlannerConfig bounds itinerary requests. Larger requests are rejected.
type PlannerConfig struct {
	DefaultPoisPerDay int `koanf:"default_pois_per_day" validate:"min=1,ltefield=MaxPoisPerDay"`
	MaxNumDays        int `koanf:"max_num_days" validate:"min=1"`
	MaxPoisPerDay     int `koanf:"max_pois_per_day" validate:"min=1"`
}

type ScoringConfig struct {
	DefaultLimit      int `koanf:"default_limit" validate:"min=1"`
	SampleAttractions int `koanf:"sample_attractions" validate:"min=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns:       10,
			ConnectTimeout: 5 * time.Second,
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         60 * time.Second,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Redis: RedisConfig{
			CacheTTL:    time.Hour,
			PoolSize:    10,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: RateLimitConfig{RequestsPerMinute: 60},
		Planner: PlannerConfig{
			DefaultPoisPerDay: 3,
			MaxNumDays:        365,
			MaxPoisPerDay:     50,
		},
		Scoring: ScoringConfig{DefaultLimit: 20, SampleAttractions: 5},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_PATH (or ./config.yaml), then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path, err := configFile(); err != nil {
		return nil, err
	} else if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := splitList(k, "cors.allowed_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// configFile returns the config file to read, or "" when there is none.
// An explicit CONFIG_PATH must exist.
func configFile() (string, error) {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath, nil
	}
	return "", nil
}

var envKeys = map[string]string{
	"PORT":                         "server.port",
	"SERVER_READ_TIMEOUT":          "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":         "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":          "server.idle_timeout",
	"SERVER_SHUTDOWN_TIMEOUT":      "server.shutdown_timeout",
	"DATABASE_URL":                 "database.url",
	"DB_MAX_CONNS":                 "database.max_conns",
	"DB_CONNECT_TIMEOUT":           "database.connect_timeout",
	"DB_BREAKER_MAX_REQUESTS":      "database.breaker.max_requests",
	"DB_BREAKER_INTERVAL":          "database.breaker.interval",
	"DB_BREAKER_TIMEOUT":           "database.breaker.timeout",
	"DB_BREAKER_FAILURE_THRESHOLD": "database.breaker.failure_threshold",
	"REDIS_URL":                    "redis.url",
	"CACHE_TTL":                    "redis.cache_ttl",
	"REDIS_POOL_SIZE":              "redis.pool_size",
	"REDIS_DIAL_TIMEOUT":           "redis.dial_timeout",
	"REDIS_READ_TIMEOUT":           "redis.read_timeout",
	"BEARER_TOKEN":                 "auth.bearer_token",
	"CORS_ALLOWED_ORIGINS":         "cors.allowed_origins",
	"RATE_LIMIT_PER_MINUTE":        "rate_limit.requests_per_minute",
	"PLANNER_DEFAULT_POIS_PER_DAY": "planner.default_pois_per_day",
	"PLANNER_MAX_NUM_DAYS":         "planner.max_num_days",
	"PLANNER_MAX_POIS_PER_DAY":     "planner.max_pois_per_day",
	"SCORING_DEFAULT_LIMIT":        "scoring.default_limit",
	"SCORING_SAMPLE_ATTRACTIONS":   "scoring.sample_attractions",
	"LOG_LEVEL":                    "log.level",
	"LOG_FORMAT":                   "log.format",
}

// envKey maps an environment variable to its config path. Unknown variables
// map to "" and are ignored.
func envKey(name string) string {
	return envKeys[name]
}

// splitList turns a comma-separated string value at path into a slice.
// Values loaded from YAML or defaults are already slices and are left alone.
func splitList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}

	var items []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	if err := k.Set(path, items); err != nil {
		return fmt.Errorf("setting %s: %w", path, err)
	}
	return nil
}
