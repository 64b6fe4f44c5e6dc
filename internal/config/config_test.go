package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/wanderplan/internal/config"
)

// baseEnv sets the required variables and clears the optional ones so the
// host environment cannot leak into a test.
func baseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/travel")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	for _, name := range []string{
		"CONFIG_PATH", "PORT", "CACHE_TTL", "BEARER_TOKEN", "LOG_LEVEL", "LOG_FORMAT",
		"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_PER_MINUTE", "DB_BREAKER_FAILURE_THRESHOLD",
		"DB_MAX_CONNS", "DB_CONNECT_TIMEOUT", "REDIS_POOL_SIZE", "REDIS_DIAL_TIMEOUT",
		"REDIS_READ_TIMEOUT", "PLANNER_DEFAULT_POIS_PER_DAY", "PLANNER_MAX_NUM_DAYS",
		"PLANNER_MAX_POIS_PER_DAY",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoad_Defaults(t *testing.T) {
	baseEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres://localhost:5432/travel", cfg.Database.URL)
	assert.Equal(t, uint32(5), cfg.Database.Breaker.FailureThreshold)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, time.Hour, cfg.Redis.CacheTTL)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
	assert.Equal(t, 3*time.Second, cfg.Redis.ReadTimeout)
	assert.Empty(t, cfg.Auth.BearerToken)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 3, cfg.Planner.DefaultPoisPerDay)
	assert.Equal(t, 365, cfg.Planner.MaxNumDays)
	assert.Equal(t, 50, cfg.Planner.MaxPoisPerDay)
	assert.Equal(t, 20, cfg.Scoring.DefaultLimit)
	assert.Equal(t, 5, cfg.Scoring.SampleAttractions)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	baseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("BEARER_TOKEN", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_BREAKER_FAILURE_THRESHOLD", "2")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("REDIS_DIAL_TIMEOUT", "250ms")
	t.Setenv("PLANNER_MAX_NUM_DAYS", "30")
	t.Setenv("PLANNER_MAX_POIS_PER_DAY", "8")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "secret", cfg.Auth.BearerToken)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, uint32(2), cfg.Database.Breaker.FailureThreshold)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, 250*time.Millisecond, cfg.Redis.DialTimeout)
	assert.Equal(t, 30, cfg.Planner.MaxNumDays)
	assert.Equal(t, 8, cfg.Planner.MaxPoisPerDay)
}

func TestLoad_FileThenEnv(t *testing.T) {
	baseEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
rate_limit:
  requests_per_minute: 10
cors:
  allowed_origins:
    - https://app.example
log:
  format: console
`), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute, "env must win over the file")
	assert.Equal(t, []string{"https://app.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_MissingRequired(t *testing.T) {
	baseEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url is required")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	baseEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level must be one of")
}

func TestLoad_InvalidPort(t *testing.T) {
	baseEnv(t)
	t.Setenv("PORT", "0")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestLoad_PlannerLimits(t *testing.T) {
	tests := map[string]struct {
		env  map[string]string
		want string
	}{
		"zero max days": {
			env:  map[string]string{"PLANNER_MAX_NUM_DAYS": "0"},
			want: "planner.max_num_days must be at least 1",
		},
		"zero max pois": {
			env:  map[string]string{"PLANNER_MAX_POIS_PER_DAY": "0"},
			want: "planner.max_pois_per_day must be at least 1",
		},
		"default above max": {
			env:  map[string]string{"PLANNER_DEFAULT_POIS_PER_DAY": "10", "PLANNER_MAX_POIS_PER_DAY": "5"},
			want: "planner.default_pois_per_day must not exceed",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			baseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	baseEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := config.Load()
	require.Error(t, err)
}
