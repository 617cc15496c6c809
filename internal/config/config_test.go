package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedVars = []string{
	"APP_ENV", "LOG_LEVEL", "PORT",
	"HOME_NAME", "HOME_LATITUDE", "HOME_LONGITUDE",
	"OPENMETEO_URL", "HTTP_TIMEOUT", "FETCH_MAX_RETRIES", "FETCH_BACKOFF", "FETCH_MAX_BACKOFF",
	"OPENMETEO_RPS", "OPENMETEO_BURST",
	"CACHE_TTL", "CACHE_MAX_ENTRIES", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"FETCH_INTERVAL", "RALLY_STEP_KM", "RALLY_CONCURRENCY",
	"DISPLAY_TIMEZONE", "GEOCODER_API_KEY", "MAX_UPLOAD_BYTES",
}

// clearEnv unsets every variable the config reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedVars {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, 5.0, cfg.StepKm)
	assert.Equal(t, 4, cfg.RallyConcurrency)
	assert.Empty(t, cfg.RedisAddr)

	home := cfg.Home()
	assert.Equal(t, "Zandvoort", home.Name)
	assert.Equal(t, 52.387, home.Lat)
	assert.Equal(t, 4.54, home.Lon)

	loc, err := cfg.DisplayLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("RALLY_STEP_KM", "2.5")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("DISPLAY_TIMEZONE", "Europe/Amsterdam")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 2.5, cfg.StepKm)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)

	loc, err := cfg.DisplayLocation()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Amsterdam", loc.String())
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"APP_ENV":           "staging",
		"PORT":              "http",
		"HOME_LATITUDE":     "95",
		"RALLY_STEP_KM":     "0",
		"RALLY_CONCURRENCY": "0",
		"FETCH_MAX_BACKOFF": "100ms",
		"DISPLAY_TIMEZONE":  "Mars/Olympus",
		"HTTP_TIMEOUT":      "soon",
		"OPENMETEO_URL":     "not a url",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := FromEnv()
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}
