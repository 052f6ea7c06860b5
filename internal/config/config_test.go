package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStatsKey = "stats-test-key"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.geonet.org.nz/quake?MMI=3", cfg.FeedURL)
	assert.Equal(t, 10*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "Pacific/Auckland", cfg.DisplayLocation.String())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
	assert.InDelta(t, 4.0, cfg.MagnitudeThreshold, 1e-9)
	assert.Equal(t, "notification_status.txt", cfg.NotificationFile)
	assert.Equal(t, "http://localhost:11434/api/generate", cfg.OllamaURL)
	assert.Equal(t, "llama3", cfg.OllamaModel)
	assert.Equal(t, 2*time.Minute, cfg.OllamaTimeout)
	assert.False(t, cfg.EnrichmentEnabled)
	assert.Equal(t, 10000, cfg.StatsNZRadius)
	assert.Equal(t, 5, cfg.StatsNZMaxResults)
	assert.Equal(t, 256, cfg.StatsNZCacheSize)
	assert.False(t, cfg.AlertPublishEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "quake-alerts", cfg.KafkaAlertTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.DashboardHTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "dashboard.log", cfg.LogFile)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("GEONET_URL", "http://localhost:9999/quake?MMI=3")
	t.Setenv("DISPLAY_TIMEZONE", "UTC")
	t.Setenv("CACHE_TTL", "5s")
	t.Setenv("WATCH_INTERVAL", "1m")
	t.Setenv("MAGNITUDE_THRESHOLD", "5.5")
	t.Setenv("NOTIFICATION_FILE", "/tmp/alert.txt")
	t.Setenv("OLLAMA_MODEL", "mistral")
	t.Setenv("STATSNZ_API_KEY", testStatsKey)
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/quake?MMI=3", cfg.FeedURL)
	assert.Equal(t, time.UTC.String(), cfg.DisplayLocation.String())
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.Equal(t, time.Minute, cfg.WatchInterval)
	assert.InDelta(t, 5.5, cfg.MagnitudeThreshold, 1e-9)
	assert.Equal(t, "/tmp/alert.txt", cfg.NotificationFile)
	assert.Equal(t, "mistral", cfg.OllamaModel)
	assert.True(t, cfg.EnrichmentEnabled)
	assert.Equal(t, testStatsKey, cfg.StatsNZAPIKey)
	assert.True(t, cfg.AlertPublishEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_ZeroCacheTTLAllowed(t *testing.T) {
	t.Setenv("CACHE_TTL", "0s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.CacheTTL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("WATCH_INTERVAL", "often")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WATCH_INTERVAL")
}

func TestLoad_NonPositiveInterval(t *testing.T) {
	t.Setenv("WATCH_INTERVAL", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WATCH_INTERVAL")
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Setenv("MAGNITUDE_THRESHOLD", "big")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAGNITUDE_THRESHOLD")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("DISPLAY_TIMEZONE", "Mars/Olympus_Mons")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISPLAY_TIMEZONE")
}

func TestLoad_InvalidURL(t *testing.T) {
	t.Setenv("OLLAMA_URL", "not a url")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OLLAMA_URL")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	t.Setenv("STATSNZ_CACHE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATSNZ_CACHE_SIZE")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quake.yaml")
	require.NoError(t, os.WriteFile(path, []byte("CACHE_TTL: 45s\nMAGNITUDE_THRESHOLD: 4.5\nOLLAMA_MODEL: phi3\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OLLAMA_MODEL", "mistral") // env wins over the file

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
	assert.InDelta(t, 4.5, cfg.MagnitudeThreshold, 1e-9)
	assert.Equal(t, "mistral", cfg.OllamaModel)
}

func TestLoad_ShutdownTimeoutFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quake.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SHUTDOWN_TIMEOUT: 25s\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_FILE")
}
