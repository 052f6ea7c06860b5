package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // display zone must resolve on hosts without a zoneinfo database

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all settings for the dashboard, watcher, and CLI, populated
// from environment variables, an optional .env file, and an optional YAML file.
type Config struct {
	FeedURL         string         `env:"GEONET_URL" validate:"required,url"`
	FeedTimeout     time.Duration  `env:"FEED_TIMEOUT" validate:"gt=0"`
	DisplayTimezone string         `env:"DISPLAY_TIMEZONE" validate:"required"`
	DisplayLocation *time.Location `env:"-"`

	CacheTTL           time.Duration `env:"CACHE_TTL" validate:"gte=0"`
	RefreshInterval    time.Duration `env:"REFRESH_INTERVAL" validate:"gt=0"`
	WatchInterval      time.Duration `env:"WATCH_INTERVAL" validate:"gt=0"`
	MagnitudeThreshold float64       `env:"MAGNITUDE_THRESHOLD" validate:"gte=0"`
	NotificationFile   string        `env:"NOTIFICATION_FILE" validate:"required"`

	// Language-model endpoint.
	OllamaURL     string        `env:"OLLAMA_URL" validate:"required,url"`
	OllamaModel   string        `env:"OLLAMA_MODEL" validate:"required"`
	OllamaTimeout time.Duration `env:"OLLAMA_TIMEOUT" validate:"gte=0"`

	// Population enrichment. Disabled when no API key is configured.
	EnrichmentEnabled bool          `env:"-"`
	StatsNZAPIKey     string        `env:"STATSNZ_API_KEY"`
	StatsNZURL        string        `env:"STATSNZ_URL" validate:"required,url"`
	StatsNZLayer      string        `env:"STATSNZ_LAYER" validate:"required"`
	StatsNZRadius     int           `env:"STATSNZ_RADIUS" validate:"gt=0"`
	StatsNZMaxResults int           `env:"STATSNZ_MAX_RESULTS" validate:"gt=0"`
	StatsNZTimeout    time.Duration `env:"STATSNZ_TIMEOUT" validate:"gt=0"`
	StatsNZCacheSize  int           `env:"STATSNZ_CACHE_SIZE" validate:"gt=0"`

	// Alert transition publishing. Disabled when no brokers are configured.
	AlertPublishEnabled bool     `env:"-"`
	KafkaBrokers        []string `env:"KAFKA_BROKERS"`
	KafkaAlertTopic     string   `env:"KAFKA_ALERT_TOPIC" validate:"required"`

	HTTPAddr          string        `env:"HTTP_ADDR"`
	DashboardHTTPAddr string        `env:"DASHBOARD_HTTP_ADDR"`
	LogLevel          string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat         string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	LogFile           string        `env:"LOG_FILE"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	Persona           string        `env:"PERSONA"`
}

// Load reads configuration, applying defaults where unset. Precedence is
// environment, then the YAML file named by CONFIG_FILE, then built-in defaults.
// A .env file in the working directory is merged into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		FeedURL:          src.get("GEONET_URL", "https://api.geonet.org.nz/quake?MMI=3"),
		DisplayTimezone:  src.get("DISPLAY_TIMEZONE", "Pacific/Auckland"),
		NotificationFile: src.get("NOTIFICATION_FILE", "notification_status.txt"),

		OllamaURL:   src.get("OLLAMA_URL", "http://localhost:11434/api/generate"),
		OllamaModel: src.get("OLLAMA_MODEL", "llama3"),

		StatsNZAPIKey: src.get("STATSNZ_API_KEY", ""),
		StatsNZURL:    src.get("STATSNZ_URL", "https://datafinder.stats.govt.nz/services/query/v1/vector.json"),
		StatsNZLayer:  src.get("STATSNZ_LAYER", "104612"),

		KafkaAlertTopic: src.get("KAFKA_ALERT_TOPIC", "quake-alerts"),

		HTTPAddr:          src.get("HTTP_ADDR", ":8080"),
		DashboardHTTPAddr: src.get("DASHBOARD_HTTP_ADDR", ""),
		LogLevel:          strings.ToLower(src.get("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(src.get("LOG_FORMAT", "json")),
		LogFile:           src.get("LOG_FILE", "dashboard.log"),
		Persona:           src.get("PERSONA", ""),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"FEED_TIMEOUT", "10s", &cfg.FeedTimeout},
		{"CACHE_TTL", "30s", &cfg.CacheTTL},
		{"REFRESH_INTERVAL", "30s", &cfg.RefreshInterval},
		{"WATCH_INTERVAL", "30s", &cfg.WatchInterval},
		{"OLLAMA_TIMEOUT", "2m", &cfg.OllamaTimeout},
		{"STATSNZ_TIMEOUT", "5s", &cfg.StatsNZTimeout},
		// Not sharedcfg.ParseShutdownTimeout: that reads the environment only
		// and would skip CONFIG_FILE.
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = src.duration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		key string
		def string
		dst *int
	}{
		{"STATSNZ_RADIUS", "10000", &cfg.StatsNZRadius},
		{"STATSNZ_MAX_RESULTS", "5", &cfg.StatsNZMaxResults},
		{"STATSNZ_CACHE_SIZE", "256", &cfg.StatsNZCacheSize},
	}
	for _, i := range ints {
		if *i.dst, err = src.int(i.key, i.def); err != nil {
			return nil, err
		}
	}

	threshold := src.get("MAGNITUDE_THRESHOLD", "4.0")
	cfg.MagnitudeThreshold, err = strconv.ParseFloat(strings.TrimSpace(threshold), 64)
	if err != nil {
		return nil, errors.New("invalid MAGNITUDE_THRESHOLD")
	}

	cfg.DisplayLocation, err = time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", cfg.DisplayTimezone, err)
	}

	if brokers := strings.TrimSpace(src.get("KAFKA_BROKERS", "")); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}
	cfg.AlertPublishEnabled = len(cfg.KafkaBrokers) > 0
	cfg.EnrichmentEnabled = cfg.StatsNZAPIKey != ""

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// source resolves a key from the environment first, then the YAML file.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return source{}, fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}
	return source{file: values}, nil
}

func (s source) get(key, def string) string {
	if v, ok := s.file[key]; ok && v != "" {
		def = v
	}
	return sharedcfg.EnvOrDefault(key, def)
}

func (s source) duration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s.get(key, def)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func (s source) int(key, def string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s.get(key, def)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
