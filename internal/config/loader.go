package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "messenger.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "MESSENGER_PORT")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "MESSENGER_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "MESSENGER_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "MESSENGER_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "MESSENGER_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "MESSENGER_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Dispatch.Mode, "MESSENGER_DISPATCH_MODE")
	setInt(&cfg.Dispatch.MaxInFlight, "MESSENGER_DISPATCH_MAX_IN_FLIGHT")
	setBool(&cfg.Webhook.VerifySSL, "MESSENGER_WEBHOOK_VERIFY_SSL")
	setDuration(&cfg.Webhook.Timeout, "MESSENGER_WEBHOOK_TIMEOUT")
	setString(&cfg.Webhook.Username, "MESSENGER_WEBHOOK_USERNAME")
	setString(&cfg.Webhook.IconURL, "MESSENGER_WEBHOOK_ICON_URL")
	setString(&cfg.Tracker.BaseURL, "MESSENGER_TRACKER_BASE_URL")
	setString(&cfg.Locale.Tag, "MESSENGER_LOCALE")
	setInt64(&cfg.Cache.MaxEntries, "MESSENGER_CACHE_MAX_ENTRIES")
	setDuration(&cfg.Cache.TTL, "MESSENGER_CACHE_TTL")
	setString(&cfg.Logging.Level, "MESSENGER_LOG_LEVEL")
	setString(&cfg.Logging.Service, "MESSENGER_LOG_SERVICE")
	setString(&cfg.Telemetry.Endpoint, "MESSENGER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Tracker.BaseURL == "" {
		return errors.New("tracker.base_url is required")
	}
	switch cfg.Dispatch.Mode {
	case "inproc", "nats":
	default:
		return fmt.Errorf("dispatch.mode must be inproc or nats, got %q", cfg.Dispatch.Mode)
	}
	if cfg.Dispatch.Mode == "nats" && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when dispatch.mode is nats")
	}
	if cfg.Dispatch.MaxInFlight < 1 {
		return errors.New("dispatch.max_in_flight must be >= 1")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
