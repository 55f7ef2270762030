package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Server.Port != "8090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Dispatch.Mode != "inproc" {
		t.Errorf("dispatch mode = %q", cfg.Dispatch.Mode)
	}
	if !cfg.Webhook.VerifySSL {
		t.Error("verify_ssl should default to true")
	}
	if cfg.Locale.Tag != "ja" {
		t.Errorf("locale = %q", cfg.Locale.Tag)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messenger.yaml")
	yaml := `
server:
  port: "9999"
webhook:
  verify_ssl: false
  timeout: 3s
locale:
  tag: en
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Webhook.VerifySSL {
		t.Error("verify_ssl should be false")
	}
	if cfg.Webhook.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Webhook.Timeout)
	}
	if cfg.Locale.Tag != "en" {
		t.Errorf("locale = %q", cfg.Locale.Tag)
	}
	// Untouched values keep their defaults.
	if cfg.Postgres.MaxConns != 10 {
		t.Errorf("max conns = %d", cfg.Postgres.MaxConns)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messenger.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9999\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MESSENGER_PORT", "7070")
	t.Setenv("MESSENGER_DISPATCH_MODE", "nats")
	t.Setenv("NATS_URL", "nats://broker:4222")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Dispatch.Mode != "nats" || cfg.NATS.URL != "nats://broker:4222" {
		t.Errorf("dispatch = %q, nats = %q", cfg.Dispatch.Mode, cfg.NATS.URL)
	}
}

func TestValidateRejectsBadDispatchMode(t *testing.T) {
	t.Setenv("MESSENGER_DISPATCH_MODE", "carrier-pigeon")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected validation error")
	}
}
