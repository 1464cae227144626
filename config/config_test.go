package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `session:
  session_id: "bench-1"
  nominal_current_a: 32
  duration_seconds: 120
  seed: 7
metrics:
  prometheus_enabled: true
  prometheus_port: ":9191"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "chargesim"
  topic_prefix: "lab/chargesim"
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"session_id", cfg.Session.SessionID, "bench-1"},
		{"duration", cfg.Session.DurationSeconds, 120.0},
		{"seed", cfg.Session.Seed, int64(7)},
		{"tick default", cfg.Session.TickSeconds, 1.0},
		{"prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":9191"},
		{"mqtt broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "lab/chargesim"},
		{"log level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("session:\n  seed: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CS_SESSION__SEED", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Session.Seed != 42 {
		t.Fatalf("env override not applied: seed=%d", cfg.Session.Seed)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadRejectsInvalidSession(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "session:\n  nominal_current_a: 32\n  derate_steps_a: [16, 32]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for bad derate ladder")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Session.Validate(); err != nil {
		t.Fatalf("default session config invalid: %v", err)
	}
	if err := cfg.Logging.Validate(); err != nil {
		t.Fatalf("default logging config invalid: %v", err)
	}
}
