package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected 10s shutdown, got %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Storage.DBPath != "" {
		t.Fatalf("expected in-memory default, got %q", cfg.Storage.DBPath)
	}
	if cfg.Scheduling.DefaultTimezone != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Scheduling.DefaultTimezone)
	}
	if cfg.Audit.RetentionEntries != 10000 || cfg.Audit.PruneInterval != time.Minute {
		t.Fatalf("unexpected audit defaults: %+v", cfg.Audit)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ZONECAL_LISTEN_ADDR", ":9090")
	t.Setenv("ZONECAL_DB_PATH", "/tmp/zonecal.sqlite")
	t.Setenv("ZONECAL_DEFAULT_TIMEZONE", "Europe/Vilnius")
	t.Setenv("ZONECAL_AUDIT_RETENTION", "250")
	t.Setenv("ZONECAL_LOG_LEVEL", "debug")
	t.Setenv("ZONECAL_LOG_FORMAT", "text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Storage.DBPath != "/tmp/zonecal.sqlite" {
		t.Fatalf("expected db path, got %q", cfg.Storage.DBPath)
	}
	if cfg.Scheduling.DefaultTimezone != "Europe/Vilnius" {
		t.Fatalf("expected Europe/Vilnius, got %s", cfg.Scheduling.DefaultTimezone)
	}
	if cfg.Audit.RetentionEntries != 250 {
		t.Fatalf("expected 250, got %d", cfg.Audit.RetentionEntries)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zonecal.yaml")
	yaml := `server:
  addr: ":7070"
  shutdown_timeout: 5s
scheduling:
  default_timezone: Europe/Paris
audit:
  retention_entries: 42
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ZONECAL_LISTEN_ADDR", ":6060")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":6060" {
		t.Fatalf("expected env to win over yaml, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Fatalf("expected 5s from yaml, got %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Scheduling.DefaultTimezone != "Europe/Paris" {
		t.Fatalf("expected Europe/Paris from yaml, got %s", cfg.Scheduling.DefaultTimezone)
	}
	if cfg.Audit.RetentionEntries != 42 {
		t.Fatalf("expected 42 from yaml, got %d", cfg.Audit.RetentionEntries)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default level to fill in, got %s", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad timezone", env: map[string]string{"ZONECAL_DEFAULT_TIMEZONE": "Mars/Olympus"}},
		{name: "bad level", env: map[string]string{"ZONECAL_LOG_LEVEL": "loud"}},
		{name: "bad format", env: map[string]string{"ZONECAL_LOG_FORMAT": "xml"}},
		{name: "negative retention", env: map[string]string{"ZONECAL_AUDIT_RETENTION": "-1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
