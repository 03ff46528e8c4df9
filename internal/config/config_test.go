package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kennelcore/internal/blob"
	"kennelcore/internal/config"
	"kennelcore/internal/core"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("KENNEL_TEST_DSN", "postgres://kennel@db/kennel")
	path := writeFile(t, `
app:
  log_level: debug
  http:
    port: 9090
storage:
  driver: postgres
  postgres_dsn: ${KENNEL_TEST_DSN}
blob:
  driver: memory
backups:
  interval: 6h
`)
	cfg := config.NewDefaultConfig()
	if err := config.Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Address() != ":9090" {
		t.Fatalf("unexpected app config %+v", cfg.App)
	}
	if cfg.Storage.Driver != core.StoragePostgres || cfg.Storage.PostgresDSN != "postgres://kennel@db/kennel" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Blob.Driver != blob.DriverMemory || cfg.Backups.Interval != 6*time.Hour {
		t.Fatalf("unexpected blob or backup config %+v %+v", cfg.Blob, cfg.Backups)
	}
	if cfg.App.HTTP.ShutdownTimeout != 10*time.Second {
		t.Fatalf("defaults not kept for unset fields, got %s", cfg.App.HTTP.ShutdownTimeout)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"port":     "app:\n  http:\n    port: 70000\n",
		"postgres": "storage:\n  driver: postgres\n  postgres_dsn: \"\"\n",
		"blob":     "blob:\n  driver: ftp\n",
		"backups":  "backups:\n  interval: 5s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			err := config.Load(writeFile(t, body), config.NewDefaultConfig())
			if err == nil || !strings.Contains(err.Error(), "validation") {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoadOptionalWithoutFile(t *testing.T) {
	cfg := config.NewDefaultConfig()
	if err := config.LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), cfg); err != nil {
		t.Fatalf("missing file should keep defaults: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 || !cfg.Metrics.Enabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), cfg); err == nil {
		t.Fatalf("Load should require the file")
	}
}
