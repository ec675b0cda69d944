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
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("default addr = %s, want :8080", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Fatalf("default driver = %s, want sqlite3", cfg.Database.Driver)
	}
	if time.Duration(cfg.Timer.TickInterval) != time.Second {
		t.Fatalf("default tick = %s, want 1s", time.Duration(cfg.Timer.TickInterval))
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifetrack.yml")
	body := `
server:
  addr: ":9090"
database:
  driver: postgres
  dsn: "host=localhost dbname=lifetrack sslmode=disable"
timer:
  tick_interval: 2s
  clear_on_complete: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %s, want :9090", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("driver = %s, want postgres", cfg.Database.Driver)
	}
	if time.Duration(cfg.Timer.TickInterval) != 2*time.Second {
		t.Fatalf("tick = %s, want 2s", time.Duration(cfg.Timer.TickInterval))
	}
	if !cfg.Timer.ClearOnComplete {
		t.Fatalf("expected clear_on_complete to be set")
	}
	// Untouched sections keep their defaults.
	if cfg.Server.StaticDir != "web/dist" {
		t.Fatalf("static dir = %s, want default", cfg.Server.StaticDir)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
