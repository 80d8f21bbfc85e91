package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Kernel.CentralCapacity != 4096 {
		t.Errorf("expected central capacity 4096, got %d", cfg.Kernel.CentralCapacity)
	}
	if cfg.Kernel.MailboxCapacity != 32 {
		t.Errorf("expected mailbox capacity 32, got %d", cfg.Kernel.MailboxCapacity)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.Store.Driver)
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[kernel]
central_capacity = 8192

[store]
driver = "postgres"
postgres_dsn = "postgres://localhost/askit"
`), 0644)

	cfg := Load(path)
	if cfg.Kernel.CentralCapacity != 8192 {
		t.Errorf("expected 8192, got %d", cfg.Kernel.CentralCapacity)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.Store.Driver)
	}
	if cfg.Store.PostgresDSN != "postgres://localhost/askit" {
		t.Errorf("expected dsn to be set, got %s", cfg.Store.PostgresDSN)
	}
	// Defaults preserved for untouched sections.
	if cfg.Kernel.MailboxCapacity != 32 {
		t.Errorf("default mailbox capacity should be preserved, got %d", cfg.Kernel.MailboxCapacity)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ASKIT_OTLP_ENDPOINT", "http://collector:4318")
	t.Setenv("ASKIT_OBSERVER_ENABLED", "true")

	cfg := Load("/nonexistent/path.toml")
	if cfg.Observer.OTLPEndpoint != "http://collector:4318" {
		t.Errorf("expected endpoint to be set, got %s", cfg.Observer.OTLPEndpoint)
	}
	if !cfg.Observer.Enabled {
		t.Error("expected observer enabled from env")
	}
}

func TestZeroCapacitiesFallBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[kernel]
central_capacity = 0
`), 0644)

	cfg := Load(path)
	if cfg.Kernel.CentralCapacity != 4096 {
		t.Errorf("expected fallback to 4096, got %d", cfg.Kernel.CentralCapacity)
	}
}
