// Package config loads the host-side settings askit's demo host and
// store backends need: central channel sizing, observability endpoint,
// and the flow store DSN. It is unrelated to askit.Config, the
// per-agent-instance configuration defined by the core package.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// HostConfig is the top-level TOML document shape.
type HostConfig struct {
	Kernel   KernelConfig   `toml:"kernel"`
	Board    BoardConfig    `toml:"board"`
	Observer ObserverConfig `toml:"observer"`
	Store    StoreConfig    `toml:"store"`
}

// KernelConfig holds kernel sizing. The demo host passes CentralCapacity
// to askit.WithCentralCapacity. MailboxCapacity and NativeThreadByName are
// loaded but nothing reads them; cooperative mailboxes always hold 32
// messages.
type KernelConfig struct {
	CentralCapacity    int  `toml:"central_capacity"`
	MailboxCapacity    int  `toml:"mailbox_capacity"`
	NativeThreadByName bool `toml:"native_thread_by_name"`
}

// BoardConfig is reserved for future board fan-out tuning; unused today.
type BoardConfig struct {
	SubscriberCapacity int `toml:"subscriber_capacity"`
}

// ObserverConfig holds the OTLP collector settings. observer.Init does not
// read it; the exporters take their settings from the standard OTEL
// environment variables.
type ObserverConfig struct {
	Enabled         bool   `toml:"enabled"`
	OTLPEndpoint    string `toml:"otlp_endpoint"`
	ServiceName     string `toml:"service_name"`
}

// StoreConfig selects and configures a FlowStore backend.
type StoreConfig struct {
	Driver     string `toml:"driver"` // "sqlite" or "postgres"
	SQLitePath string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

// Default returns a HostConfig with every field at its documented
// default (§4.2/§4.3 defaults: central capacity 4096, mailbox capacity
// 32).
func Default() HostConfig {
	return HostConfig{
		Kernel: KernelConfig{
			CentralCapacity: 4096,
			MailboxCapacity: 32,
		},
		Observer: ObserverConfig{
			ServiceName: "askit",
		},
		Store: StoreConfig{
			Driver:     "sqlite",
			SQLitePath: "askit.db",
		},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins). A
// missing or unparseable file at path is silent; defaults stand.
func Load(path string) HostConfig {
	cfg := Default()

	if path == "" {
		path = "askit.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("ASKIT_OTLP_ENDPOINT"); v != "" {
		cfg.Observer.OTLPEndpoint = v
	}
	if v := os.Getenv("ASKIT_OBSERVER_SERVICE_NAME"); v != "" {
		cfg.Observer.ServiceName = v
	}
	if os.Getenv("ASKIT_OBSERVER_ENABLED") == "true" || os.Getenv("ASKIT_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}
	if v := os.Getenv("ASKIT_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("ASKIT_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("ASKIT_POSTGRES_DSN"); v != "" {
		cfg.Store.PostgresDSN = v
	}

	if cfg.Kernel.CentralCapacity <= 0 {
		cfg.Kernel.CentralCapacity = 4096
	}
	if cfg.Kernel.MailboxCapacity <= 0 {
		cfg.Kernel.MailboxCapacity = 32
	}

	return cfg
}
