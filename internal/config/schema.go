// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for recall.
package config

import (
	sqlitestore "github.com/tablemind/recall/modules/memory/sqlite"
	"github.com/tablemind/recall/modules/provider/openai"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Store configures the SQLite fact store.
	Store sqlitestore.Config `yaml:"store"`

	// Memory tunes injection behavior.
	Memory MemoryConfig `yaml:"memory"`

	// Provider configures the completion endpoint used for extraction.
	Provider openai.Config `yaml:"provider"`

	// Gateway configures the admin HTTP server. Disabled when listen is
	// empty.
	Gateway GatewayConfig `yaml:"gateway"`

	// Maintenance configures the periodic maintenance job.
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Telemetry configures trace export. Disabled when otlp_endpoint is
	// empty.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// MemoryConfig tunes how facts are injected into the system context.
type MemoryConfig struct {
	// InjectionLimit caps the facts rendered per turn. Defaults to 15;
	// values above 15 are rejected.
	InjectionLimit int `yaml:"injection_limit"`

	// TokenBudget bounds the injected block by estimated tokens.
	// Zero disables the budget.
	TokenBudget int `yaml:"token_budget"`

	// CharsPerToken tunes the token estimator. Defaults to 4.
	CharsPerToken float64 `yaml:"chars_per_token"`
}

// GatewayConfig configures the admin HTTP server.
type GatewayConfig struct {
	// Listen is the address to bind, e.g. "127.0.0.1:8787".
	Listen string `yaml:"listen"`

	// AuthToken protects the /api routes with bearer auth. Health and
	// metrics stay open.
	AuthToken string `yaml:"auth_token"`
}

// MaintenanceConfig configures the periodic maintenance job.
type MaintenanceConfig struct {
	// Schedule is a cron expression. Defaults to hourly.
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	// OTLPEndpoint is the collector endpoint, e.g. "localhost:4318".
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// ServiceName overrides the reported service name. Defaults to
	// "recall".
	ServiceName string `yaml:"service_name"`

	// Insecure uses plain HTTP to the collector. Set for local collectors
	// without TLS.
	Insecure bool `yaml:"insecure"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is one of text, json. Defaults to text.
	Format string `yaml:"format"`
}
