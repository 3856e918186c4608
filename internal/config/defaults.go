package config

import "github.com/tablemind/recall/internal/memory"

// Default values for optional sections.
const (
	defaultSchedule      = "@hourly"
	defaultServiceName   = "recall"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultCharsPerToken = 4.0
)

func (c *Config) applyDefaults() {
	if c.Memory.InjectionLimit == 0 {
		c.Memory.InjectionLimit = memory.DefaultInjectionLimit
	}
	if c.Memory.CharsPerToken == 0 {
		c.Memory.CharsPerToken = defaultCharsPerToken
	}
	if c.Maintenance.Schedule == "" {
		c.Maintenance.Schedule = defaultSchedule
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = defaultServiceName
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
