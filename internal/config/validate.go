package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/tablemind/recall/internal/memory"
)

// Validate checks the structural validity of a Config. All problems are
// reported at once via errors.Join.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if err := cfg.Store.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := cfg.Provider.Validate(); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, validateMemory(cfg.Memory)...)
	errs = append(errs, validateMaintenance(cfg.Maintenance)...)
	errs = append(errs, validateLogging(cfg.Logging)...)

	return errors.Join(errs...)
}

func validateMemory(mc MemoryConfig) []error {
	var errs []error
	if mc.InjectionLimit < 0 || mc.InjectionLimit > memory.DefaultInjectionLimit {
		errs = append(errs, fmt.Errorf("config: memory.injection_limit must be between 1 and %d, got %d",
			memory.DefaultInjectionLimit, mc.InjectionLimit))
	}
	if mc.TokenBudget < 0 {
		errs = append(errs, fmt.Errorf("config: memory.token_budget must not be negative, got %d", mc.TokenBudget))
	}
	if mc.CharsPerToken < 0 {
		errs = append(errs, fmt.Errorf("config: memory.chars_per_token must not be negative, got %v", mc.CharsPerToken))
	}
	return errs
}

func validateMaintenance(mc MaintenanceConfig) []error {
	if mc.Schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(mc.Schedule); err != nil {
		return []error{fmt.Errorf("config: maintenance.schedule: %w", err)}
	}
	return nil
}

func validateLogging(lc LoggingConfig) []error {
	var errs []error
	switch lc.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: logging.level must be one of debug, info, warn, error; got %q", lc.Level))
	}
	switch lc.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: logging.format must be text or json, got %q", lc.Format))
	}
	return errs
}
