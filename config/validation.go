package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

var supportedLocales = map[string]bool{
	"de_DE": true,
	"en_US": true,
	"en_GB": true,
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs ValidationErrors

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			errs = append(errs, ValidationError{"DB_HOST", "is required for postgres"})
		}
		if cfg.DBName == "" {
			errs = append(errs, ValidationError{"DB_NAME", "is required for postgres"})
		}
		if cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", "is required for postgres"})
		}
	case "sqlite":
		if env == Production {
			errs = append(errs, ValidationError{"DB_DRIVER", "sqlite is not allowed in production"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "is required"})
	}

	if _, err := time.LoadLocation(cfg.HistoryTimezone); err != nil {
		errs = append(errs, ValidationError{"HISTORY_TIMEZONE", err.Error()})
	}
	if !supportedLocales[cfg.HistoryLocale] {
		errs = append(errs, ValidationError{"HISTORY_LOCALE", fmt.Sprintf("unsupported locale %q", cfg.HistoryLocale)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
