// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingRequiredConfig indicates a required configuration value was not set
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// ProductionValidator performs strict validation for production environments
type ProductionValidator struct{}

// Validate performs production-specific validation
func (v *ProductionValidator) Validate(cfg *Config) error {
	// Check for placeholder values
	if cfg.Database.Password == "" || strings.Contains(cfg.Database.Password, "MISSING_") {
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	}
	if cfg.Database.Password == "pos_dev_2026" {
		return fmt.Errorf("default database password cannot be used in production")
	}

	// Ensure secure defaults in production
	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("database SSL must be enabled in production")
	}

	if !cfg.Security.SecureHeaders {
		return fmt.Errorf("secure headers must be enabled in production")
	}

	if len(cfg.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed origins must be configured in production")
	}
	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}

	// Storage credentials must not be the MinIO development defaults
	if cfg.Storage.AccessKeyID == "minioadmin" {
		return fmt.Errorf("default storage credentials cannot be used in production")
	}

	// Ensure proper TLS configuration
	if cfg.Server.TLSEnabled {
		if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
			return fmt.Errorf("TLS cert and key files must be provided when TLS is enabled")
		}
	}

	return nil
}
