package users

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/memtensor/userapi/pkg/errors"
)

// Config contains the settings of the users package
type Config struct {
	// Database settings
	DatabaseType   string        `json:"database_type" yaml:"database_type"`
	DatabaseURL    string        `json:"database_url" yaml:"database_url"`
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout"`

	// Token settings
	JWTSecret string        `json:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl" yaml:"token_ttl"`

	// Cleanup settings
	CleanupSchedule string        `json:"cleanup_schedule" yaml:"cleanup_schedule"`
	CleanupMaxAge   time.Duration `json:"cleanup_max_age" yaml:"cleanup_max_age"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DatabaseType:    "sqlite",
		DatabaseURL:     "./data/users.db",
		ConnectTimeout:  30 * time.Second,
		TokenTTL:        time.Hour,
		CleanupSchedule: "0 0 * * *",
		CleanupMaxAge:   time.Hour,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.DatabaseType {
	case "sqlite", "postgres":
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported database type: %s", c.DatabaseType))
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return apperrors.NewValidationError("database URL is required")
	}

	if c.JWTSecret == "" {
		return apperrors.NewValidationError("JWT secret is required")
	}

	if c.TokenTTL <= 0 {
		return apperrors.NewValidationError("token TTL must be positive")
	}

	if c.CleanupMaxAge <= 0 {
		return apperrors.NewValidationError("cleanup max age must be positive")
	}

	return nil
}
