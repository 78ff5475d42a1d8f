// Package config provides configuration management for userapi
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/memtensor/userapi/pkg/users"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every setting the server and the seeding tool read at startup
type Config struct {
	Env               string   `mapstructure:"env" yaml:"env" validate:"required"`
	Port              int      `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
	JWTSecret         string   `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"required"`
	JWTExpiresIn      int      `mapstructure:"jwt_expires_in" yaml:"jwt_expires_in" validate:"gt=0"`
	DatabaseType      string   `mapstructure:"database_type" yaml:"database_type" validate:"oneof=sqlite postgres"`
	DatabaseURL       string   `mapstructure:"database_url" yaml:"database_url" validate:"required"`
	CookieMaxAge      int      `mapstructure:"cookie_max_age" yaml:"cookie_max_age" validate:"gt=0"`
	CleanupSchedule   string   `mapstructure:"token_cleanup_schedule" yaml:"token_cleanup_schedule" validate:"required"`
	CleanupMaxAge     int      `mapstructure:"token_cleanup_max_age" yaml:"token_cleanup_max_age" validate:"gt=0"`
	ProtectUserRoutes bool     `mapstructure:"protect_user_routes" yaml:"protect_user_routes"`
	LogLevel          string   `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogDir            string   `mapstructure:"log_dir" yaml:"log_dir"`
	CORSOrigins       []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// IsProduction reports whether the service runs with production hardening
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// TokenTTL is the lifetime embedded in signed tokens
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresIn) * time.Second
}

// CookieTTL is the max-age of the session cookie
func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.CookieMaxAge) * time.Second
}

// CleanupTTL is the age after which token rows are swept regardless of validity
func (c *Config) CleanupTTL() time.Duration {
	return time.Duration(c.CleanupMaxAge) * time.Second
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Users derives the settings of the users package
func (c *Config) Users() *users.Config {
	uc := users.DefaultConfig()
	uc.DatabaseType = c.DatabaseType
	uc.DatabaseURL = c.DatabaseURL
	uc.JWTSecret = c.JWTSecret
	uc.TokenTTL = c.TokenTTL()
	uc.CleanupSchedule = c.CleanupSchedule
	uc.CleanupMaxAge = c.CleanupTTL()
	return uc
}

// WriteYAML dumps the effective configuration with the signing secret masked
func (c *Config) WriteYAML(w io.Writer) error {
	redacted := *c
	if redacted.JWTSecret != "" {
		redacted.JWTSecret = "********"
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&redacted); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// Loader reads configuration from a .env file, the environment and an optional YAML/JSON file
type Loader struct {
	mu         sync.RWMutex
	v          *viper.Viper
	validator  *validator.Validate
	envFile    string
	configFile string
}

// NewLoader creates a loader. configFile may be empty.
func NewLoader(envFile, configFile string) *Loader {
	return &Loader{
		v:          viper.New(),
		validator:  validator.New(),
		envFile:    envFile,
		configFile: configFile,
	}
}

// Load loads configuration from the default .env file and the environment
func Load() (*Config, error) {
	return NewLoader(".env", "").Load()
}

// Load resolves, decodes and validates the configuration
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", l.envFile, err)
		}
	}

	setDefaults(l.v)
	if err := bindEnv(l.v); err != nil {
		return nil, err
	}

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return l.decode()
}

// Watch re-reads the config file whenever it changes and hands the result to callback.
// Watching stops being reported once ctx is done.
func (l *Loader) Watch(ctx context.Context, callback func(*Config, error)) error {
	if l.configFile == "" {
		return errors.New("no config file to watch")
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		l.mu.Lock()
		cfg, err := l.decode()
		l.mu.Unlock()
		callback(cfg, err)
	})
	l.v.WatchConfig()
	return nil
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)

	if err := l.validator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("port", 3000)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_expires_in", 3600)
	v.SetDefault("database_type", "sqlite")
	v.SetDefault("database_url", "./data/users.db")
	v.SetDefault("cookie_max_age", 3600)
	v.SetDefault("token_cleanup_schedule", "0 0 * * *")
	v.SetDefault("token_cleanup_max_age", 3600)
	v.SetDefault("protect_user_routes", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "./logs")
	v.SetDefault("cors_origins", "*")
}

// bindEnv maps each key to its upper-case variable. env accepts APP_ENV or NODE_ENV.
func bindEnv(v *viper.Viper) error {
	if err := v.BindEnv("env", "APP_ENV", "NODE_ENV"); err != nil {
		return fmt.Errorf("failed to bind env: %w", err)
	}
	for _, key := range []string{
		"port", "jwt_secret", "jwt_expires_in", "database_type", "database_url",
		"cookie_max_age", "token_cleanup_schedule", "token_cleanup_max_age",
		"protect_user_routes", "log_level", "log_dir", "cors_origins",
	} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// splitOrigins flattens comma separated entries and drops blanks
func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

