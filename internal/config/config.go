// Package config resolves runtime settings from flags, environment and
// .env files.
//
// Precedence (highest first): explicitly set flag, CONTACTOS_* environment
// variable (including values loaded from .env / .env.local), flag default.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "contactos"

// DefaultDatabase is the database path used when none is configured.
const DefaultDatabase = "contactos.db"

// Keys shared between flag names and environment variables
// (CONTACTOS_DB, CONTACTOS_LOG_LEVEL, ...).
const (
	KeyDatabase  = "db"
	KeyFormat    = "format"
	KeyVerbose   = "verbose"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
	KeyMetrics   = "metrics"
	KeyMaxBatch  = "max-batch"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// Config is the resolved configuration for one CLI invocation.
type Config struct {
	Database  string
	Format    string
	Verbose   bool
	LogLevel  string
	LogFormat string
	Metrics   bool
	MaxBatch  int
}

// Load resolves the configuration. flags may be nil, in which case only the
// environment and defaults apply.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDatabase, DefaultDatabase)
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
	}

	cfg := &Config{
		Database:  v.GetString(KeyDatabase),
		Format:    v.GetString(KeyFormat),
		Verbose:   v.GetBool(KeyVerbose),
		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),
		Metrics:   v.GetBool(KeyMetrics),
		MaxBatch:  v.GetInt(KeyMaxBatch),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if !isValidFormat(c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, ValidFormats)
	}
	if c.MaxBatch < 0 {
		return fmt.Errorf("max batch must not be negative, got %d", c.MaxBatch)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
