package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyDatabase, DefaultDatabase, "")
	fs.String(KeyFormat, "text", "")
	fs.Bool(KeyVerbose, false, "")
	fs.String(KeyLogLevel, "warn", "")
	fs.String(KeyLogFormat, "text", "")
	fs.Bool(KeyMetrics, false, "")
	fs.Int(KeyMaxBatch, 0, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.Verbose)
}

func TestLoad_EnvOverridesFlagDefault(t *testing.T) {
	t.Setenv("CONTACTOS_DB", "/tmp/from-env.db")
	t.Setenv("CONTACTOS_LOG_LEVEL", "debug")

	cfg, err := Load(newFlags())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.Database)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ExplicitFlagWins(t *testing.T) {
	t.Setenv("CONTACTOS_DB", "/tmp/from-env.db")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--db", "/tmp/from-flag.db", "--format", "json", "--max-batch", "10"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-flag.db", cfg.Database)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 10, cfg.MaxBatch)
}

func TestLoad_InvalidFormat(t *testing.T) {
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--format", "xml"}))

	_, err := Load(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidate(t *testing.T) {
	base := Config{Database: "x.db", Format: "yaml"}
	assert.NoError(t, base.Validate())

	empty := base
	empty.Database = " "
	assert.Error(t, empty.Validate())

	negative := base
	negative.MaxBatch = -1
	assert.Error(t, negative.Validate())
}
