package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: ipo-wizard
host: 127.0.0.1
port: 8080
grpc_port: 50051
log_format: json
storage:
  db_type: sqlite
  db_path: data/wizard.db
catalog:
  type: file
  path: config/catalog.yaml
network:
  timeout: 10
  retries: 2
charges:
  brokerage: "0.002"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfigAppliesDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 30, cfg.Storage.DraftRetentionDays)
	assert.Equal(t, 30, cfg.Session.TTLMinutes)
	assert.Equal(t, "@every 1m", cfg.Session.SweepSchedule)
	assert.Equal(t, "NSE", cfg.Catalog.Exchange)
	assert.Equal(t, "0.002", cfg.Charges.Brokerage)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvGatewayAPIKey, "secret")

	cfg, err := NewConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "secret", cfg.Catalog.APIKey)
}

func TestValidateRejects(t *testing.T) {
	base, err := NewConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty name", func(c *Config) { c.Name = "" }},
		{"privileged port", func(c *Config) { c.Port = 80 }},
		{"grpc clashes with http", func(c *Config) { c.GrpcPort = c.Port }},
		{"unknown db", func(c *Config) { c.Storage.DBType = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Storage.DBType = "postgres" }},
		{"gateway without url", func(c *Config) { c.Catalog.Type = "gateway" }},
		{"zero timeout", func(c *Config) { c.Network.RequestTimeout = 0 }},
		{"zero ttl", func(c *Config) { c.Session.TTLMinutes = 0 }},
		{"negative rate", func(c *Config) { c.Charges.STT = "-0.001" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			copied := *base.MConfig
			c := &Config{MConfig: &copied}
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestPostgresDSNFromEnvironment(t *testing.T) {
	t.Setenv(EnvDBConnectionString, "postgres://wizard@localhost/wizard?sslmode=disable")
	body := sampleYAML + "\n"
	cfg, err := NewConfig(writeConfig(t, body))
	require.NoError(t, err)

	cfg.Storage.DBType = "postgres"
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(out))

	again, err := NewConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.MConfig, again.MConfig)
}

func TestMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestShippedDefaultConfigLoads(t *testing.T) {
	cfg, err := NewConfig("../../config/default.yaml")
	require.NoError(t, err)
	assert.Equal(t, "ipo-wizard", cfg.Name)
	assert.Equal(t, "file", cfg.Catalog.Type)
	assert.Equal(t, 30, cfg.Session.TTLMinutes)
	assert.Equal(t, "0.001", cfg.Charges.Brokerage)
}
