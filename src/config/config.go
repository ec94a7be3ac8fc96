package config

import (
	"fmt"
	"os"
	"strings"

	"ipo-wizard/src/charges"
	"ipo-wizard/src/models"
	"ipo-wizard/src/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the YAML file.
const (
	EnvDBConnectionString = "IPO_DB_CONNECTION_STRING"
	EnvGatewayAPIKey      = "IPO_GATEWAY_API_KEY"
	EnvLogLevel           = "IPO_LOG_LEVEL"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file. A .env file in the
// working directory, if present, is loaded into the environment first.
func NewConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()
	config.applyEnv()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DraftRetentionDays == 0 {
		c.Storage.DraftRetentionDays = utils.DefaultDraftRetentionDays
	}
	if c.Storage.RetentionSchedule == "" {
		c.Storage.RetentionSchedule = utils.DefaultRetentionSchedule
	}
	if c.Session.TTLMinutes == 0 {
		c.Session.TTLMinutes = utils.DefaultSessionTTLMinutes
	}
	if c.Session.SweepSchedule == "" {
		c.Session.SweepSchedule = utils.DefaultSweepSchedule
	}
	if c.Catalog.Exchange == "" {
		c.Catalog.Exchange = "NSE"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBConnectionString); v != "" {
		c.Storage.DBConnectionString = v
	}
	if v := os.Getenv(EnvGatewayAPIKey); v != "" {
		c.Catalog.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToUpper(v)
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535 || c.GrpcPort == c.Port) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres (set %s)", EnvDBConnectionString)
		}
	default:
		return fmt.Errorf("unsupported database type %q", c.Storage.DBType)
	}
	if c.Storage.DraftRetentionDays < 0 {
		return fmt.Errorf("draft retention days cannot be negative")
	}

	// Catalog
	switch c.Catalog.Type {
	case "file":
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog path cannot be empty for the file catalog")
		}
	case "gateway":
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog base url cannot be empty for the gateway catalog")
		}
	default:
		return fmt.Errorf("unsupported catalog type %q", c.Catalog.Type)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Session
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("session ttl must be greater than 0")
	}

	// Charges
	if _, err := charges.RatesFromConfig(c.Charges); err != nil {
		return err
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
