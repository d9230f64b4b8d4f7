package config

import (
	"fmt"
	"os"

	"tokenfeed/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
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

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills optional tuning knobs that were omitted from the file
func (c *Config) applyDefaults() {
	if c.Feed.ReconnectIntervalSeconds <= 0 {
		c.Feed.ReconnectIntervalSeconds = 5
	}
	if c.Feed.MaxReconnectAttempts <= 0 {
		c.Feed.MaxReconnectAttempts = 10
	}
	if c.Feed.LivenessIntervalSeconds <= 0 {
		c.Feed.LivenessIntervalSeconds = 30
	}
	if c.Feed.HandshakeTimeoutSeconds <= 0 {
		c.Feed.HandshakeTimeoutSeconds = 10
	}
	if c.Ledger.SignatureLimit <= 0 {
		c.Ledger.SignatureLimit = 100
	}
	if c.Ledger.ChunkSize <= 0 {
		c.Ledger.ChunkSize = 5
	}
	if c.Ledger.ChunkDelayMs <= 0 {
		c.Ledger.ChunkDelayMs = 500
	}
	if c.Ledger.ChunkConcurrency <= 0 {
		c.Ledger.ChunkConcurrency = 3
	}
	if c.Storage.RetentionDays <= 0 {
		c.Storage.RetentionDays = 7
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Feed configuration
	if c.Feed.Endpoint == "" {
		return fmt.Errorf("feed endpoint cannot be empty")
	}

	// Validate Ledger configuration
	if c.Ledger.RPCEndpoint == "" {
		return fmt.Errorf("ledger rpc endpoint cannot be empty")
	}

	// Validate Storage configuration
	if c.Storage.Enabled {
		if c.Storage.DBType == "" {
			return fmt.Errorf("database type cannot be empty")
		}
		if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
		if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	}

	// Validate Relay configuration
	if c.Relay.Enabled {
		if len(c.Relay.Brokers) == 0 {
			return fmt.Errorf("relay requires at least one broker")
		}
		if c.Relay.Topic == "" {
			return fmt.Errorf("relay topic cannot be empty")
		}
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
