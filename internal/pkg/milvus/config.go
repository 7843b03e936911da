package milvus

import (
	"errors"
	"fmt"
	"time"
)

// Config represents the configuration for Milvus client
type Config struct {
	Address  string `mapstructure:"address"` // e.g. "localhost:19530"
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	APIKey   string `mapstructure:"api_key"` // Zilliz cloud
	Database string `mapstructure:"database"`

	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("milvus: address is required")
	}
	if c.APIKey != "" && (c.Username != "" || c.Password != "") {
		return errors.New("milvus: cannot use both API key and username/password authentication")
	}
	if c.DialTimeout < 0 || c.RequestTimeout < 0 || c.RetryDelay < 0 {
		return errors.New("milvus: timeouts must be non-negative")
	}
	if c.MaxRetries < 0 {
		return errors.New("milvus: max retries must be non-negative")
	}
	return nil
}

// SetDefaults fills unset fields
func (c *Config) SetDefaults() {
	if c.Database == "" {
		c.Database = "default"
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 3 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
}

// String hides credentials
func (c *Config) String() string {
	secret := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	return fmt.Sprintf("Config{Address: %s, Username: %s, Password: %s, APIKey: %s, Database: %s}",
		c.Address, c.Username, secret(c.Password), secret(c.APIKey), c.Database)
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	c := &Config{Address: "localhost:19530"}
	c.SetDefaults()
	return c
}
