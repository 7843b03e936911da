package redis

import (
	"errors"
	"time"
)

// Config Redis configuration. One address means a standalone server;
// several addresses with MasterName mean sentinel; several without it, cluster.
type Config struct {
	Addrs      []string `mapstructure:"addrs" yaml:"addrs"`
	MasterName string   `mapstructure:"master_name" yaml:"master_name"`
	Username   string   `mapstructure:"username" yaml:"username"`
	Password   string   `mapstructure:"password" yaml:"password"`
	DB         int      `mapstructure:"db" yaml:"db"`

	// KeyPrefix namespaces every key written by this service
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`

	PoolSize     int           `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Addrs:        []string{"localhost:6379"},
		KeyPrefix:    "sourcing:",
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		MaxRetries:   1,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Addrs) == 0 {
		return errors.New("redis: at least one address is required")
	}
	for _, a := range c.Addrs {
		if a == "" {
			return errors.New("redis: empty address")
		}
	}
	if c.DB < 0 {
		return errors.New("redis: db must not be negative")
	}
	if c.PoolSize < 0 || c.MinIdleConns < 0 {
		return errors.New("redis: pool sizes must not be negative")
	}
	return nil
}
