package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/milvus"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/redis"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/biz"
	sourcingdata "github.com/lk2023060901/offer-sourcing/internal/sourcing/data"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/embedding"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/executor"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/filter"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/health"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/scorer"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/vendor"
)

// EnvPrefix prefixes every environment override, e.g. SOURCING_SERVER_PORT
const EnvPrefix = "SOURCING"

var (
	ErrCallTimeoutTooLong = errors.New("sourcing: call timeout must be shorter than the search deadline")
	ErrInvalidThreshold   = errors.New("sourcing: vendor threshold must be in (0, 1]")
	ErrDuplicateProvider  = errors.New("providers: duplicate id")
	ErrMissingEmbedding   = errors.New("embedding: api key is required when milvus is enabled")
)

type Config struct {
	Server    ServerConfig           `mapstructure:"server"`
	Log       logger.Config          `mapstructure:"log"`
	Redis     RedisConfig            `mapstructure:"redis"`
	Milvus    MilvusConfig           `mapstructure:"milvus"`
	Embedding EmbeddingConfig        `mapstructure:"embedding"`
	Sourcing  SourcingConfig         `mapstructure:"sourcing"`
	Providers []types.ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig backs the shared health record and the embedding cache.
// When disabled, health is kept in process memory.
type RedisConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	redis.Config `mapstructure:",squash"`
}

// MilvusConfig backs the vendor directory. When disabled, no vendor
// matching takes place.
type MilvusConfig struct {
	Enabled       bool                           `mapstructure:"enabled"`
	milvus.Config `mapstructure:",squash"`
	Index         sourcingdata.VendorIndexConfig `mapstructure:"index"`
}

type EmbeddingConfig struct {
	embedding.OpenAIEmbedderConfig `mapstructure:",squash"`
	Cache                          embedding.CacheEmbedderConfig `mapstructure:"cache"`
}

// SourcingConfig bounds and tunes the search pipeline
type SourcingConfig struct {
	Deadline     time.Duration `mapstructure:"deadline"`
	Slack        time.Duration `mapstructure:"slack"`
	CallTimeout  time.Duration `mapstructure:"call_timeout"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	Scoring      scorer.Config `mapstructure:"scoring"`
	Vendor       vendor.Config `mapstructure:"vendor"`
	Health       health.Policy `mapstructure:"health"`
	Filter       filter.Config `mapstructure:"filter"`
}

// Options returns the per-search bounds for the aggregator
func (s SourcingConfig) Options() biz.Options {
	return biz.Options{
		Deadline:        s.Deadline,
		Slack:           s.Slack,
		VendorThreshold: s.Vendor.Threshold,
	}
}

// Validate rejects unusable weights, thresholds and a call timeout that
// does not fit inside the deadline.
func (s SourcingConfig) Validate() error {
	if err := s.Scoring.Weights.Validate(); err != nil {
		return fmt.Errorf("sourcing: %w", err)
	}
	if s.Deadline <= 0 || s.CallTimeout <= 0 || s.CallTimeout >= s.Deadline {
		return ErrCallTimeoutTooLong
	}
	if s.Vendor.Threshold <= 0 || s.Vendor.Threshold > 1 {
		return ErrInvalidThreshold
	}
	if s.Health.ErrorThreshold < 0 {
		return errors.New("sourcing: health error threshold must not be negative")
	}
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Log:    *logger.DefaultConfig(),
		Redis:  RedisConfig{Config: *redis.DefaultConfig()},
		Milvus: MilvusConfig{Config: *milvus.DefaultConfig(), Index: sourcingdata.DefaultVendorIndexConfig()},
		Embedding: EmbeddingConfig{
			OpenAIEmbedderConfig: embedding.OpenAIEmbedderConfig{Model: "text-embedding-3-small", Dimension: 1536},
			Cache:                embedding.CacheEmbedderConfig{TTL: 24 * time.Hour, Prefix: "embedding:"},
		},
		Sourcing: SourcingConfig{
			Deadline:     biz.DefaultDeadline,
			Slack:        biz.DefaultSlack,
			CallTimeout:  executor.DefaultCallTimeout,
			RetryBackoff: executor.DefaultRetryBackoff,
			Scoring:      scorer.DefaultConfig(),
			Vendor:       vendor.DefaultConfig(),
			Health:       health.DefaultPolicy(),
			Filter:       filter.Config{BlockSensitive: true},
		},
	}
}

// setDefaults registers scalar defaults so environment overrides reach
// keys that are absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	defaults := map[string]interface{}{
		"server.host":             d.Server.Host,
		"server.port":             d.Server.Port,
		"server.mode":             d.Server.Mode,
		"server.read_timeout":     d.Server.ReadTimeout,
		"server.write_timeout":    d.Server.WriteTimeout,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,

		"log.level":             d.Log.Level,
		"log.format":            d.Log.Format,
		"log.output":            d.Log.Output,
		"log.enable_caller":     d.Log.EnableCaller,
		"log.enable_stacktrace": d.Log.EnableStacktrace,
		"log.file.filename":     d.Log.File.Filename,
		"log.file.max_size":     d.Log.File.MaxSize,
		"log.file.max_age":      d.Log.File.MaxAge,
		"log.file.max_backups":  d.Log.File.MaxBackups,
		"log.file.compress":     d.Log.File.Compress,

		"redis.enabled":        d.Redis.Enabled,
		"redis.addrs":          d.Redis.Addrs,
		"redis.master_name":    d.Redis.MasterName,
		"redis.username":       d.Redis.Username,
		"redis.password":       d.Redis.Password,
		"redis.db":             d.Redis.DB,
		"redis.key_prefix":     d.Redis.KeyPrefix,
		"redis.pool_size":      d.Redis.PoolSize,
		"redis.min_idle_conns": d.Redis.MinIdleConns,
		"redis.dial_timeout":   d.Redis.DialTimeout,
		"redis.read_timeout":   d.Redis.ReadTimeout,
		"redis.write_timeout":  d.Redis.WriteTimeout,
		"redis.max_retries":    d.Redis.MaxRetries,

		"milvus.enabled":            d.Milvus.Enabled,
		"milvus.address":            d.Milvus.Address,
		"milvus.username":           d.Milvus.Username,
		"milvus.password":           d.Milvus.Password,
		"milvus.api_key":            d.Milvus.APIKey,
		"milvus.database":           d.Milvus.Database,
		"milvus.dial_timeout":       d.Milvus.DialTimeout,
		"milvus.request_timeout":    d.Milvus.RequestTimeout,
		"milvus.max_retries":        d.Milvus.MaxRetries,
		"milvus.retry_delay":        d.Milvus.RetryDelay,
		"milvus.index.collection":   d.Milvus.Index.Collection,
		"milvus.index.vector_field": d.Milvus.Index.VectorField,
		"milvus.index.filter":       d.Milvus.Index.Filter,

		"embedding.api_key":      d.Embedding.APIKey,
		"embedding.base_url":     d.Embedding.BaseURL,
		"embedding.model":        d.Embedding.Model,
		"embedding.dimension":    d.Embedding.Dimension,
		"embedding.cache.ttl":    d.Embedding.Cache.TTL,
		"embedding.cache.prefix": d.Embedding.Cache.Prefix,

		"sourcing.deadline":                   d.Sourcing.Deadline,
		"sourcing.slack":                      d.Sourcing.Slack,
		"sourcing.call_timeout":               d.Sourcing.CallTimeout,
		"sourcing.retry_backoff":              d.Sourcing.RetryBackoff,
		"sourcing.scoring.weights.price":      d.Sourcing.Scoring.Weights.Price,
		"sourcing.scoring.weights.relevance":  d.Sourcing.Scoring.Weights.Relevance,
		"sourcing.scoring.weights.quality":    d.Sourcing.Scoring.Weights.Quality,
		"sourcing.scoring.weights.diversity":  d.Sourcing.Scoring.Weights.Diversity,
		"sourcing.scoring.diversity_top_k":    d.Sourcing.Scoring.DiversityTopK,
		"sourcing.vendor.threshold":           d.Sourcing.Vendor.Threshold,
		"sourcing.vendor.top_k":               d.Sourcing.Vendor.TopK,
		"sourcing.health.rate_limit_cooldown": d.Sourcing.Health.RateLimitCooldown,
		"sourcing.health.exhausted_cooldown":  d.Sourcing.Health.ExhaustedCooldown,
		"sourcing.health.error_threshold":     d.Sourcing.Health.ErrorThreshold,
		"sourcing.health.error_cooldown":      d.Sourcing.Health.ErrorCooldown,
		"sourcing.health.budget_window":       d.Sourcing.Health.BudgetWindow,
		"sourcing.filter.block_sensitive":     d.Sourcing.Filter.BlockSensitive,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// LoadConfig reads path (when non-empty) over the defaults, then applies
// SOURCING_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.mergeBudgets()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// mergeBudgets copies per-provider call budgets into the health policy.
// An explicit health.budgets entry wins.
func (c *Config) mergeBudgets() {
	for _, p := range c.Providers {
		if p.CallBudget <= 0 {
			continue
		}
		if c.Sourcing.Health.Budgets == nil {
			c.Sourcing.Health.Budgets = make(map[types.SourceID]int)
		}
		if _, ok := c.Sourcing.Health.Budgets[p.ID]; !ok {
			c.Sourcing.Health.Budgets[p.ID] = p.CallBudget
		}
	}
}

// Validate checks every section that is in use
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Sourcing.Validate(); err != nil {
		return err
	}
	if c.Redis.Enabled {
		if err := c.Redis.Config.Validate(); err != nil {
			return err
		}
	}
	if c.Milvus.Enabled {
		if err := c.Milvus.Config.Validate(); err != nil {
			return err
		}
		if c.Embedding.APIKey == "" {
			return ErrMissingEmbedding
		}
	}

	seen := make(map[types.SourceID]struct{}, len(c.Providers))
	for i := range c.Providers {
		p := &c.Providers[i]
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.ID)
		}
		seen[p.ID] = struct{}{}
		if !p.Enabled {
			continue
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("providers[%d]: %w", i, err)
		}
	}
	return nil
}
