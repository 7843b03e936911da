package milvus

import (
	"context"
	"sync"
	"time"

	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
)

// Client wraps the Milvus SDK client
type Client struct {
	cfg    *Config
	client *milvusclient.Client
	logger *logger.Logger
	mu     sync.RWMutex
	closed bool
}

// New connects to Milvus
func New(ctx context.Context, cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapError("New", err, "")
	}
	if log == nil {
		log = logger.L()
	}
	cfg.SetDefaults()

	clientCfg := &milvusclient.ClientConfig{
		Address: cfg.Address,
		DBName:  cfg.Database,
	}
	if cfg.Username != "" && cfg.Password != "" {
		clientCfg.Username = cfg.Username
		clientCfg.Password = cfg.Password
	}
	if cfg.APIKey != "" {
		clientCfg.APIKey = cfg.APIKey
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	client, err := milvusclient.New(dialCtx, clientCfg)
	if err != nil {
		return nil, WrapError("New", err, "")
	}

	log.Info("milvus client created", zap.String("address", cfg.Address), zap.String("database", cfg.Database))
	return &Client{cfg: cfg, client: client, logger: log}, nil
}

// Close closes the connection
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	c.closed = true
	if err := c.client.Close(ctx); err != nil {
		c.logger.Error("failed to close milvus client", zap.Error(err))
		return WrapError("Close", err, "")
	}
	return nil
}

// Ping checks the connection by listing collections
func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	if _, err := c.client.ListCollections(ctx, milvusclient.NewListCollectionOption()); err != nil {
		return WrapError("Ping", err, "")
	}
	return nil
}

// execWithRetry runs fn under the request timeout, retrying timeouts and
// connection failures up to MaxRetries times
func (c *Client) execWithRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for i := 0; i <= c.cfg.MaxRetries; i++ {
		if i > 0 {
			c.logger.Warn("retrying milvus operation",
				zap.String("operation", op),
				zap.Int("attempt", i),
				zap.Error(err))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		err = fn(reqCtx)
		cancel()
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}
