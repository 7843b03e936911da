package milvus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "missing address", cfg: &Config{}, wantErr: true},
		{name: "api key with password", cfg: &Config{Address: "x:19530", APIKey: "k", Username: "u", Password: "p"}, wantErr: true},
		{name: "negative retries", cfg: &Config{Address: "x:19530", MaxRetries: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_String_HidesSecrets(t *testing.T) {
	cfg := &Config{Address: "x:19530", Username: "root", Password: "Milvus"}
	assert.NotContains(t, cfg.String(), "Milvus")
	assert.Contains(t, cfg.String(), "***")
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsTimeout(errors.New("rpc error: context deadline exceeded")))
	assert.True(t, IsConnectionError(errors.New("dial tcp 127.0.0.1:19530: connection refused")))
	assert.False(t, isRetryable(errors.New("collection not found")))

	wrapped := WrapError("Search", ErrInvalidVectorData, "vendors")
	assert.ErrorIs(t, wrapped, ErrInvalidVectorData)
	assert.Contains(t, wrapped.Error(), "collection=vendors")
}

func TestExecWithRetry(t *testing.T) {
	c := &Client{
		cfg:    &Config{MaxRetries: 2, RetryDelay: time.Millisecond, RequestTimeout: time.Second},
		logger: logger.NewNop(),
	}

	calls := 0
	err := c.execWithRetry(context.Background(), "Search", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = c.execWithRetry(context.Background(), "Search", func(ctx context.Context) error {
		calls++
		return errors.New("collection not found")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSearch_Validation(t *testing.T) {
	c := &Client{cfg: DefaultConfig(), logger: logger.NewNop()}
	ctx := context.Background()

	_, err := c.Search(ctx, "", []float32{1}, "embedding", 5, nil)
	assert.ErrorIs(t, err, ErrInvalidCollectionName)
	_, err = c.Search(ctx, "vendors", []float32{1}, "", 5, nil)
	assert.ErrorIs(t, err, ErrInvalidFieldName)
	_, err = c.Search(ctx, "vendors", nil, "embedding", 5, nil)
	assert.ErrorIs(t, err, ErrInvalidVectorData)

	c.closed = true
	_, err = c.Search(ctx, "vendors", []float32{1}, "embedding", 5, nil)
	assert.ErrorIs(t, err, ErrClientClosed)
}
