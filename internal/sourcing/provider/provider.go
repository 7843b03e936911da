package provider

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/currency"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// Source is one external offer source. Adding a source means adding one
// implementation of this interface and registering it with the Factory.
type Source interface {
	// ID returns the source ID
	ID() types.SourceID

	// Name returns the display name
	Name() string

	// Tier returns the trust tier used for tie-breaking; higher is more trusted
	Tier() int

	// BuildQuery maps an intent to source-specific parameters. It does no I/O.
	BuildQuery(intent *types.SearchIntent) (*types.ProviderQuery, error)

	// Fetch performs exactly one call against the source. Failures are
	// returned as *types.ProviderError.
	Fetch(ctx context.Context, query *types.ProviderQuery) (*types.RawProviderResult, error)

	// Normalize converts a raw payload into canonical offers
	Normalize(raw *types.RawProviderResult) ([]*types.NormalizedOffer, error)
}

// BaseProvider provides common functionality for all sources
type BaseProvider struct {
	config     *types.ProviderConfig
	httpClient *http.Client
	logger     *logger.Logger
	converter  *currency.Converter

	mu       sync.Mutex
	apiKeys  []string // comma-separated keys are rotated per call
	keyIndex int
}

// NewBaseProvider creates a new base provider
func NewBaseProvider(config *types.ProviderConfig, log *logger.Logger) *BaseProvider {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.L()
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var apiKeys []string
	if config.APIKey != "" {
		for _, k := range strings.Split(config.APIKey, ",") {
			if k = strings.TrimSpace(k); k != "" {
				apiKeys = append(apiKeys, k)
			}
		}
	}

	return &BaseProvider{
		config:     config,
		httpClient: httpClient,
		logger:     log.Named(string(config.ID)),
		converter:  currency.NewConverter(nil),
		apiKeys:    apiKeys,
	}
}

// ID returns the source ID
func (b *BaseProvider) ID() types.SourceID {
	return b.config.ID
}

// Name returns the display name
func (b *BaseProvider) Name() string {
	return b.config.Name
}

// Tier returns the configured trust tier
func (b *BaseProvider) Tier() int {
	return b.config.Tier
}

// Config returns the source configuration
func (b *BaseProvider) Config() *types.ProviderConfig {
	return b.config
}

// HTTPClient returns the HTTP client
func (b *BaseProvider) HTTPClient() *http.Client {
	return b.httpClient
}

// SetHTTPClient replaces the HTTP client
func (b *BaseProvider) SetHTTPClient(c *http.Client) {
	b.httpClient = c
}

// APIKey returns the next API key in rotation
func (b *BaseProvider) APIKey() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.apiKeys) == 0 {
		return ""
	}
	key := b.apiKeys[b.keyIndex]
	b.keyIndex = (b.keyIndex + 1) % len(b.apiKeys)
	return key
}

// DefaultHeaders returns headers sent with every request
func (b *BaseProvider) DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":     "application/json",
		"User-Agent": "offer-sourcing/1.0",
	}
}

// newQuery starts a ProviderQuery for this source
func (b *BaseProvider) newQuery(contract string) *types.ProviderQuery {
	return &types.ProviderQuery{
		Source:          b.config.ID,
		Params:          make(map[string]string),
		ContractVersion: contract,
	}
}

// newRaw wraps a payload into a RawProviderResult
func (b *BaseProvider) newRaw(payload []byte) *types.RawProviderResult {
	return &types.RawProviderResult{
		ID:        uuid.NewString(),
		Source:    b.config.ID,
		Payload:   payload,
		FetchedAt: time.Now(),
	}
}
