package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// Constructor creates a source from its configuration
type Constructor func(config *types.ProviderConfig, log *logger.Logger) (Source, error)

// Factory creates sources by ID
type Factory struct {
	mu           sync.RWMutex
	constructors map[types.SourceID]Constructor
	logger       *logger.Logger
}

// NewFactory creates a factory with the built-in sources registered
func NewFactory(log *logger.Logger) *Factory {
	f := &Factory{
		constructors: make(map[types.SourceID]Constructor),
		logger:       log,
	}

	f.Register(types.SourceMarketplace, NewMarketplaceProvider)
	f.Register(types.SourceAuction, NewAuctionProvider)
	f.Register(types.SourceShopping, NewShoppingProvider)

	return f
}

// Register registers a source constructor
func (f *Factory) Register(id types.SourceID, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[id] = constructor
}

// Create validates config and creates the source
func (f *Factory) Create(config *types.ProviderConfig) (Source, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config for %s: %w", config.ID, err)
	}

	f.mu.RLock()
	constructor, ok := f.constructors[config.ID]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSourceNotFound, config.ID)
	}
	return constructor(config, f.logger)
}

// CreateAll creates every enabled source in configuration order
func (f *Factory) CreateAll(configs []types.ProviderConfig) ([]Source, error) {
	sources := make([]Source, 0, len(configs))
	for i := range configs {
		if !configs[i].Enabled {
			continue
		}
		s, err := f.Create(&configs[i])
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// ListSources returns registered source IDs
func (f *Factory) ListSources() []types.SourceID {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ids := make([]types.SourceID, 0, len(f.constructors))
	for id := range f.constructors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
