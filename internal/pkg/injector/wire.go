//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"

	"github.com/lk2023060901/offer-sourcing/internal/conf"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/server"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/biz"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/service"
)

// ProviderSet is the Wire provider set for all dependencies
var ProviderSet = wire.NewSet(
	// Data layer
	dataProviderSet,

	// Pipeline
	sourcingProviderSet,

	// HTTP services
	httpServiceProviderSet,

	// Servers
	serverProviderSet,
)

// Data layer providers
var dataProviderSet = wire.NewSet(
	provideData,
	provideHealthStore,
)

// Pipeline providers
var sourcingProviderSet = wire.NewSet(
	provideSources,
	provideExecutor,
	provideScorer,
	provideEmbedder,
	provideVendorMatcher,
	provideAggregator,
)

// HTTP service providers
var httpServiceProviderSet = wire.NewSet(
	service.NewSourcingService,
	wire.Bind(new(service.Searcher), new(*biz.Aggregator)),
)

// Server providers
var serverProviderSet = wire.NewSet(
	server.NewHTTPServer,
)

// InitializeApp initializes the application with Wire
func InitializeApp(config *conf.Config, log *logger.Logger) (*App, func(), error) {
	wire.Build(ProviderSet, newApp)
	return nil, nil, nil
}

// InitializeAggregator builds the search pipeline alone, for one-shot use
func InitializeAggregator(config *conf.Config, log *logger.Logger) (*biz.Aggregator, func(), error) {
	wire.Build(dataProviderSet, sourcingProviderSet)
	return nil, nil, nil
}
