package injector

import (
	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/conf"
	"github.com/lk2023060901/offer-sourcing/internal/data"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/biz"
	sourcingdata "github.com/lk2023060901/offer-sourcing/internal/sourcing/data"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/embedding"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/executor"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/health"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/provider"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/scorer"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/vendor"
)

// Data layer helpers

func provideData(config *conf.Config, log *logger.Logger) (*data.Data, func(), error) {
	return data.NewData(config, log)
}

// provideHealthStore shares health through Redis when it is enabled,
// falling back to process memory on Redis errors.
func provideHealthStore(config *conf.Config, d *data.Data, log *logger.Logger) health.Store {
	policy := config.Sourcing.Health
	memory := health.NewMemoryStore(policy)
	if d.RedisClient == nil {
		return memory
	}
	return sourcingdata.NewFallbackStore(sourcingdata.NewRedisHealthStore(d.RedisClient, policy, log), memory, log)
}

// Source providers

func provideSources(config *conf.Config, log *logger.Logger) ([]provider.Source, error) {
	sources, err := provider.NewFactory(log).CreateAll(config.Providers)
	if err != nil {
		return nil, err
	}
	for _, s := range sources {
		log.Info("source registered", logger.Source(string(s.ID())), zap.Int("tier", s.Tier()))
	}
	return sources, nil
}

func provideExecutor(config *conf.Config, log *logger.Logger) *executor.Executor {
	return executor.New(config.Sourcing.CallTimeout, config.Sourcing.RetryBackoff, log)
}

func provideScorer(config *conf.Config, sources []provider.Source) *scorer.Scorer {
	tiers := make(map[types.SourceID]int, len(sources))
	for _, s := range sources {
		tiers[s.ID()] = s.Tier()
	}
	return scorer.New(config.Sourcing.Scoring, tiers)
}

// Vendor directory providers

// provideEmbedder returns nil when the vendor directory is disabled
func provideEmbedder(config *conf.Config, d *data.Data, log *logger.Logger) (embedding.Embedder, error) {
	if d.MilvusClient == nil {
		return nil, nil
	}
	cfg := config.Embedding.OpenAIEmbedderConfig
	base, err := embedding.NewOpenAIEmbedder(&cfg, log)
	if err != nil {
		return nil, err
	}
	if d.RedisClient == nil {
		return base, nil
	}
	cacheCfg := config.Embedding.Cache
	if cacheCfg.Prefix != "" {
		cacheCfg.Prefix = d.RedisClient.Key(cacheCfg.Prefix)
	}
	return embedding.NewCacheEmbedder(base, d.RedisClient, &cacheCfg, log), nil
}

// provideVendorMatcher returns a nil interface when there is no embedder
func provideVendorMatcher(config *conf.Config, d *data.Data, embedder embedding.Embedder, log *logger.Logger) biz.VendorMatcher {
	if embedder == nil || d.MilvusClient == nil {
		return nil
	}
	index := sourcingdata.NewMilvusVendorIndex(d.MilvusClient, config.Milvus.Index, log)
	return vendor.NewMatcher(embedder, index, config.Sourcing.Vendor, log)
}

func provideAggregator(
	config *conf.Config,
	sources []provider.Source,
	vendors biz.VendorMatcher,
	store health.Store,
	exec *executor.Executor,
	sc *scorer.Scorer,
	log *logger.Logger,
) *biz.Aggregator {
	return biz.NewAggregator(sources, vendors, store, exec, sc, config.Sourcing.Filter, config.Sourcing.Options(), log)
}
