package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
)

// Cache is the key-value store behind CacheEmbedder. *redis.Client
// satisfies it.
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CacheEmbedderConfig configures the embedding cache
type CacheEmbedderConfig struct {
	TTL    time.Duration `mapstructure:"ttl"`
	Prefix string        `mapstructure:"prefix"`
}

// CacheEmbedder decorates an Embedder with a cache keyed by model and text hash
type CacheEmbedder struct {
	embedder Embedder
	cache    Cache
	ttl      time.Duration
	prefix   string
	logger   *logger.Logger
}

// NewCacheEmbedder creates a caching embedder. A nil cache disables caching.
func NewCacheEmbedder(embedder Embedder, cache Cache, cfg *CacheEmbedderConfig, lgr *logger.Logger) *CacheEmbedder {
	ttl, prefix := 24*time.Hour, "sourcing:embedding:"
	if cfg != nil {
		if cfg.TTL > 0 {
			ttl = cfg.TTL
		}
		if cfg.Prefix != "" {
			prefix = cfg.Prefix
		}
	}
	log := lgr
	if log == nil {
		log = logger.L()
	}

	return &CacheEmbedder{
		embedder: embedder,
		cache:    cache,
		ttl:      ttl,
		prefix:   prefix,
		logger:   log.Named("embedding_cache"),
	}
}

// Embed implements Embedder
func (e *CacheEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// BatchEmbed implements Embedder. Only cache misses reach the backend.
func (e *CacheEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	var missingIdx []int
	var missing []string

	for i, text := range texts {
		if e.cache != nil {
			if cached, err := e.get(ctx, e.cacheKey(text)); err == nil {
				results[i] = cached
				continue
			}
		}
		missingIdx = append(missingIdx, i)
		missing = append(missing, text)
	}

	e.logger.Debug("embedding cache lookup",
		zap.Int("total", len(texts)),
		zap.Int("hits", len(texts)-len(missing)))

	if len(missing) == 0 {
		return results, nil
	}

	fresh, err := e.embedder.BatchEmbed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(missing), len(fresh))
	}

	for j, vec := range fresh {
		i := missingIdx[j]
		results[i] = vec
		if e.cache == nil {
			continue
		}
		if err := e.set(ctx, e.cacheKey(texts[i]), vec); err != nil {
			e.logger.Warn("failed to cache embedding", zap.Error(err))
		}
	}
	return results, nil
}

// Dimension implements Embedder
func (e *CacheEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

// Model implements Embedder
func (e *CacheEmbedder) Model() string {
	return e.embedder.Model()
}

func (e *CacheEmbedder) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s%s:%s", e.prefix, e.Model(), hex.EncodeToString(hash[:]))
}

func (e *CacheEmbedder) get(ctx context.Context, key string) ([]float32, error) {
	data, err := e.cache.GetBytes(ctx, key)
	if err != nil {
		return nil, err
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached embedding: %w", err)
	}
	return vec, nil
}

func (e *CacheEmbedder) set(ctx context.Context, key string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	return e.cache.Set(ctx, key, data, e.ttl)
}
