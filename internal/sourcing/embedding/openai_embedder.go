package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// OpenAIEmbedderConfig configures an OpenAI compatible embedding backend
type OpenAIEmbedderConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
}

// OpenAIEmbedder embeds text through an OpenAI compatible API
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	logger    *logger.Logger
}

// NewOpenAIEmbedder creates an OpenAI embedder
func NewOpenAIEmbedder(cfg *OpenAIEmbedderConfig, lgr *logger.Logger) (*OpenAIEmbedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 1536
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	log.Info("openai embedder created", zap.String("model", model), zap.Int("dimension", dimension))

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		dimension: dimension,
		logger:    log.Named("embedding"),
	}, nil
}

// Embed implements Embedder
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 || embeddings[0] == nil {
		return nil, ErrNoEmbedding
	}
	return embeddings[0], nil
}

// BatchEmbed implements Embedder
func (e *OpenAIEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimension,
	})
	if err != nil {
		e.logger.Error("failed to create embeddings", zap.Error(err), zap.Int("text_count", len(texts)))
		return nil, classify(err)
	}

	embeddings := make([][]float32, len(texts))
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(texts) {
			idx = i
		}
		if idx < len(embeddings) {
			embeddings[idx] = data.Embedding
		}
	}
	for _, v := range embeddings {
		if v == nil {
			return nil, ErrNoEmbedding
		}
	}

	e.logger.Debug("embeddings created",
		zap.Int("count", len(embeddings)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return embeddings, nil
}

// Dimension implements Embedder
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// Model implements Embedder
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// classify folds API failures into the source error taxonomy so the
// vendor directory reports rate limits and spent quotas like any source
func classify(err error) error {
	code := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("failed to create embeddings: %w", err)
	}

	kind := types.KindHTTP
	switch code {
	case http.StatusTooManyRequests:
		kind = types.KindRateLimited
	case http.StatusPaymentRequired:
		kind = types.KindExhausted
	}
	return &types.ProviderError{
		Source:     types.SourceVendorDirectory,
		Kind:       kind,
		StatusCode: code,
		Message:    "embedding request failed",
		Err:        err,
	}
}
