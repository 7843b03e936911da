// Package embedding turns vendor-matching text into vectors.
package embedding

import (
	"context"
	"errors"
	"math"
)

// ErrNoEmbedding is returned when the backend produced no vector
var ErrNoEmbedding = errors.New("no embedding generated")

// Embedder turns text into vectors
type Embedder interface {
	// Embed embeds a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// BatchEmbed embeds texts in one call; the result is index aligned
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension
	Dimension() int

	// Model returns the model name
	Model() string
}

// Blend mixes vectors with the given weights and L2-normalizes the result
// so cosine similarity stays meaningful. All vectors must share a dimension.
func Blend(vecs [][]float32, weights []float64) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	dim := len(vecs[0])
	acc := make([]float64, dim)
	for i, v := range vecs {
		if i >= len(weights) || len(v) != dim {
			continue
		}
		for j, x := range v {
			acc[j] += float64(x) * weights[i]
		}
	}

	var norm float64
	for _, x := range acc {
		norm += x * x
	}
	norm = math.Sqrt(norm)

	out := make([]float32, dim)
	for j, x := range acc {
		if norm > 0 {
			x /= norm
		}
		out[j] = float32(x)
	}
	return out
}
