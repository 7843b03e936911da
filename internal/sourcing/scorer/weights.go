package scorer

import (
	"errors"
)

var (
	ErrNegativeWeight = errors.New("scoring weights must not be negative")
	ErrZeroWeights    = errors.New("scoring weights must not all be zero")
)

// Weights of the four score components in the combined score
type Weights struct {
	Price     float64 `json:"price" mapstructure:"price"`
	Relevance float64 `json:"relevance" mapstructure:"relevance"`
	Quality   float64 `json:"quality" mapstructure:"quality"`
	Diversity float64 `json:"diversity" mapstructure:"diversity"`
}

// DefaultWeights returns 0.35 price, 0.30 relevance, 0.25 quality, 0.10 diversity
func DefaultWeights() Weights {
	return Weights{Price: 0.35, Relevance: 0.30, Quality: 0.25, Diversity: 0.10}
}

// Validate validates the weights
func (w Weights) Validate() error {
	if w.Price < 0 || w.Relevance < 0 || w.Quality < 0 || w.Diversity < 0 {
		return ErrNegativeWeight
	}
	if w.Price+w.Relevance+w.Quality+w.Diversity == 0 {
		return ErrZeroWeights
	}
	return nil
}
