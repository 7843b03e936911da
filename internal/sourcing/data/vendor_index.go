package data

import (
	"context"
	"fmt"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/milvus"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/vendor"
)

// Searcher is the subset of the Milvus client the vendor index uses
type Searcher interface {
	Search(ctx context.Context, collection string, vector []float32, vectorField string, topK int, opts *milvus.SearchOptions) ([]milvus.Hit, error)
}

// VendorIndexConfig names the vendor collection and its fields
type VendorIndexConfig struct {
	Collection  string `mapstructure:"collection"`
	VectorField string `mapstructure:"vector_field"`
	Filter      string `mapstructure:"filter"` // optional boolean expression, e.g. "active == true"
}

// DefaultVendorIndexConfig returns the default vendor collection layout
func DefaultVendorIndexConfig() VendorIndexConfig {
	return VendorIndexConfig{
		Collection:  "vendors",
		VectorField: "embedding",
	}
}

// vendorOutputFields are the only vendor columns ever read back
var vendorOutputFields = []string{"name", "tagline", "categories", "service_area"}

// MilvusVendorIndex is a vendor.VectorIndex over a Milvus collection
// indexed with the COSINE metric
type MilvusVendorIndex struct {
	client Searcher
	cfg    VendorIndexConfig
	logger *logger.Logger
}

// NewMilvusVendorIndex creates a Milvus-backed vendor index
func NewMilvusVendorIndex(client Searcher, cfg VendorIndexConfig, log *logger.Logger) *MilvusVendorIndex {
	def := DefaultVendorIndexConfig()
	if cfg.Collection == "" {
		cfg.Collection = def.Collection
	}
	if cfg.VectorField == "" {
		cfg.VectorField = def.VectorField
	}
	if log == nil {
		log = logger.L()
	}
	return &MilvusVendorIndex{client: client, cfg: cfg, logger: log.Named("vendor_index")}
}

// Search implements vendor.VectorIndex. COSINE scores are similarities;
// they are clamped to [0, 1].
func (x *MilvusVendorIndex) Search(ctx context.Context, vector []float32, topK int) ([]vendor.VectorHit, error) {
	hits, err := x.client.Search(ctx, x.cfg.Collection, vector, x.cfg.VectorField, topK, &milvus.SearchOptions{
		OutputFields: vendorOutputFields,
		Expr:         x.cfg.Filter,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", x.cfg.Collection, err)
	}

	out := make([]vendor.VectorHit, 0, len(hits))
	for _, h := range hits {
		sim := float64(h.Score)
		if sim < 0 {
			sim = 0
		}
		if sim > 1 {
			sim = 1
		}
		out = append(out, vendor.VectorHit{VendorID: h.ID, Similarity: sim, Fields: h.Fields})
	}
	return out, nil
}

var (
	_ vendor.VectorIndex = (*MilvusVendorIndex)(nil)
	_ Searcher           = (*milvus.Client)(nil)
)
