package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"go.uber.org/zap"
)

// SearchOptions narrows a vector search
type SearchOptions struct {
	OutputFields []string
	Expr         string
}

// Hit is one search result
type Hit struct {
	ID     string
	Score  float32
	Fields map[string]interface{}
}

// Search runs a single-vector ANN search and returns hits in index order
// (best first for COSINE and IP).
func (c *Client) Search(ctx context.Context, collection string, vector []float32, vectorField string, topK int, opts *SearchOptions) ([]Hit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if collection == "" {
		return nil, ErrInvalidCollectionName
	}
	if vectorField == "" {
		return nil, ErrInvalidFieldName
	}
	if len(vector) == 0 {
		return nil, ErrInvalidVectorData
	}

	searchOpt := milvusclient.NewSearchOption(collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(vectorField)
	if opts != nil {
		if len(opts.OutputFields) > 0 {
			searchOpt.WithOutputFields(opts.OutputFields...)
		}
		if opts.Expr != "" {
			searchOpt.WithFilter(opts.Expr)
		}
	}

	var resultSets []milvusclient.ResultSet
	err := c.execWithRetry(ctx, "Search", func(ctx context.Context) error {
		var err error
		resultSets, err = c.client.Search(ctx, searchOpt)
		return err
	})
	if err != nil {
		c.logger.Error("milvus search failed", zap.String("collection", collection), zap.Error(err))
		return nil, WrapError("Search", err, collection)
	}
	if len(resultSets) == 0 {
		return nil, nil
	}

	rs := resultSets[0]
	hits := make([]Hit, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		id, err := rs.IDs.Get(i)
		if err != nil {
			continue
		}
		hit := Hit{ID: fmt.Sprint(id), Score: rs.Scores[i], Fields: make(map[string]interface{})}
		if opts != nil {
			for _, name := range opts.OutputFields {
				if col := rs.GetColumn(name); col != nil {
					if v, err := col.Get(i); err == nil {
						hit.Fields[name] = v
					}
				}
			}
		}
		hits = append(hits, hit)
	}

	c.logger.Debug("milvus search completed",
		zap.String("collection", collection),
		zap.Int("top_k", topK),
		zap.Int("hits", len(hits)))
	return hits, nil
}
