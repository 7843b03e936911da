// Package service exposes sourcing searches over HTTP.
package service

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/offer-sourcing/internal/pkg/errors"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/response"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/sse"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/biz"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// Searcher runs sourcing searches
type Searcher interface {
	Search(ctx context.Context, intent *types.SearchIntent) (*types.SearchResponse, error)
	SearchStream(ctx context.Context, intent *types.SearchIntent, emit func(biz.SourceEvent)) (*types.SearchResponse, error)
	Sources() []biz.SourceInfo
}

// SourcingService is the sourcing HTTP service
type SourcingService struct {
	searcher Searcher
	logger   *logger.Logger
}

// NewSourcingService creates the sourcing service
func NewSourcingService(searcher Searcher, log *logger.Logger) *SourcingService {
	if log == nil {
		log = logger.L()
	}
	return &SourcingService{searcher: searcher, logger: log.Named("sourcing_service")}
}

// RegisterRoutes mounts the sourcing routes under r
func (s *SourcingService) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/sourcing")
	g.POST("/search", s.Search)
	g.POST("/search/stream", s.SearchStream)
	g.GET("/sources", s.ListSources)
}

// Search runs one search and returns the ranked offers
func (s *SourcingService) Search(c *gin.Context) {
	intent, ok := s.bindIntent(c)
	if !ok {
		return
	}

	resp, err := s.searcher.Search(c.Request.Context(), intent)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, resp)
}

// SearchStream runs one search and streams a "source" event per finished
// source followed by a "done" event carrying the ranked offers
func (s *SourcingService) SearchStream(c *gin.Context) {
	intent, ok := s.bindIntent(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stream := sse.NewStream(c).
		OnError(func(err error) {
			s.logger.Debug("stream write failed", zap.Error(err))
		}).
		Build()

	go func() {
		defer stream.Close()
		resp, err := s.searcher.SearchStream(ctx, intent, func(ev biz.SourceEvent) {
			_ = stream.Send(ctx, "source", ev)
		})
		if err != nil {
			s.logger.Warn("stream search failed", zap.Error(err))
			_ = stream.Send(ctx, "error", gin.H{"message": apperrors.GetMessage(apperrors.ErrSourcingFailed)})
			return
		}
		_ = stream.Send(ctx, "done", DoneEvent{
			SearchID:    resp.SearchID,
			Offers:      resp.Offers,
			Vendors:     resp.Vendors,
			Statuses:    resp.Statuses,
			AllFailed:   resp.AllFailed,
			UserMessage: resp.UserMessage,
		})
	}()
	stream.Serve()
}

// ListSources lists the configured sources
func (s *SourcingService) ListSources(c *gin.Context) {
	response.Success(c, gin.H{"sources": s.searcher.Sources()})
}

// bindIntent parses and validates the request body. It writes the error
// reply itself and reports false when the request cannot be served.
func (s *SourcingService) bindIntent(c *gin.Context) (*types.SearchIntent, bool) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return nil, false
	}
	if len(s.searcher.Sources()) == 0 {
		response.ErrorWithCode(c, apperrors.ErrSourcingNoSources)
		return nil, false
	}

	intent := req.ToIntent()
	if err := intent.Validate(); err != nil {
		response.ErrorWithCode(c, apperrors.ErrSourcingInvalidIntent, err.Error())
		return nil, false
	}
	return intent, true
}

func (s *SourcingService) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrEmptyIntent), errors.Is(err, types.ErrInvalidBudget), errors.Is(err, types.ErrNegativeBudget):
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrSourcingInvalidIntent, err.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrSourcingTimeout))
	default:
		s.logger.Error("search failed", zap.Error(err))
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrSourcingFailed))
	}
}
