package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"trading-mirror/internal/coach"
	"trading-mirror/internal/domain"
)

const maxUploadBytes = 10 << 20

// Analyzer runs the enrichment pipeline over a trade set.
type Analyzer interface {
	Analyze(ctx context.Context, trades []domain.Trade) (*domain.AnalysisReport, error)
}

// Coacher turns a report into narrative feedback.
type Coacher interface {
	Coach(ctx context.Context, report domain.AnalysisReport) (coach.Coaching, error)
	NarratePatterns(ctx context.Context, report *domain.AnalysisReport)
}

// TagStore persists user strategy labels.
type TagStore interface {
	SetTag(ctx context.Context, tradeID, tag string) error
	GetTag(ctx context.Context, tradeID string) (string, error)
}

type Handler struct {
	tracer   trace.Tracer
	logger   zerolog.Logger
	analyzer Analyzer
	coach    Coacher
	tags     TagStore
}

// New builds the API handler. coacher and tags may be nil; their endpoints
// then answer 503.
func New(tracer trace.Tracer, logger zerolog.Logger, analyzer Analyzer, coacher Coacher, tags TagStore) *Handler {
	return &Handler{
		tracer:   tracer,
		logger:   logger.With().Str("component", "handler").Logger(),
		analyzer: analyzer,
		coach:    coacher,
		tags:     tags,
	}
}

// RegisterRoutes mounts the API. Middleware applies to /api only so health
// checks stay open.
func (h *Handler) RegisterRoutes(r *gin.Engine, middleware ...gin.HandlerFunc) {
	r.GET("/health", h.Health)

	api := r.Group("/api", middleware...)
	api.POST("/analyze", h.Analyze)
	api.POST("/coach", h.Coach)
	api.PUT("/trades/:id/tag", h.PutTag)
	api.GET("/trades/:id/tag", h.GetTag)
}
