package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"trading-mirror/internal/analysis"
	"trading-mirror/internal/domain"
	"trading-mirror/internal/ingest"
)

type analyzeRequest struct {
	Trades []ingest.TradeInput `json:"trades" binding:"required,dive"`
}

// Analyze godoc
// @Summary      Analyze closed trades
// @Description  Enriches every trade with market context, scores behavioral biases and aggregates portfolio metrics. Accepts a multipart CSV upload in field "file", a text/csv body, or JSON.
// @Tags         analysis
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Param        file  formData  file            false  "Trade CSV"
// @Param        body  body      analyzeRequest  false  "Trades as JSON"
// @Success      200  {object}  domain.AnalysisReport
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	trades, err := h.readTrades(c)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.Int("trades", len(trades)))

	report, err := h.analyzer.Analyze(ctx, trades)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, analysis.ErrNoTrades) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error().Err(err).Int("trades", len(trades)).Msg("analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.coach != nil {
		h.coach.NarratePatterns(ctx, report)
	}

	h.logger.Info().
		Str("analysis_id", report.AnalysisID).
		Int("trades", len(report.Trades)).
		Int("market_data_failures", report.MarketDataFailures).
		Msg("analysis complete")
	c.JSON(http.StatusOK, report)
}

func (h *Handler) readTrades(c *gin.Context) ([]domain.Trade, error) {
	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "multipart/"):
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing csv upload in field \"file\": %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ingest.ParseCSV(f)
	case contentType == "text/csv":
		return ingest.ParseCSV(c.Request.Body)
	default:
		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ingest.ErrNoTrades
			}
			return nil, err
		}
		return ingest.ParseInputs(req.Trades)
	}
}
