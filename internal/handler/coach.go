package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trading-mirror/internal/domain"
)

// Coach godoc
// @Summary      Coaching feedback for an analysis
// @Description  Returns diagnosis, rule, fix, action plan and the personal playbook for a previously computed analysis report
// @Tags         coaching
// @Accept       json
// @Produce      json
// @Param        report  body  domain.AnalysisReport  true  "Analysis report"
// @Success      200  {object}  coach.Coaching
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/coach [post]
func (h *Handler) Coach(c *gin.Context) {
	if h.coach == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "coaching service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.coach")
	defer span.End()

	var report domain.AnalysisReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coaching, err := h.coach.Coach(ctx, report)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, coaching)
}
