package handler

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"trading-mirror/internal/repository"
)

const maxTagLength = 64

type tagRequest struct {
	Tag string `json:"tag"`
}

// PutTag godoc
// @Summary      Set a strategy tag
// @Description  Stores a user label for a trade id. An empty tag removes the label.
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        id    path  string      true  "Trade id (TICKER-YYYY-MM-DD)"
// @Param        body  body  tagRequest  true  "Tag"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/trades/{id}/tag [put]
func (h *Handler) PutTag(c *gin.Context) {
	if h.tags == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tag storage unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.put-tag")
	defer span.End()

	id := strings.TrimSpace(c.Param("id"))
	span.SetAttributes(attribute.String("trade_id", id))

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag := strings.TrimSpace(req.Tag)
	if utf8.RuneCountInString(tag) > maxTagLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag longer than 64 characters"})
		return
	}

	if err := h.tags.SetTag(ctx, id, tag); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trade_id": id, "strategy_tag": tag})
}

// GetTag godoc
// @Summary      Get a strategy tag
// @Tags         tags
// @Produce      json
// @Param        id  path  string  true  "Trade id (TICKER-YYYY-MM-DD)"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/trades/{id}/tag [get]
func (h *Handler) GetTag(c *gin.Context) {
	if h.tags == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tag storage unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-tag")
	defer span.End()

	id := strings.TrimSpace(c.Param("id"))
	span.SetAttributes(attribute.String("trade_id", id))

	tag, err := h.tags.GetTag(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no tag for trade " + id})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trade_id": id, "strategy_tag": tag})
}
