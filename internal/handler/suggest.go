package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"propsearch/internal/model"
	"propsearch/internal/service"

	"github.com/gin-gonic/gin"
)

// SuggestHandler handles autocomplete and query parsing requests
type SuggestHandler struct {
	suggestService *service.SuggestService
}

// NewSuggestHandler creates a new suggest handler
func NewSuggestHandler(suggestService *service.SuggestService) *SuggestHandler {
	return &SuggestHandler{
		suggestService: suggestService,
	}
}

// Suggestions handles GET /api/v1/search/suggestions
func (h *SuggestHandler) Suggestions(c *gin.Context) {
	query := c.Query("q")
	if err := h.suggestService.ValidateQuery(query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	result, err := h.suggestService.ParseAndSuggest(c.Request.Context(), query, limit)
	if err != nil {
		// Only a cancelled request gets here; suggestions stay best effort.
		slog.Debug("suggestion request abandoned", slog.String("query", query), slog.Any("error", err))
		c.JSON(http.StatusOK, &model.SuggestResult{Suggestions: []model.Suggestion{}})
		return
	}

	if result.ServedFromCache {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, result)
}

// Parse handles GET /api/v1/search/parse
func (h *SuggestHandler) Parse(c *gin.Context) {
	query := c.Query("q")
	if err := h.suggestService.ValidateQuery(query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"parsed_filters": h.suggestService.Parse(query)})
}
