package handler

import (
	"errors"
	"net/http"
	"strconv"

	"propsearch/internal/model"
	"propsearch/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles property listing requests
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuery) || errors.Is(err, service.ErrInvalidFilters) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetProperty handles GET /api/v1/properties/:slug
func (h *SearchHandler) GetProperty(c *gin.Context) {
	property, err := h.searchService.GetProperty(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property: " + err.Error()})
		return
	}

	if property == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, property)
}

// SimilarProperties handles GET /api/v1/properties/:slug/similar
func (h *SearchHandler) SimilarProperties(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	properties, err := h.searchService.SimilarProperties(c.Request.Context(), c.Param("slug"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find similar properties: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": properties})
}
