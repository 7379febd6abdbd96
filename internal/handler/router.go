package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// BuildInfo is reported by the health and version endpoints
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// RouterConfig wires handlers into the HTTP router
type RouterConfig struct {
	Build          BuildInfo
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string

	Suggest   *SuggestHandler
	Search    *SearchHandler
	Embedding *EmbeddingHandler
	Feedback  *FeedbackHandler
}

// NewRouter builds the gin engine with all API routes
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), RequestID())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	if len(cfg.AllowedMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowedHeaders
	}
	corsConfig.ExposeHeaders = []string{RequestIDHeader, "X-Cache"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "property-suggest",
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		if cfg.Suggest != nil {
			apiV1.GET("/search/suggestions", cfg.Suggest.Suggestions)
			apiV1.GET("/search/parse", cfg.Suggest.Parse)
		}
		if cfg.Search != nil {
			apiV1.POST("/search", cfg.Search.Search)
			apiV1.GET("/properties/:slug", cfg.Search.GetProperty)
			apiV1.GET("/properties/:slug/similar", cfg.Search.SimilarProperties)
		}
		if cfg.Embedding != nil {
			apiV1.POST("/embeddings/batch", cfg.Embedding.BatchUpdate)
		}
		if cfg.Feedback != nil {
			apiV1.POST("/feedback", cfg.Feedback.Submit)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
	})

	return router
}
