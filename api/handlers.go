package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-fulltext-engine/internal/metrics"
	"github.com/gcbaptista/go-fulltext-engine/services"
)

// Engine is what the HTTP layer needs from the index manager.
type Engine interface {
	services.AsyncIndexManager
	services.JobManager
}

// API holds dependencies for API handlers, primarily the search engine manager.
type API struct {
	engine  Engine
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the logger used by handlers and the request logging middleware.
func WithLogger(l *zap.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records HTTP metrics and serves them at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *API) { a.metrics = m }
}

// NewAPI creates a new API handler structure.
func NewAPI(engine Engine, opts ...Option) *API {
	a := &API{engine: engine, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetupRoutes installs the middleware chain and every route on router.
func SetupRoutes(router *gin.Engine, engine Engine, opts ...Option) *API {
	apiHandler := NewAPI(engine, opts...)

	router.Use(RequestIDMiddleware(), LoggingMiddleware(apiHandler.logger))
	if apiHandler.metrics != nil {
		router.Use(MetricsMiddleware(apiHandler.metrics))
		router.GET("/metrics", gin.WrapH(apiHandler.metrics.Handler()))
	}

	router.GET("/health", apiHandler.HealthCheckHandler)

	router.GET("/jobs/:jobId", apiHandler.GetJobHandler)

	indexRoutes := router.Group("/indexes")
	{
		indexRoutes.POST("", apiHandler.CreateIndexHandler)
		indexRoutes.GET("", apiHandler.ListIndexesHandler)
		indexRoutes.GET("/:indexName", apiHandler.GetIndexHandler)
		indexRoutes.DELETE("/:indexName", apiHandler.DeleteIndexHandler)
		indexRoutes.POST("/:indexName/_persist", apiHandler.PersistIndexHandler)
		indexRoutes.GET("/:indexName/jobs", apiHandler.ListJobsHandler)

		docRoutes := indexRoutes.Group("/:indexName/documents")
		{
			docRoutes.PUT("", apiHandler.AddDocumentsHandler)
			docRoutes.GET("/:docId", apiHandler.GetDocumentHandler)
		}

		indexRoutes.POST("/:indexName/_search", apiHandler.SearchHandler)
		indexRoutes.POST("/:indexName/_multi_search", apiHandler.MultiSearchHandler)
		indexRoutes.POST("/:indexName/_parse", apiHandler.ParseHandler)
	}
	return apiHandler
}

// HealthCheckHandler reports liveness and the number of loaded indexes.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"indexes": len(api.engine.ListIndexes()),
	})
}

// indexFromPath validates the :indexName parameter and loads the index,
// sending the error response itself when it fails.
func (api *API) indexFromPath(c *gin.Context) (services.IndexAccessor, string, bool) {
	indexName := c.Param("indexName")
	if result := ValidateIndexName(indexName); result.HasErrors() {
		SendValidationError(c, result)
		return nil, indexName, false
	}
	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendServiceError(c, "get index", err)
		return nil, indexName, false
	}
	return indexAccessor, indexName, true
}
