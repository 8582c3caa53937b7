package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-fulltext-engine/config"
)

// CreateIndexHandler handles the request to create a new index.
// Request Body: config.IndexSettings
func (api *API) CreateIndexHandler(c *gin.Context) {
	var settings config.IndexSettings
	if result := ValidateJSONBinding(c, &settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateIndexSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.CreateIndex(settings); err != nil {
		SendServiceError(c, "create index", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "created",
		"message": "Index '" + settings.Name + "' created successfully",
		"name":    settings.Name,
	})
}

// ListIndexesHandler lists the names of all indexes.
func (api *API) ListIndexesHandler(c *gin.Context) {
	names := api.engine.ListIndexes()
	c.JSON(http.StatusOK, gin.H{
		"indexes": names,
		"total":   len(names),
	})
}

// GetIndexHandler returns the settings and statistics of an index.
func (api *API) GetIndexHandler(c *gin.Context) {
	indexAccessor, _, ok := api.indexFromPath(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settings": indexAccessor.Settings(),
		"stats":    indexAccessor.Stats(),
	})
}

// DeleteIndexHandler deletes an index and its data.
func (api *API) DeleteIndexHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	if result := ValidateIndexName(indexName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.DeleteIndex(indexName); err != nil {
		SendServiceError(c, "delete index", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "deleted",
		"message": "Index '" + indexName + "' deleted successfully",
	})
}

// PersistIndexHandler writes a snapshot of an index to disk.
func (api *API) PersistIndexHandler(c *gin.Context) {
	_, indexName, ok := api.indexFromPath(c)
	if !ok {
		return
	}

	if err := api.engine.PersistIndexData(indexName); err != nil {
		api.logger.Error("persist failed", zap.String("index", indexName), zap.Error(err))
		SendServiceError(c, "persist index", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "persisted",
		"message": "Index '" + indexName + "' persisted",
	})
}
