package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AddDocumentsHandler indexes one document or an array of documents.
// With ?async=true the documents are indexed by a background job and the
// response carries its ID.
func (api *API) AddDocumentsHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.indexFromPath(c)
	if !ok {
		return
	}

	var rawData interface{}
	if err := c.ShouldBindJSON(&rawData); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	docs, result := ParseDocuments(rawData)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if async {
		jobID, err := api.engine.AddDocumentsAsync(indexName, docs)
		if err != nil {
			SendJobExecutionError(c, "document addition", err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"status":         "accepted",
			"message":        fmt.Sprintf("Document addition started for index '%s' (%d documents)", indexName, len(docs)),
			"job_id":         jobID,
			"document_count": len(docs),
		})
		return
	}

	ids, err := indexAccessor.AddDocuments(docs)
	if err != nil {
		SendServiceError(c, "add documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "indexed",
		"message": fmt.Sprintf("%d document(s) added to index '%s'", len(ids), indexName),
		"doc_ids": ids,
	})
}

// GetDocumentHandler returns the stored fields of one document.
func (api *API) GetDocumentHandler(c *gin.Context) {
	indexAccessor, _, ok := api.indexFromPath(c)
	if !ok {
		return
	}

	docID, result := ValidateDocumentID(c.Param("docId"))
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	doc, err := indexAccessor.GetDocument(docID)
	if err != nil {
		SendServiceError(c, "get document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"doc_id":   docID,
		"document": doc,
	})
}
