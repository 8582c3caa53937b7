// Package api provides validation utilities for API request handling.
package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/model"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateIndexName validates an index name parameter
func ValidateIndexName(indexName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if indexName == "" {
		result.AddError("indexName", "Index name is required")
		return result
	}

	if strings.TrimSpace(indexName) != indexName {
		result.AddError("indexName", "Index name cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateDocumentID parses a document ID path parameter.
func ValidateDocumentID(documentID string) (uint32, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if documentID == "" {
		result.AddError("docId", "Document ID is required")
		return 0, result
	}

	id, err := strconv.ParseUint(documentID, 10, 32)
	if err != nil {
		result.AddError("docId", "Document ID must be a non-negative integer")
		return 0, result
	}

	return uint32(id), result
}

// ValidateIndexSettings validates index settings for creation
func ValidateIndexSettings(settings *config.IndexSettings) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if settings == nil {
		result.AddError("settings", "Index settings are required")
		return result
	}

	if settings.Name == "" {
		result.AddError("name", "Index name is required")
	}

	settings.ApplyDefaults()

	if conflicts := settings.ValidateFieldNames(); len(conflicts) > 0 {
		for _, conflict := range conflicts {
			result.AddError("field_validation", conflict)
		}
	}

	return result
}

// ParseDocuments accepts a single JSON object or an array of objects.
func ParseDocuments(raw interface{}) ([]model.Document, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	var docs []model.Document
	switch data := raw.(type) {
	case []interface{}:
		docs = make([]model.Document, 0, len(data))
		for i, item := range data {
			docMap, isMap := item.(map[string]interface{})
			if !isMap {
				result.AddError(fmt.Sprintf("documents[%d]", i), "Document must be a JSON object")
				continue
			}
			docs = append(docs, docMap)
		}
	case map[string]interface{}:
		docs = []model.Document{data}
	default:
		result.AddError("documents", "Expecting a document object or an array of documents")
		return nil, result
	}

	if len(docs) == 0 && !result.HasErrors() {
		result.AddError("documents", "No documents provided")
	}
	return docs, result
}

// ValidateSearchRequest checks a search request before it reaches the index.
func ValidateSearchRequest(req *SearchRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(req.Query) == "" {
		result.AddError("query", "Query is required")
	}
	if req.Limit < 0 {
		result.AddError("limit", "Limit must be positive")
	}
	for i, field := range req.RetrievableFields {
		if strings.TrimSpace(field) == "" {
			result.AddError(fmt.Sprintf("retrievable_fields[%d]", i), "Field name cannot be empty")
		}
	}

	return result
}

// ValidateMultiSearchRequest validates every named query of a multi-search
// request and checks that names are unique.
func ValidateMultiSearchRequest(req *MultiSearchRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(req.Queries) == 0 {
		result.AddError("queries", "At least one query is required")
	}
	if req.Limit < 0 {
		result.AddError("limit", "Limit must be positive")
	}

	names := make(map[string]bool, len(req.Queries))
	for i, nq := range req.Queries {
		prefix := fmt.Sprintf("queries[%d]", i)
		switch {
		case strings.TrimSpace(nq.Name) == "":
			result.AddError(prefix+".name", "Query name is required")
		case names[nq.Name]:
			result.AddError(prefix+".name", "Query names must be unique: '"+nq.Name+"' appears multiple times")
		}
		names[nq.Name] = true

		for _, e := range ValidateSearchRequest(&nq.SearchRequest).Errors {
			result.AddError(prefix+"."+e.Field, e.Message)
		}
	}

	return result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}
