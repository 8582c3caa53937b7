package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-fulltext-engine/services"
)

// SearchRequest defines the structure for search queries.
type SearchRequest struct {
	Query             string   `json:"query"`
	DefaultField      string   `json:"default_field,omitempty"`
	Limit             int      `json:"limit,omitempty"`
	RetrievableFields []string `json:"retrievable_fields,omitempty"`
	ExplainQuery      bool     `json:"explain_query,omitempty"`
}

// ParseRequest asks for the parsed form of a query without running it.
type ParseRequest struct {
	Query        string `json:"query"`
	DefaultField string `json:"default_field,omitempty"`
}

// MultiSearchRequest runs several named queries in one request.
type MultiSearchRequest struct {
	Queries []NamedSearchRequest `json:"queries"`
	Limit   int                  `json:"limit,omitempty"`
}

// NamedSearchRequest is one query of a MultiSearchRequest.
type NamedSearchRequest struct {
	Name string `json:"name"`
	SearchRequest
}

// SearchHandler handles search requests to an index.
func (api *API) SearchHandler(c *gin.Context) {
	indexAccessor, _, ok := api.indexFromPath(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateSearchRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	results, err := indexAccessor.Search(c.Request.Context(), services.SearchQuery{
		Query:             req.Query,
		DefaultField:      req.DefaultField,
		Limit:             req.Limit,
		RetrievableFields: req.RetrievableFields,
		ExplainQuery:      req.ExplainQuery,
	})
	if err != nil {
		SendServiceError(c, "search", err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// MultiSearchHandler handles multi-query search requests to an index.
// Every query sees the same snapshot of the index.
func (api *API) MultiSearchHandler(c *gin.Context) {
	indexAccessor, _, ok := api.indexFromPath(c)
	if !ok {
		return
	}

	var req MultiSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateMultiSearchRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	multiQuery := services.MultiSearchQuery{Limit: req.Limit}
	for _, nq := range req.Queries {
		multiQuery.Queries = append(multiQuery.Queries, services.NamedSearchQuery{
			Name:              nq.Name,
			Query:             nq.Query,
			DefaultField:      nq.DefaultField,
			Limit:             nq.Limit,
			RetrievableFields: nq.RetrievableFields,
			ExplainQuery:      nq.ExplainQuery,
		})
	}

	results, err := indexAccessor.MultiSearch(c.Request.Context(), multiQuery)
	if err != nil {
		SendServiceError(c, "multi-search", err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ParseHandler returns the parsed query in Lucene notation.
func (api *API) ParseHandler(c *gin.Context) {
	indexAccessor, _, ok := api.indexFromPath(c)
	if !ok {
		return
	}

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	parsed, err := indexAccessor.Parse(req.Query, req.DefaultField)
	if err != nil {
		SendServiceError(c, "parse", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":        req.Query,
		"parsed_query": parsed.String(),
	})
}
