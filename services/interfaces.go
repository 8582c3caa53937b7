package services

import (
	"context"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/model"
	"github.com/gcbaptista/go-fulltext-engine/query"
)

// SearchQuery is one search request against an index.
type SearchQuery struct {
	Query             string   `json:"query"`
	DefaultField      string   `json:"default_field,omitempty"` // Defaults to the index's DefaultField
	Limit             int      `json:"limit,omitempty"`         // Maximum number of hits; must be positive once defaults apply
	RetrievableFields []string `json:"retrievable_fields,omitempty"`
	ExplainQuery      bool     `json:"explain_query,omitempty"` // Include the parsed query tree in the result
}

// HitResult represents a single document in the search results.
type HitResult struct {
	DocID    uint32         `json:"doc_id"`
	Score    float64        `json:"score"`
	Document model.Document `json:"document"` // Stored fields of the document
}

// SearchResult is the ranked answer to a SearchQuery.
type SearchResult struct {
	Hits        []HitResult `json:"hits"`
	Total       int         `json:"total"` // Number of matching documents before the limit
	Limit       int         `json:"limit"`
	Took        int64       `json:"took"`     // milliseconds
	QueryID     string      `json:"query_id"` // unique UUID for this search query
	ParsedQuery string      `json:"parsed_query,omitempty"`
}

// MultiSearchQuery runs several named queries against one snapshot of an index.
type MultiSearchQuery struct {
	Queries []NamedSearchQuery `json:"queries"`
	Limit   int                `json:"limit,omitempty"` // Used by queries that set no limit
}

// NamedSearchQuery is one query of a MultiSearchQuery. Names must be unique.
type NamedSearchQuery struct {
	Name              string   `json:"name"`
	Query             string   `json:"query"`
	DefaultField      string   `json:"default_field,omitempty"`
	Limit             int      `json:"limit,omitempty"`
	RetrievableFields []string `json:"retrievable_fields,omitempty"`
	ExplainQuery      bool     `json:"explain_query,omitempty"`
}

// MultiSearchResult holds the result of every named query.
type MultiSearchResult struct {
	Results      map[string]SearchResult `json:"results"`
	TotalQueries int                     `json:"total_queries"`
	Took         int64                   `json:"took"` // milliseconds
}

// IndexStats summarizes the content of an index.
type IndexStats struct {
	Name    string                      `json:"name"`
	NumDocs int                         `json:"num_docs"`
	Fields  map[string]index.FieldStats `json:"fields"`
}

// Indexer defines operations for adding data to an index
type Indexer interface {
	AddDocuments(docs []model.Document) ([]uint32, error)
}

// Searcher defines operations for querying an index
type Searcher interface {
	Search(ctx context.Context, q SearchQuery) (SearchResult, error)
	Parse(text, defaultField string) (query.Query, error)
}

// MultiSearcher defines operations for performing multiple queries in a single request
type MultiSearcher interface {
	MultiSearch(ctx context.Context, q MultiSearchQuery) (*MultiSearchResult, error)
}

// IndexAccessor gives access to one named index.
type IndexAccessor interface {
	Indexer
	Searcher
	MultiSearcher
	GetDocument(docID uint32) (model.Document, error)
	Settings() config.IndexSettings
	Stats() IndexStats
}

// IndexManager manages the lifecycle of indices
type IndexManager interface {
	CreateIndex(settings config.IndexSettings) error
	GetIndex(name string) (IndexAccessor, error)
	GetIndexSettings(name string) (config.IndexSettings, error)
	DeleteIndex(name string) error
	ListIndexes() []string
	PersistIndexData(indexName string) error
}

// AsyncIndexManager extends IndexManager with background bulk indexing.
type AsyncIndexManager interface {
	IndexManager
	AddDocumentsAsync(indexName string, docs []model.Document) (string, error) // Returns job ID
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(indexName string, status *model.JobStatus) []*model.Job
}
