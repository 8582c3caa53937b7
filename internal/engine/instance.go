package engine

import (
	"context"
	"fmt"

	"github.com/gcbaptista/go-fulltext-engine/analysis"
	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
	"github.com/gcbaptista/go-fulltext-engine/internal/indexing"
	"github.com/gcbaptista/go-fulltext-engine/internal/search"
	"github.com/gcbaptista/go-fulltext-engine/model"
	"github.com/gcbaptista/go-fulltext-engine/query"
	"github.com/gcbaptista/go-fulltext-engine/services"
	"github.com/gcbaptista/go-fulltext-engine/store"
)

// IndexInstance holds all components and services for a single index.
// It implements the services.IndexAccessor interface.
type IndexInstance struct {
	settings      *config.IndexSettings
	InvertedIndex *index.InvertedIndex
	DocumentStore *store.DocumentStore
	indexer       *indexing.Service
	bulk          *indexing.BulkIndexer
	searcher      *search.Service
}

// NewIndexInstance creates and initializes a new, empty IndexInstance.
func (e *Engine) NewIndexInstance(settings config.IndexSettings) (*IndexInstance, error) {
	invIndex := index.NewInvertedIndex(analysis.New(settings.Analyzer))
	return e.newInstance(settings, invIndex, store.NewDocumentStore())
}

// newInstance wires the services of an index around existing data.
func (e *Engine) newInstance(settings config.IndexSettings, invIndex *index.InvertedIndex, docStore *store.DocumentStore) (*IndexInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("index name cannot be empty in settings")
	}
	logger := e.logger.Named("index")

	indexerService, err := indexing.NewService(invIndex, docStore, &settings,
		indexing.WithLogger(logger),
		indexing.WithMetrics(e.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}

	searchService, err := search.NewService(invIndex, docStore, &settings,
		search.WithLogger(logger),
		search.WithMetrics(e.metrics),
		search.WithCache(e.cache),
		search.WithParallelism(e.search.Parallelism),
		search.WithLimits(e.search.DefaultLimit, e.search.MaxLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	return &IndexInstance{
		settings:      &settings,
		InvertedIndex: invIndex,
		DocumentStore: docStore,
		indexer:       indexerService,
		bulk:          indexing.NewBulkIndexer(indexerService, indexing.DefaultBulkIndexingConfig()),
		searcher:      searchService,
	}, nil
}

// AddDocuments delegates to the underlying Indexer service.
// This satisfies a part of the services.IndexAccessor interface.
func (i *IndexInstance) AddDocuments(docs []model.Document) ([]uint32, error) {
	return i.indexer.AddDocuments(docs)
}

// Search delegates to the underlying Searcher service.
// This satisfies a part of the services.IndexAccessor interface.
func (i *IndexInstance) Search(ctx context.Context, q services.SearchQuery) (services.SearchResult, error) {
	return i.searcher.Search(ctx, q)
}

// MultiSearch runs several named queries against one snapshot.
func (i *IndexInstance) MultiSearch(ctx context.Context, q services.MultiSearchQuery) (*services.MultiSearchResult, error) {
	return i.searcher.MultiSearch(ctx, q)
}

// Parse parses query text without executing it.
func (i *IndexInstance) Parse(text, defaultField string) (query.Query, error) {
	return i.searcher.Parse(text, defaultField)
}

// GetDocument returns the stored fields of a document.
func (i *IndexInstance) GetDocument(docID uint32) (model.Document, error) {
	stored, err := i.DocumentStore.Get(docID)
	if err != nil {
		if docID < i.InvertedIndex.NextDocID() {
			// Indexed but without stored fields.
			return model.Document{}, nil
		}
		return nil, errors.NewDocumentNotFoundError(docID, i.settings.Name)
	}
	doc := make(model.Document, len(stored))
	for name, value := range stored {
		doc[name] = value
	}
	return doc, nil
}

// Settings returns the configuration settings for this index.
// This satisfies a part of the services.IndexAccessor interface.
func (i *IndexInstance) Settings() config.IndexSettings {
	return *i.settings
}

// Stats summarizes the current snapshot of the index.
func (i *IndexInstance) Stats() services.IndexStats {
	reader := i.InvertedIndex.Reader()
	stats := services.IndexStats{
		Name:    i.settings.Name,
		NumDocs: reader.NumDocs(),
		Fields:  make(map[string]index.FieldStats),
	}
	for _, field := range reader.Fields() {
		if fs, ok := reader.FieldStats(field); ok {
			stats.Fields[field] = fs
		}
	}
	return stats
}
