// Package fulltext is the library entry point of the engine: build an
// in-memory index from documents, then run Lucene-style query strings or
// programmatic queries against it.
//
//	idx, err := fulltext.BuildIndex(nil, settings, docs)
//	hits, err := fulltext.Search(ctx, idx, `product:"smart tv" -department:cases`, "product", 10)
package fulltext

import (
	"context"
	"math"
	"strings"

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

// Errors returned by BuildIndex and Search. Match them with errors.Is;
// use errors.As with *SyntaxError to get the offending position.
var (
	ErrSyntax           = errors.ErrSyntax
	ErrInvalidArgument  = errors.ErrInvalidArgument
	ErrInvalidInput     = errors.ErrInvalidInput
	ErrDocumentNotFound = errors.ErrDocumentNotFound
)

// SyntaxError reports malformed query text.
type SyntaxError = query.SyntaxError

// Hit is one ranked search result with the stored fields of its document.
type Hit struct {
	DocID  uint32
	Score  float64
	Fields map[string]string
}

// Index is an in-memory index built by BuildIndex. It accepts more
// documents through Add and can be searched concurrently.
type Index struct {
	settings config.IndexSettings
	analyzer *analysis.Analyzer
	inverted *index.InvertedIndex
	store    *store.DocumentStore
	indexer  *indexing.Service
	searcher *search.Service
}

// BuildIndex indexes docs in order; the i-th document gets DocID i. The
// analyzer is used for both the documents and every later query. A nil
// analyzer is built from settings.Analyzer.
func BuildIndex(analyzer *analysis.Analyzer, settings config.IndexSettings, docs []model.Document) (*Index, error) {
	if settings.Name == "" {
		settings.Name = "default"
	}
	settings.ApplyDefaults()
	if problems := settings.ValidateFieldNames(); len(problems) > 0 {
		return nil, errors.NewValidationError("settings", strings.Join(problems, "; "))
	}
	if analyzer == nil {
		analyzer = analysis.New(settings.Analyzer)
	}

	idx := &Index{
		settings: settings,
		analyzer: analyzer,
		inverted: index.NewInvertedIndex(analyzer),
		store:    store.NewDocumentStore(),
	}
	var err error
	if idx.indexer, err = indexing.NewService(idx.inverted, idx.store, &idx.settings); err != nil {
		return nil, err
	}
	idx.searcher, err = search.NewService(idx.inverted, idx.store, &idx.settings,
		search.WithLimits(10, math.MaxInt32),
	)
	if err != nil {
		return nil, err
	}

	if len(docs) > 0 {
		if _, err := idx.indexer.AddDocuments(docs); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Add indexes one more document and returns its DocID.
func (idx *Index) Add(doc model.Document) (uint32, error) {
	ids, err := idx.indexer.AddDocuments([]model.Document{doc})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// NumDocs returns the number of indexed documents.
func (idx *Index) NumDocs() int {
	return idx.indexer.NumDocs()
}

// Analyzer returns the analyzer shared by indexing and query parsing.
func (idx *Index) Analyzer() *analysis.Analyzer {
	return idx.analyzer
}

// Document returns the stored fields of a document.
func (idx *Index) Document(docID uint32) (map[string]string, error) {
	return idx.store.Get(docID)
}

// Parse parses query text against the schema of the index.
func (idx *Index) Parse(queryText, defaultField string) (query.Query, error) {
	return idx.searcher.Parse(queryText, defaultField)
}

// Query runs a programmatically built query.
func (idx *Index) Query(ctx context.Context, q query.Query, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, errors.NewInvalidArgumentError("limit", "must be positive, got %d", limit)
	}
	result, err := idx.searcher.Run(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return toHits(result), nil
}

// Search parses queryText, runs it and returns at most limit hits ordered by
// score, highest first, ties broken by ascending DocID. Clauses without a
// field search defaultField, or the index default when it is empty.
func Search(ctx context.Context, idx *Index, queryText, defaultField string, limit int) ([]Hit, error) {
	if idx == nil {
		return nil, errors.NewInvalidArgumentError("index", "must not be nil")
	}
	if limit <= 0 {
		return nil, errors.NewInvalidArgumentError("limit", "must be positive, got %d", limit)
	}
	result, err := idx.searcher.Search(ctx, services.SearchQuery{
		Query:        queryText,
		DefaultField: defaultField,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	return toHits(result), nil
}

func toHits(result services.SearchResult) []Hit {
	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		fields := make(map[string]string, len(h.Document))
		for name, value := range h.Document {
			if s, ok := value.(string); ok {
				fields[name] = s
			}
		}
		hits = append(hits, Hit{DocID: h.DocID, Score: h.Score, Fields: fields})
	}
	return hits
}
