package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/internal/cache"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
	"github.com/gcbaptista/go-fulltext-engine/internal/metrics"
	"github.com/gcbaptista/go-fulltext-engine/model"
	"github.com/gcbaptista/go-fulltext-engine/query"
	"github.com/gcbaptista/go-fulltext-engine/services"
	"github.com/gcbaptista/go-fulltext-engine/store"
)

const (
	defaultPageSize = 10
	defaultMaxLimit = 1000
)

// Service implements the search logic for a single index.
// It fulfills the services.Searcher interface.
type Service struct {
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	settings      *config.IndexSettings
	executor      *Executor

	cache        *cache.Cache
	metrics      *metrics.Metrics
	logger       *zap.Logger
	parallelism  int
	defaultLimit int
	maxLimit     int
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches search results. A nil cache disables caching.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics records search metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithParallelism sets how many boolean clauses may be evaluated at once.
func WithParallelism(n int) Option {
	return func(s *Service) { s.parallelism = n }
}

// WithLimits sets the limit applied when a query has none and the largest
// accepted limit.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// NewService creates a new search Service.
func NewService(invIndex *index.InvertedIndex, docStore *store.DocumentStore, settings *config.IndexSettings, opts ...Option) (*Service, error) {
	if invIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if docStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	s := &Service{
		invertedIndex: invIndex,
		documentStore: docStore,
		settings:      settings,
		logger:        zap.NewNop(),
		parallelism:   1,
		defaultLimit:  defaultPageSize,
		maxLimit:      defaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("index", settings.Name))
	s.executor = NewExecutor(settings.Scoring, s.parallelism)
	return s, nil
}

// Parse parses query text against the current state of the index.
func (s *Service) Parse(text, defaultField string) (query.Query, error) {
	return s.parser(s.invertedIndex.Reader()).Parse(text, s.defaultField(defaultField))
}

// Search parses, executes and ranks a query, then loads the stored fields of
// the returned hits. All steps see one snapshot of the index.
func (s *Service) Search(ctx context.Context, q services.SearchQuery) (services.SearchResult, error) {
	return s.searchSnapshot(ctx, s.invertedIndex.Reader(), q)
}

// searchSnapshot runs q against reader.
func (s *Service) searchSnapshot(ctx context.Context, reader *index.Reader, q services.SearchQuery) (services.SearchResult, error) {
	start := time.Now()

	limit := q.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 0 || limit > s.maxLimit {
		s.record(metrics.ResultError, "", 0, start)
		return services.SearchResult{}, errors.NewInvalidArgumentError("limit", "must be between 1 and %d, got %d", s.maxLimit, limit)
	}

	defaultField := s.defaultField(q.DefaultField)
	parsed, err := s.parser(reader).Parse(q.Query, defaultField)
	if err != nil {
		var syntaxErr *query.SyntaxError
		if stderrors.As(err, &syntaxErr) {
			s.record(metrics.ResultSyntaxError, "", 0, start)
			s.logger.Debug("rejected query", zap.String("query", q.Query), zap.Int("position", syntaxErr.Position), zap.String("reason", syntaxErr.Message))
		} else {
			s.record(metrics.ResultError, "", 0, start)
		}
		return services.SearchResult{}, err
	}

	key := cache.Key(s.settings.Name,
		strconv.FormatUint(uint64(reader.MaxDoc()), 10),
		defaultField,
		parsed.String(),
		strconv.Itoa(limit),
		strings.Join(q.RetrievableFields, ","),
	)
	result, hit, err := cache.GetOrCompute(ctx, s.cache, key, func() (services.SearchResult, error) {
		return s.execute(ctx, reader, parsed, limit, q.RetrievableFields)
	})
	if err != nil {
		s.record(metrics.ResultError, "", 0, start)
		return services.SearchResult{}, err
	}

	result.QueryID = uuid.NewString()
	result.Took = time.Since(start).Milliseconds()
	if q.ExplainQuery {
		result.ParsedQuery = parsed.String()
	}

	outcome := metrics.ResultHit
	if result.Total == 0 {
		outcome = metrics.ResultZero
	}
	cacheStatus := "miss"
	if hit {
		cacheStatus = "hit"
	}
	s.record(outcome, cacheStatus, result.Total, start)
	s.logger.Debug("search",
		zap.String("query_id", result.QueryID),
		zap.String("query", parsed.String()),
		zap.Int("total", result.Total),
		zap.Bool("cache_hit", hit),
		zap.Duration("took", time.Since(start)),
	)
	return result, nil
}

// Run executes an already built query against the current snapshot and
// ranks it. Results of programmatic queries are not cached.
func (s *Service) Run(ctx context.Context, q query.Query, limit int) (services.SearchResult, error) {
	start := time.Now()
	result, err := s.execute(ctx, s.invertedIndex.Reader(), q, limit, nil)
	if err != nil {
		s.record(metrics.ResultError, "", 0, start)
		return services.SearchResult{}, err
	}
	result.QueryID = uuid.NewString()
	result.Took = time.Since(start).Milliseconds()
	outcome := metrics.ResultHit
	if result.Total == 0 {
		outcome = metrics.ResultZero
	}
	s.record(outcome, "miss", result.Total, start)
	return result, nil
}

func (s *Service) execute(ctx context.Context, reader *index.Reader, q query.Query, limit int, retrievable []string) (services.SearchResult, error) {
	matches, err := s.executor.Execute(ctx, q, reader)
	if err != nil {
		return services.SearchResult{}, err
	}
	ranked, total, err := Rank(matches, limit)
	if err != nil {
		return services.SearchResult{}, err
	}

	hits := make([]services.HitResult, 0, len(ranked))
	for _, h := range ranked {
		hits = append(hits, services.HitResult{
			DocID:    h.DocID,
			Score:    h.Score,
			Document: s.storedFields(h.DocID, retrievable),
		})
	}
	return services.SearchResult{Hits: hits, Total: total, Limit: limit}, nil
}

// storedFields loads the stored values of a hit, restricted to retrievable
// when it is not empty.
func (s *Service) storedFields(docID index.DocID, retrievable []string) model.Document {
	doc := make(model.Document)
	stored, err := s.documentStore.Get(docID)
	if err != nil {
		// A document without stored fields is still a valid hit.
		if !stderrors.Is(err, errors.ErrDocumentNotFound) {
			s.logger.Warn("failed to load stored fields", zap.Uint32("doc_id", docID), zap.Error(err))
		}
		return doc
	}
	if len(retrievable) == 0 {
		for name, value := range stored {
			doc[name] = value
		}
		return doc
	}
	for _, name := range retrievable {
		if value, ok := stored[name]; ok {
			doc[name] = value
		}
	}
	return doc
}

func (s *Service) parser(reader *index.Reader) *query.Parser {
	return query.NewParser(reader.Analyzer(), s.resolver(reader), s.settings.Parser)
}

// resolver accepts the fields declared in the schema and, when dynamic fields
// are allowed, any field present in the snapshot.
func (s *Service) resolver(reader *index.Reader) query.FieldResolver {
	return query.FieldResolverFunc(func(name string) (index.FieldInfo, bool) {
		if f, ok := s.settings.Field(name); ok {
			return index.FieldInfo{Name: f.Name, Type: f.Type, Ordering: f.Ordering}, true
		}
		if s.settings.AllowDynamicFields {
			if info, ok := reader.FieldInfo(name); ok {
				return info, true
			}
			return index.FieldInfo{Name: name, Type: config.FieldTypeText, Ordering: config.OrderingLexicographic}, true
		}
		return index.FieldInfo{}, false
	})
}

func (s *Service) defaultField(field string) string {
	if field != "" {
		return field
	}
	return s.settings.DefaultField
}

func (s *Service) record(outcome, cacheStatus string, total int, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(s.settings.Name, outcome).Inc()
	if cacheStatus != "" {
		s.metrics.SearchLatency.WithLabelValues(s.settings.Name, cacheStatus).Observe(time.Since(start).Seconds())
		s.metrics.SearchResultsCount.Observe(float64(total))
	}
}
