package indexing

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
	"github.com/gcbaptista/go-fulltext-engine/internal/metrics"
	"github.com/gcbaptista/go-fulltext-engine/model"
	"github.com/gcbaptista/go-fulltext-engine/store"
)

// Service implements the indexing logic for a single index.
// It fulfills the services.Indexer interface.
//
// The service is the single writer of its index: document IDs are assigned
// and applied under one mutex, while searches keep reading snapshots.
type Service struct {
	mu            sync.Mutex
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	settings      *config.IndexSettings
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records indexing metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new indexing Service.
func NewService(invertedIndex *index.InvertedIndex, documentStore *store.DocumentStore, settings *config.IndexSettings, opts ...Option) (*Service, error) {
	if invertedIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if documentStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	s := &Service{
		invertedIndex: invertedIndex,
		documentStore: documentStore,
		settings:      settings,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("index", settings.Name))
	return s, nil
}

// AddDocument indexes one document and returns its ID. IDs start at 0 and
// grow by one per document. A rejected document consumes no ID.
func (s *Service) AddDocument(fields []index.Field) (index.DocID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docID, err := s.addLocked(fields)
	if err != nil {
		return 0, err
	}
	s.recordIndexed(1)
	return docID, nil
}

// AddDocuments converts documents through the field schema and indexes them
// in order. Every document is validated before the first one is added, so a
// malformed batch leaves the index untouched.
// This satisfies the services.Indexer interface.
func (s *Service) AddDocuments(docs []model.Document) ([]uint32, error) {
	batch := make([][]index.Field, len(docs))
	for i, doc := range docs {
		fields, err := s.DocumentFields(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		batch[i] = fields
	}
	return s.addBatch(batch)
}

// addBatch applies converted documents under one writer lock after checking
// them against the current field types.
func (s *Service) addBatch(batch [][]index.Field) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBatchLocked(batch); err != nil {
		return nil, err
	}
	ids := make([]uint32, 0, len(batch))
	for i, fields := range batch {
		docID, err := s.addLocked(fields)
		if err != nil {
			s.recordIndexed(len(ids))
			return ids, fmt.Errorf("document %d: %w", i, err)
		}
		ids = append(ids, docID)
	}
	s.recordIndexed(len(ids))
	return ids, nil
}

// checkBatchLocked rejects batches whose documents disagree on a field type,
// with each other or with the index.
func (s *Service) checkBatchLocked(batch [][]index.Field) error {
	types := make(map[string]config.FieldType)
	for i, fields := range batch {
		if err := s.invertedIndex.CheckFields(fields); err != nil {
			return errors.NewValidationError("document", fmt.Sprintf("document %d: %v", i, err))
		}
		for _, f := range fields {
			if t, ok := types[f.Name]; ok && t != f.Type {
				return errors.NewValidationError(f.Name, fmt.Sprintf("document %d gives field as %s, earlier documents as %s", i, f.Type, t))
			}
			types[f.Name] = f.Type
		}
	}
	return nil
}

func (s *Service) addLocked(fields []index.Field) (index.DocID, error) {
	if err := s.invertedIndex.CheckFields(fields); err != nil {
		return 0, errors.NewValidationError("document", err.Error())
	}
	docID := s.invertedIndex.NextDocID()

	// Stored fields go first so a reader never finds a hit without them.
	s.documentStore.Put(docID, fields)
	if err := s.invertedIndex.Add(docID, fields); err != nil {
		s.documentStore.Remove(docID)
		return 0, err
	}
	return docID, nil
}

// DocumentFields turns a JSON document into index fields using the schema.
// Array values yield one field per element. Null values are skipped.
func (s *Service) DocumentFields(doc model.Document) ([]index.Field, error) {
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]index.Field, 0, len(doc))
	for _, name := range names {
		schema, ok := s.settings.Field(name)
		if !ok {
			if !s.settings.AllowDynamicFields {
				return nil, errors.NewValidationError(name, "field is not declared in the index schema")
			}
			schema = config.FieldSchema{Name: name, Type: config.FieldTypeText, Ordering: config.OrderingLexicographic}
		}

		values, err := fieldValues(doc[name])
		if err != nil {
			return nil, errors.NewValidationError(name, err.Error())
		}
		for _, v := range values {
			fields = append(fields, index.Field{
				Name:     name,
				Value:    v,
				Type:     schema.Type,
				Ordering: schema.Ordering,
				Stored:   schema.IsStored(),
			})
		}
	}
	return fields, nil
}

// fieldValues flattens a JSON value into strings.
func fieldValues(v interface{}) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok, err := scalarValue(item)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, s)
			}
		}
		return out, nil
	case []string:
		return val, nil
	default:
		s, ok, err := scalarValue(val)
		if err != nil || !ok {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalarValue(v interface{}) (string, bool, error) {
	switch val := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return val, true, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true, nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true, nil
	case int:
		return strconv.Itoa(val), true, nil
	case int64:
		return strconv.FormatInt(val, 10), true, nil
	case json.Number:
		return val.String(), true, nil
	case bool:
		return strconv.FormatBool(val), true, nil
	default:
		return "", false, fmt.Errorf("unsupported value type %T", v)
	}
}

// WithWriteLock runs fn while no document can be added, giving fn a
// consistent view of the index and the document store.
func (s *Service) WithWriteLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// NumDocs returns the number of indexed documents.
func (s *Service) NumDocs() int {
	return int(s.invertedIndex.NextDocID())
}

func (s *Service) recordIndexed(n int) {
	if n > 0 {
		s.logger.Debug("documents indexed", zap.Int("count", n), zap.Uint32("next_doc_id", s.invertedIndex.NextDocID()))
	}
	if s.metrics == nil {
		return
	}
	s.metrics.DocsIndexedTotal.WithLabelValues(s.settings.Name).Add(float64(n))
	s.metrics.IndexDocCount.WithLabelValues(s.settings.Name).Set(float64(s.invertedIndex.NextDocID()))
}
