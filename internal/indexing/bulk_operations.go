package indexing

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/model"
)

// BulkIndexingConfig contains configuration for bulk indexing operations
type BulkIndexingConfig struct {
	BatchSize int // Documents applied per writer-lock acquisition
	Workers   int // Goroutines converting documents to fields
}

// DefaultBulkIndexingConfig returns sensible defaults for bulk indexing
func DefaultBulkIndexingConfig() BulkIndexingConfig {
	return BulkIndexingConfig{
		BatchSize: 500,
		Workers:   runtime.NumCPU(),
	}
}

// ProgressFunc receives the number of documents indexed so far.
type ProgressFunc func(done, total int)

// BulkIndexer adds large document sets. Conversion runs in parallel; the
// converted documents are then applied in batches so searches can take
// snapshots between them.
type BulkIndexer struct {
	service *Service
	config  BulkIndexingConfig
}

// NewBulkIndexer creates a new bulk indexer with the given configuration
func NewBulkIndexer(service *Service, config BulkIndexingConfig) *BulkIndexer {
	defaults := DefaultBulkIndexingConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	return &BulkIndexer{service: service, config: config}
}

// BulkAddDocuments validates and converts all documents, then indexes them
// in order. If ctx is cancelled between batches, the IDs of the documents
// already indexed are returned with the context error.
func (bi *BulkIndexer) BulkAddDocuments(ctx context.Context, docs []model.Document, progress ProgressFunc) ([]uint32, error) {
	converted, err := bi.convert(ctx, docs)
	if err != nil {
		return nil, err
	}

	bi.service.mu.Lock()
	err = bi.service.checkBatchLocked(converted)
	bi.service.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ids := make([]uint32, 0, len(docs))
	for start := 0; start < len(converted); start += bi.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return ids, err
		}
		end := min(start+bi.config.BatchSize, len(converted))
		batchIDs, err := bi.service.addBatch(converted[start:end])
		ids = append(ids, batchIDs...)
		if err != nil {
			return ids, fmt.Errorf("failed to add batch starting at document %d: %w", start, err)
		}
		if progress != nil {
			progress(len(ids), len(docs))
		}
	}

	bi.service.logger.Info("bulk indexing finished", zap.Int("documents", len(ids)))
	return ids, nil
}

// convert runs DocumentFields on every document using the configured workers.
func (bi *BulkIndexer) convert(ctx context.Context, docs []model.Document) ([][]index.Field, error) {
	converted := make([][]index.Field, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bi.config.Workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fields, err := bi.service.DocumentFields(doc)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			converted[i] = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return converted, nil
}
