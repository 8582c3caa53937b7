package engine

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
	"github.com/gcbaptista/go-fulltext-engine/model"
)

// AddDocumentsAsync indexes docs in a background job and persists the index
// when they are all in. It returns the job ID.
func (e *Engine) AddDocumentsAsync(indexName string, docs []model.Document) (string, error) {
	instance, err := e.instance(indexName)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", errors.NewValidationError("documents", "no documents provided")
	}

	jobID := e.jobManager.CreateJob(model.JobTypeAddDocuments, indexName, map[string]string{
		"document_count": strconv.Itoa(len(docs)),
	})

	err = e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		e.jobManager.UpdateJobProgress(job.ID, 0, len(docs), "Indexing documents")
		ids, err := instance.bulk.BulkAddDocuments(ctx, docs, func(done, total int) {
			e.jobManager.UpdateJobProgress(job.ID, done, total, "Indexing documents")
		})
		if err != nil {
			return fmt.Errorf("indexed %d of %d documents: %w", len(ids), len(docs), err)
		}

		e.jobManager.UpdateJobProgress(job.ID, len(ids), len(docs), "Persisting index")
		if err := e.persistIndexUnsafe(instance); err != nil {
			return err
		}
		e.logger.Info("documents added", zap.String("index", indexName), zap.String("job_id", job.ID), zap.Int("count", len(ids)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// PersistIndexAsync writes an index snapshot in a background job.
func (e *Engine) PersistIndexAsync(indexName string) (string, error) {
	instance, err := e.instance(indexName)
	if err != nil {
		return "", err
	}

	jobID := e.jobManager.CreateJob(model.JobTypePersistIndex, indexName, nil)
	err = e.jobManager.ExecuteJob(jobID, func(_ context.Context, _ *model.Job) error {
		return e.persistIndexUnsafe(instance)
	})
	if err != nil {
		return "", err
	}
	return jobID, nil
}
