package engine

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-fulltext-engine/analysis"
	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/internal/persistence"
	"github.com/gcbaptista/go-fulltext-engine/store"
)

// loadIndexesFromDisk loads every index directory found in the data directory.
// Indexes that cannot be read are skipped with a warning.
func (e *Engine) loadIndexesFromDisk() {
	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		e.logger.Warn("failed to read data directory, no indexes loaded", zap.String("data_dir", e.dataDir), zap.Error(err))
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		instance, err := e.loadIndex(item.Name())
		if err != nil {
			e.logger.Warn("skipping index", zap.String("index", item.Name()), zap.Error(err))
			continue
		}
		e.indexes[item.Name()] = instance
		e.logger.Info("index loaded", zap.String("index", item.Name()), zap.Int("documents", instance.indexer.NumDocs()))
		if e.metrics != nil {
			e.metrics.IndexDocCount.WithLabelValues(item.Name()).Set(float64(instance.indexer.NumDocs()))
		}
	}
}

// indexSnapshot holds the postings and stored fields of an index. They are
// written as one file so a crash never leaves them from different moments.
type indexSnapshot struct {
	InvertedIndex *index.InvertedIndex
	DocumentStore *store.DocumentStore
}

// loadIndex reads the settings and snapshot of one index. A missing snapshot
// yields an empty index; a corrupted or inconsistent one fails the index.
func (e *Engine) loadIndex(name string) (*IndexInstance, error) {
	indexPath := filepath.Join(e.dataDir, name)

	var settings config.IndexSettings
	if err := persistence.LoadGob(filepath.Join(indexPath, settingsFile), &settings); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.Name != name {
		return nil, fmt.Errorf("settings name '%s' does not match directory name", settings.Name)
	}
	settings.ApplyDefaults()

	snapshot := indexSnapshot{
		InvertedIndex: index.NewInvertedIndex(nil),
		DocumentStore: store.NewDocumentStore(),
	}
	if err := persistence.LoadGob(filepath.Join(indexPath, snapshotFile), &snapshot); err != nil {
		if !stderrors.Is(err, persistence.ErrNotExist) {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
		e.logger.Info("no snapshot, starting empty", zap.String("index", name))
	}
	// Documents without stored fields have no store entry, so the store may be smaller.
	if stored, indexed := snapshot.DocumentStore.Len(), int(snapshot.InvertedIndex.NextDocID()); stored > indexed {
		return nil, fmt.Errorf("snapshot holds %d stored documents but only %d indexed", stored, indexed)
	}
	snapshot.InvertedIndex.SetAnalyzer(analysis.New(settings.Analyzer))

	return e.newInstance(settings, snapshot.InvertedIndex, snapshot.DocumentStore)
}

// PersistIndexData writes the settings and snapshot of an index to disk.
// Writes are held off while the snapshot is taken.
func (e *Engine) PersistIndexData(indexName string) error {
	instance, err := e.instance(indexName)
	if err != nil {
		return err
	}
	return e.persistIndexUnsafe(instance)
}

// persistIndexUnsafe saves an index instance. It does nothing when the
// engine runs without a data directory. Settings never change after
// creation, so only the snapshot has to be replaced atomically.
func (e *Engine) persistIndexUnsafe(instance *IndexInstance) error {
	if e.dataDir == "" {
		return nil
	}
	name := instance.settings.Name
	indexPath := filepath.Join(e.dataDir, name)
	if err := os.MkdirAll(indexPath, dataDirPerm); err != nil {
		return fmt.Errorf("failed to create directory for index %s: %w", name, err)
	}

	return instance.indexer.WithWriteLock(func() error {
		if err := persistence.SaveGob(filepath.Join(indexPath, settingsFile), *instance.settings); err != nil {
			return fmt.Errorf("failed to save settings for index %s: %w", name, err)
		}
		snapshot := indexSnapshot{InvertedIndex: instance.InvertedIndex, DocumentStore: instance.DocumentStore}
		if err := persistence.SaveGob(filepath.Join(indexPath, snapshotFile), snapshot); err != nil {
			return fmt.Errorf("failed to save snapshot for index %s: %w", name, err)
		}
		e.logger.Debug("index persisted", zap.String("index", name), zap.String("path", indexPath))
		return nil
	})
}
