package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
)

// CreateIndex validates settings, creates the index and persists it.
func (e *Engine) CreateIndex(settings config.IndexSettings) error {
	if err := validateIndexName(settings.Name); err != nil {
		return err
	}
	settings.ApplyDefaults()
	if problems := settings.ValidateFieldNames(); len(problems) > 0 {
		return errors.NewValidationError("settings", strings.Join(problems, "; "))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indexes[settings.Name]; exists {
		return errors.NewIndexAlreadyExistsError(settings.Name)
	}

	instance, err := e.NewIndexInstance(settings)
	if err != nil {
		return fmt.Errorf("failed to create new index instance for '%s': %w", settings.Name, err)
	}
	if err := e.persistIndexUnsafe(instance); err != nil {
		return fmt.Errorf("failed to persist new index '%s': %w", settings.Name, err)
	}

	e.indexes[settings.Name] = instance
	e.logger.Info("index created", zap.String("index", settings.Name), zap.Int("fields", len(settings.Fields)))
	return nil
}

// DeleteIndex removes an index from memory and disk and drops its cached results.
func (e *Engine) DeleteIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indexes[name]; !exists {
		return errors.NewIndexNotFoundError(name)
	}
	delete(e.indexes, name)

	if err := e.cache.InvalidateIndex(context.Background(), name); err != nil {
		e.logger.Warn("failed to invalidate cached results", zap.String("index", name), zap.Error(err))
	}
	if e.metrics != nil {
		e.metrics.IndexDocCount.DeleteLabelValues(name)
	}

	if e.dataDir != "" {
		indexPath := filepath.Join(e.dataDir, name)
		if err := os.RemoveAll(indexPath); err != nil {
			return fmt.Errorf("failed to delete index data directory %s: %w", indexPath, err)
		}
	}
	e.logger.Info("index deleted", zap.String("index", name))
	return nil
}

// validateIndexName keeps index names usable as directory names and URL segments.
func validateIndexName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewValidationError("name", "index name cannot be empty")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\:*?"<>|`) {
		return errors.NewValidationError("name", fmt.Sprintf("index name '%s' contains characters that are not allowed", name))
	}
	return nil
}
