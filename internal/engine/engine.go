package engine

import (
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/internal/cache"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
	"github.com/gcbaptista/go-fulltext-engine/internal/jobs"
	"github.com/gcbaptista/go-fulltext-engine/internal/metrics"
	"github.com/gcbaptista/go-fulltext-engine/model"
	"github.com/gcbaptista/go-fulltext-engine/services"
)

const (
	dataDirPerm  = 0755
	settingsFile = "settings.gob"
	snapshotFile = "snapshot.gob"
)

// Engine manages multiple named indexes.
// It implements the services.IndexManager and services.JobManager interfaces.
type Engine struct {
	mu      sync.RWMutex
	indexes map[string]*IndexInstance
	dataDir string // Empty keeps every index in memory only

	jobManager *jobs.Manager
	search     config.SearchConfig
	cache      *cache.Cache
	metrics    *metrics.Metrics
	logger     *zap.Logger
	workers    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger shared by the engine and its indexes.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records engine metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCache caches search results of every index in c.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithSearchConfig sets limits and clause parallelism for searches.
func WithSearchConfig(cfg config.SearchConfig) Option {
	return func(e *Engine) { e.search = cfg }
}

// WithJobWorkers sets how many background jobs run at once.
func WithJobWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// NewEngine creates the index manager and loads the indexes found in dataDir.
func NewEngine(dataDir string, opts ...Option) *Engine {
	e := &Engine{
		indexes: make(map[string]*IndexInstance),
		dataDir: dataDir,
		search:  config.DefaultServerConfig().Search,
		logger:  zap.NewNop(),
		workers: 2,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.jobManager = jobs.NewManager(e.workers, jobs.WithLogger(e.logger), jobs.WithMetrics(e.metrics))
	e.jobManager.Start()

	if dataDir != "" {
		if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
			e.logger.Warn("could not create data directory, indexes stay in memory", zap.String("data_dir", dataDir), zap.Error(err))
			e.dataDir = ""
		} else {
			e.loadIndexesFromDisk()
		}
	}
	return e
}

// Stop waits for background jobs and releases the cache.
func (e *Engine) Stop() {
	e.jobManager.Stop()
	if err := e.cache.Close(); err != nil {
		e.logger.Warn("failed to close search cache", zap.Error(err))
	}
}

// GetIndex retrieves an index by its name.
func (e *Engine) GetIndex(name string) (services.IndexAccessor, error) {
	instance, err := e.instance(name)
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// GetIndexSettings retrieves the settings for a specific index.
func (e *Engine) GetIndexSettings(name string) (config.IndexSettings, error) {
	instance, err := e.instance(name)
	if err != nil {
		return config.IndexSettings{}, err
	}
	return instance.Settings(), nil
}

// ListIndexes returns the names of all indexes in ascending order.
func (e *Engine) ListIndexes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetJob retrieves a background job.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs lists the background jobs of an index.
func (e *Engine) ListJobs(indexName string, status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(indexName, status)
}

func (e *Engine) instance(name string) (*IndexInstance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return nil, errors.NewIndexNotFoundError(name)
	}
	return instance, nil
}
