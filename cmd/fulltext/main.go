package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-fulltext-engine/api"
	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/internal/cache"
	"github.com/gcbaptista/go-fulltext-engine/internal/engine"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
	"github.com/gcbaptista/go-fulltext-engine/internal/logging"
	"github.com/gcbaptista/go-fulltext-engine/internal/metrics"
)

const version = "1.0.0"

func main() {
	var (
		help        = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "YAML configuration file")
		port        = flag.Int("port", 0, "Port to run the server on (overrides the config file)")
		dataDir     = flag.String("data-dir", "", "Directory to store index snapshots (overrides the config file)")
		schemaPath  = flag.String("schema", "", "YAML index settings; the index is created at startup if missing")
	)
	flag.Parse()

	if *help {
		fmt.Printf("Go Fulltext Engine - an in-memory full-text search server with a Lucene-style query language\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                                  # Start server with default settings\n", os.Args[0])
		fmt.Printf("  %s --config fulltext.yaml           # Load configuration from a file\n", os.Args[0])
		fmt.Printf("  %s --schema products.yaml --port 9000\n", os.Args[0])
		return
	}
	if *showVersion {
		fmt.Printf("Go Fulltext Engine v%s\n", version)
		return
	}

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, *schemaPath, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.ServerConfig, schemaPath string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	resultCache, err := cache.NewFromConfig(cfg.Cache, cache.WithLogger(logger.Named("cache")), cache.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("creating search cache: %w", err)
	}

	logger.Info("starting engine", zap.String("data_dir", cfg.Storage.DataDir), zap.String("cache", cfg.Cache.Backend))
	searchEngine := engine.NewEngine(cfg.Storage.DataDir,
		engine.WithLogger(logger.Named("engine")),
		engine.WithMetrics(m),
		engine.WithCache(resultCache),
		engine.WithSearchConfig(cfg.Search),
		engine.WithJobWorkers(cfg.Jobs.Workers),
	)
	defer searchEngine.Stop()

	if schemaPath != "" {
		if err := seedIndex(searchEngine, schemaPath, logger); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes), api.CORSMiddleware())
	api.SetupRoutes(router, searchEngine, api.WithLogger(logger.Named("http")), api.WithMetrics(m))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server listening", zap.Int("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// seedIndex creates the index described by a settings file unless it was
// already loaded from disk.
func seedIndex(searchEngine *engine.Engine, path string, logger *zap.Logger) error {
	settings, err := config.LoadIndexSettings(path)
	if err != nil {
		return fmt.Errorf("loading index settings: %w", err)
	}
	err = searchEngine.CreateIndex(settings)
	switch {
	case err == nil:
		logger.Info("index created from schema", zap.String("index", settings.Name), zap.String("schema", path))
	case stderrors.Is(err, errors.ErrIndexAlreadyExists):
		logger.Info("index already exists, schema ignored", zap.String("index", settings.Name))
	default:
		return fmt.Errorf("creating index from %s: %w", path, err)
	}
	return nil
}
