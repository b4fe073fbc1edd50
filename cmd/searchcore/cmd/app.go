package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"harshagw/searchcore/internal/config"
	"harshagw/searchcore/internal/crawler"
	"harshagw/searchcore/internal/entitystore"
	"harshagw/searchcore/internal/evaluator"
	"harshagw/searchcore/internal/indexer"
	"harshagw/searchcore/internal/metrics"
	"harshagw/searchcore/internal/processor"
	"harshagw/searchcore/internal/scoring"
	"harshagw/searchcore/internal/search"
	"harshagw/searchcore/internal/termindex"
)

// app wires the engine to the configured stores and adapters.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *entitystore.Store
	engine  *search.Engine
	metrics *metrics.Recorder
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.EntityStore.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := entitystore.Open(cfg.EntityStore.Path,
		entitystore.WithCacheSize(cfg.EntityStore.CacheSize),
		entitystore.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.NewRecorder(),
	}
	a.engine = search.NewEngine(search.WithLogger(logger), search.WithMetrics(a.metrics))
	if err := a.register(); err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) register() error {
	withLogger := crawler.WithLogger(a.logger)
	registrations := []error{
		a.engine.Crawlers().Register(crawler.EntityStoreTypeTag, crawler.NewEntityStore(a.store, withLogger)),
		a.engine.Crawlers().Register(crawler.JSONFileTypeTag, crawler.NewJSONFile(a.cfg.JSONFile.Path, withLogger)),
		a.engine.Evaluators().Register(evaluator.TypeTag, evaluator.New(evaluator.WithLogger(a.logger))),
		a.engine.Scorers().Register(scoring.TypeTag, scoring.NewStandard()),
		a.engine.Processors().Register(processor.EntityManagerTypeTag,
			processor.NewEntityManager(a.store, processor.WithLogger(a.logger))),
	}
	for _, err := range registrations {
		if err != nil {
			return err
		}
	}
	return nil
}

// buildIndex crawls every configured crawler and saves the resulting index.
func (a *app) buildIndex(ctx context.Context) (*termindex.Index, error) {
	ix := indexer.New(a.engine,
		indexer.WithParallelism(a.cfg.Index.Parallelism),
		indexer.WithLogger(a.logger),
	)
	idx, err := ix.Build(ctx, a.cfg.Crawlers, search.Properties(a.cfg.Properties))
	if err != nil {
		return nil, err
	}
	if err := idx.Save(a.cfg.Index.Path); err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to save index: %w", err)
	}
	return idx, nil
}

// openIndex opens the saved index, building it first if none exists.
func (a *app) openIndex(ctx context.Context) (*termindex.Index, error) {
	if _, err := os.Stat(a.cfg.Index.Path); os.IsNotExist(err) {
		a.logger.Info("no saved index, building", zap.String("path", a.cfg.Index.Path))
		return a.buildIndex(ctx)
	}
	return termindex.Open(a.cfg.Index.Path, nil)
}

func (a *app) properties(overrides map[string]string) search.Properties {
	return search.Properties(a.cfg.Properties).Merge(overrides)
}

func (a *app) Close() error {
	return a.store.Close()
}
