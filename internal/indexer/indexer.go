// Package indexer crawls data sources through the engine's crawler registry
// and builds a term index from the documents.
package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"harshagw/searchcore/internal/analysis"
	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
	"harshagw/searchcore/internal/termindex"
)

// DefaultParallelism bounds the number of crawlers running at once.
const DefaultParallelism = 4

// Crawler is the part of the engine the indexer needs.
type Crawler interface {
	Crawl(ctx context.Context, typeTag string, props search.Properties) ([]search.Document, error)
}

// Indexer builds term indexes from crawled documents.
type Indexer struct {
	crawler     Crawler
	analyzer    analysis.Analyzer
	parallelism int
	logger      *zap.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithAnalyzer sets the analyzer used to build the index.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(ix *Indexer) {
		ix.analyzer = a
	}
}

// WithParallelism sets how many crawlers may run concurrently.
func WithParallelism(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.parallelism = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(ix *Indexer) {
		if l != nil {
			ix.logger = l
		}
	}
}

// New creates an indexer that crawls through c.
func New(c Crawler, opts ...Option) *Indexer {
	ix := &Indexer{crawler: c, parallelism: DefaultParallelism, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Build runs the crawlers named by typeTags concurrently and indexes their
// documents. Output is merged in typeTags order, so the same crawler output
// always yields the same index. The first crawler error cancels the rest.
func (ix *Indexer) Build(ctx context.Context, typeTags []string, props search.Properties) (*termindex.Index, error) {
	if len(typeTags) == 0 {
		return nil, internalErrors.NewValidationError("crawlers", "at least one crawler type is required")
	}

	start := time.Now()
	batches := make([][]search.Document, len(typeTags))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.parallelism)
	for i, tag := range typeTags {
		i, tag := i, tag
		g.Go(func() error {
			docs, err := ix.crawler.Crawl(gctx, tag, props)
			if err != nil {
				return err
			}
			batches[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := termindex.NewBuilder(ix.analyzer)
	for i, docs := range batches {
		for _, doc := range docs {
			if err := b.Add(doc); err != nil {
				return nil, fmt.Errorf("crawler %s: %w", typeTags[i], err)
			}
		}
	}

	idx, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	ix.logger.Info("index built",
		zap.Strings("crawlers", typeTags),
		zap.Uint64("documents", idx.TotalDocs()),
		zap.Uint64("terms", idx.NumTerms()),
		zap.Duration("took", time.Since(start)),
	)
	return idx, nil
}
