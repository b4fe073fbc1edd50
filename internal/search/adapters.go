package search

import (
	"context"

	"harshagw/searchcore/internal/query"
)

// CrawlerAdapter enumerates the documents of a data source.
type CrawlerAdapter interface {
	Crawl(ctx context.Context, props Properties) ([]Document, error)
}

// QueryEvaluatorAdapter turns a parsed query into hits over an index.
// The index is opaque to the engine and interpreted only by the adapter.
type QueryEvaluatorAdapter interface {
	EvaluateQuery(ctx context.Context, index SearchIndex, root query.QueryNode, props Properties) (*SearchResult, error)
}

// ScorerFormulaBundle computes one or more named scoring formulas.
type ScorerFormulaBundle interface {
	FormulaTypes() []string
	CalculateValue(result *SearchResult, index SearchIndex, formulaType string, props Properties) (float64, error)
}

// ResultProcessorAdapter materializes hits into entities.
type ResultProcessorAdapter interface {
	ProcessResults(ctx context.Context, result *SearchResult, props Properties) ([]Entity, error)
}

// EntityStore resolves a hit to its entity.
type EntityStore interface {
	Resolve(ctx context.Context, className string, id DocumentID) (Entity, error)
}
