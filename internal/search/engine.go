package search

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/metrics"
	"harshagw/searchcore/internal/query"
	"harshagw/searchcore/internal/registry"
)

// Engine owns the four adapter registries and dispatches to them.
// Registries may be mutated while queries run.
type Engine struct {
	crawlers   *registry.Registry[CrawlerAdapter]
	evaluators *registry.Registry[QueryEvaluatorAdapter]
	scorers    *registry.Registry[ScorerFormulaBundle]
	processors *registry.Registry[ResultProcessorAdapter]

	logger  *zap.Logger
	metrics *metrics.Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records dispatch counts and latencies on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// NewEngine creates an engine with empty registries.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	withLogger := registry.WithLogger(e.logger)
	e.crawlers = registry.New[CrawlerAdapter]("crawler", withLogger)
	e.evaluators = registry.New[QueryEvaluatorAdapter]("evaluator", withLogger)
	e.scorers = registry.New[ScorerFormulaBundle]("scorer", withLogger)
	e.processors = registry.New[ResultProcessorAdapter]("processor", withLogger)
	return e
}

func (e *Engine) Crawlers() *registry.Registry[CrawlerAdapter] { return e.crawlers }
func (e *Engine) Evaluators() *registry.Registry[QueryEvaluatorAdapter] { return e.evaluators }
func (e *Engine) Scorers() *registry.Registry[ScorerFormulaBundle] { return e.scorers }
func (e *Engine) Processors() *registry.Registry[ResultProcessorAdapter] { return e.processors }
func (e *Engine) ListCrawlerTypes() []string { return e.crawlers.ListTypes() }
func (e *Engine) ListEvaluatorTypes() []string { return e.evaluators.ListTypes() }
func (e *Engine) ListScorerTypes() []string { return e.scorers.ListTypes() }
func (e *Engine) ListProcessorTypes() []string { return e.processors.ListTypes() }

// Crawl runs the crawler registered under typeTag.
func (e *Engine) Crawl(ctx context.Context, typeTag string, props Properties) ([]Document, error) {
	crawler, err := e.crawlers.Get(typeTag)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	docs, err := crawler.Crawl(ctx, props)
	e.observe(metrics.StageCrawl, typeTag, start, err)
	if err != nil {
		return nil, wrapAdapterError(typeTag, "crawl failed", err)
	}

	e.logger.Debug("crawl completed",
		zap.String("type_tag", typeTag),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

// EvaluateQuery dispatches root to the evaluator named by the
// query_evaluator_type property. The full property map is forwarded.
func (e *Engine) EvaluateQuery(ctx context.Context, index SearchIndex, root query.QueryNode, props Properties) (*SearchResult, error) {
	typeTag, err := props.Require(PropQueryEvaluatorType)
	if err != nil {
		return nil, err
	}
	evaluator, err := e.evaluators.Get(typeTag)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := evaluator.EvaluateQuery(ctx, index, root, props)
	e.observe(metrics.StageEvaluate, typeTag, start, err)
	if err != nil {
		return nil, wrapAdapterError(typeTag, "evaluation failed", err)
	}
	if result == nil {
		result = NewSearchResult()
	}

	e.logger.Debug("query evaluated",
		zap.String("type_tag", typeTag),
		zap.Stringer("query", root),
		zap.Int("hits", result.Len()),
	)
	return result, nil
}

// CalculateValue scores result with the formula named by formula_type and
// attaches the score to it. The bundle is the one named by scorer_type if
// set, otherwise the first registered bundle that declares the formula.
func (e *Engine) CalculateValue(result *SearchResult, index SearchIndex, props Properties) (float64, error) {
	formula, err := props.Require(PropFormulaType)
	if err != nil {
		return 0, err
	}

	typeTag, bundle, err := e.scorerFor(formula, props)
	if err != nil {
		return 0, err
	}
	if result == nil {
		result = NewSearchResult()
	}

	start := time.Now()
	value, err := bundle.CalculateValue(result, index, formula, props)
	e.observe(metrics.StageScore, typeTag, start, err)
	if err != nil {
		return 0, wrapAdapterError(typeTag, "scoring failed", err)
	}

	result.SetScore(value)
	e.logger.Debug("result scored",
		zap.String("type_tag", typeTag),
		zap.String("formula", formula),
		zap.Float64("score", value),
	)
	return value, nil
}

// CalculateFormula scores result with formulaType, which takes precedence
// over any formula_type in props.
func (e *Engine) CalculateFormula(result *SearchResult, index SearchIndex, formulaType string, props Properties) (float64, error) {
	return e.CalculateValue(result, index, props.With(PropFormulaType, formulaType))
}

func (e *Engine) scorerFor(formula string, props Properties) (string, ScorerFormulaBundle, error) {
	if typeTag, ok := props.Get(PropScorerType); ok {
		bundle, err := e.scorers.Get(typeTag)
		if err != nil {
			return "", nil, err
		}
		return typeTag, bundle, nil
	}

	var (
		found     ScorerFormulaBundle
		foundType string
	)
	e.scorers.Each(func(typeTag string, bundle ScorerFormulaBundle) bool {
		if slices.Contains(bundle.FormulaTypes(), formula) {
			found, foundType = bundle, typeTag
			return false
		}
		return true
	})
	if found == nil {
		return "", nil, internalErrors.NewInvalidFormulaTypeError(formula)
	}
	return foundType, found, nil
}

// ProcessResults dispatches to the processor named by processor_type. With
// no processor_type every hit passes through as an unmaterialized entity.
func (e *Engine) ProcessResults(ctx context.Context, result *SearchResult, props Properties) ([]Entity, error) {
	typeTag, ok := props.Get(PropProcessorType)
	if !ok {
		return passThrough(result), nil
	}
	processor, err := e.processors.Get(typeTag)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = NewSearchResult()
	}

	start := time.Now()
	entities, err := processor.ProcessResults(ctx, result, props)
	e.observe(metrics.StageProcess, typeTag, start, err)
	if err != nil {
		return nil, wrapAdapterError(typeTag, "processing failed", err)
	}

	e.logger.Debug("results processed",
		zap.String("type_tag", typeTag),
		zap.Int("entities", len(entities)),
	)
	return entities, nil
}

func passThrough(result *SearchResult) []Entity {
	entities := make([]Entity, 0, result.Len())
	if result == nil {
		return entities
	}
	for _, id := range result.HitList {
		entities = append(entities, Entity{
			ID:        id,
			ClassName: result.Attributes(id).ClassName(),
		})
	}
	return entities
}

func (e *Engine) observe(stage, typeTag string, start time.Time, err error) {
	e.metrics.ObserveDispatch(stage, typeTag, time.Since(start), err)
}

// wrapAdapterError keeps taxonomy errors as they are and wraps anything else.
func wrapAdapterError(typeTag, msg string, err error) error {
	if internalErrors.IsTaxonomy(err) {
		return err
	}
	return internalErrors.NewAdapterError(typeTag, msg, err)
}
