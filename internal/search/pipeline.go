package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"harshagw/searchcore/internal/query"
)

// Response is the outcome of one Search call.
type Response struct {
	QueryID  string
	Root     query.QueryNode
	Result   *SearchResult
	Score    float64
	Scored   bool
	Entities []Entity
	Took     time.Duration
}

// Search parses queryString, evaluates it against index, scores the result
// when formula_type is set and processes the hits.
func (e *Engine) Search(ctx context.Context, index SearchIndex, queryString string, props Properties) (*Response, error) {
	start := time.Now()
	resp := &Response{QueryID: uuid.NewString()}
	logger := e.logger.With(zap.String("query_id", resp.QueryID))

	root, err := query.Parse(queryString)
	if err != nil {
		logger.Debug("query rejected", zap.String("query", queryString), zap.Error(err))
		return nil, err
	}
	resp.Root = root

	resp.Result, err = e.EvaluateQuery(ctx, index, root, props)
	if err != nil {
		return nil, err
	}

	if _, ok := props.Get(PropFormulaType); ok {
		resp.Score, err = e.CalculateValue(resp.Result, index, props)
		if err != nil {
			return nil, err
		}
		resp.Scored = true
	}

	resp.Entities, err = e.ProcessResults(ctx, resp.Result, props)
	if err != nil {
		return nil, err
	}

	resp.Took = time.Since(start)
	logger.Info("search completed",
		zap.Stringer("query", root),
		zap.Int("hits", resp.Result.Len()),
		zap.Bool("scored", resp.Scored),
		zap.Duration("took", resp.Took),
	)
	return resp, nil
}
