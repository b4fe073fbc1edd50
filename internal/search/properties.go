package search

import (
	"maps"

	internalErrors "harshagw/searchcore/internal/errors"
)

// Property keys read by the engine.
const (
	PropQueryEvaluatorType = "query_evaluator_type"
	PropFormulaType        = "formula_type"
	PropProcessorType      = "processor_type"
	PropScorerType         = "scorer_type"
	PropCrawlerType        = "crawler_type"
)

// Properties is the string map that selects adapters and carries their
// options. Adapters may read keys of their own.
type Properties map[string]string

// Get returns the value for key. Empty values count as absent.
func (p Properties) Get(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Require returns the value for key or a MissingPropertyError.
func (p Properties) Require(key string) (string, error) {
	v, ok := p.Get(key)
	if !ok {
		return "", internalErrors.NewMissingPropertyError(key)
	}
	return v, nil
}

// With returns a copy of p with key set to value.
func (p Properties) With(key, value string) Properties {
	out := p.Clone()
	out[key] = value
	return out
}

// Merge returns a copy of p overlaid with other.
func (p Properties) Merge(other Properties) Properties {
	out := p.Clone()
	maps.Copy(out, other)
	return out
}

// Clone returns a copy of p. The copy of a nil map is empty, not nil.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	maps.Copy(out, p)
	return out
}
