// Package scoring provides the standard scorer formula bundle.
package scoring

import (
	"math"
	"strconv"

	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
)

// TypeTag is the registry tag of the standard bundle.
const TypeTag = "standard"

// Formula types computed by Standard.
const (
	FormulaTermFrequency = "term_frequency"
	FormulaTFIDF         = "tf_idf"
	FormulaBM25          = "bm25"
)

// BM25 defaults.
const (
	DefaultBM25K1 = 1.2
	DefaultBM25B  = 0.75
)

// Property keys overriding the BM25 parameters.
const (
	PropBM25K1 = "bm25.k1"
	PropBM25B  = "bm25.b"
)

// Statistics is what tf_idf needs from an index.
type Statistics interface {
	TotalDocs() uint64
}

// LengthStatistics is what bm25 needs from an index.
type LengthStatistics interface {
	Statistics
	DocLength(id search.DocumentID) uint64
	AvgDocLength() float64
}

// Standard computes term frequency, tf-idf and BM25 over a search result.
type Standard struct{}

// NewStandard creates the standard bundle.
func NewStandard() *Standard {
	return &Standard{}
}

// FormulaTypes returns the formulas this bundle knows.
func (s *Standard) FormulaTypes() []string {
	return []string{FormulaTermFrequency, FormulaTFIDF, FormulaBM25}
}

// CalculateValue computes formulaType over result.
func (s *Standard) CalculateValue(result *search.SearchResult, index search.SearchIndex, formulaType string, props search.Properties) (float64, error) {
	switch formulaType {
	case FormulaTermFrequency:
		return float64(result.Len()), nil
	case FormulaTFIDF:
		stats, ok := index.(Statistics)
		if !ok {
			return 0, internalErrors.NewAdapterError(TypeTag, "tf_idf requires an index with corpus statistics", nil)
		}
		return tfidf(result, stats), nil
	case FormulaBM25:
		stats, ok := index.(LengthStatistics)
		if !ok {
			return 0, internalErrors.NewAdapterError(TypeTag, "bm25 requires an index with document length statistics", nil)
		}
		k1, err := floatProperty(props, PropBM25K1, DefaultBM25K1)
		if err != nil {
			return 0, err
		}
		b, err := floatProperty(props, PropBM25B, DefaultBM25B)
		if err != nil {
			return 0, err
		}
		return bm25(result, stats, k1, b), nil
	default:
		return 0, internalErrors.NewInvalidFormulaTypeError(formulaType)
	}
}

// tfidf sums (1 + ln tf) * idf over the hits, with idf = ln((N+1)/(df+1)) + 1
// and df the number of hits.
func tfidf(result *search.SearchResult, stats Statistics) float64 {
	df := result.Len()
	if df == 0 {
		return 0
	}
	idf := math.Log(float64(stats.TotalDocs()+1)/float64(df+1)) + 1.0

	var score float64
	for _, id := range result.HitList {
		tf := termFrequency(result, id)
		if tf > 0 {
			score += (1.0 + math.Log(tf)) * idf
		}
	}
	return score
}

func bm25(result *search.SearchResult, stats LengthStatistics, k1, b float64) float64 {
	df := float64(result.Len())
	if df == 0 {
		return 0
	}
	totalDocs := float64(stats.TotalDocs())
	idf := math.Log(1 + (totalDocs-df+0.5)/(df+0.5))

	avgLen := stats.AvgDocLength()
	if avgLen == 0 {
		avgLen = 1
	}

	var score float64
	for _, id := range result.HitList {
		tf := termFrequency(result, id)
		docLen := float64(stats.DocLength(id))
		if docLen == 0 {
			docLen = avgLen
		}
		score += idf * (tf * (k1 + 1)) / (tf + k1*(1-b+b*docLen/avgLen))
	}
	return score
}

// termFrequency defaults to 1 when the evaluator did not record one.
func termFrequency(result *search.SearchResult, id search.DocumentID) float64 {
	if tf, ok := result.Attributes(id).TermFrequency(); ok {
		return tf
	}
	return 1
}

func floatProperty(props search.Properties, key string, def float64) (float64, error) {
	raw, ok := props.Get(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, internalErrors.NewValidationError(key, "must be a non-negative number")
	}
	return v, nil
}
