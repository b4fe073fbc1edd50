package scoring

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
)

type corpus struct {
	total   uint64
	lengths map[search.DocumentID]uint64
	avg     float64
}

func (c corpus) TotalDocs() uint64 { return c.total }
func (c corpus) DocLength(id search.DocumentID) uint64 { return c.lengths[id] }
func (c corpus) AvgDocLength() float64 { return c.avg }

func resultWith(tfs map[search.DocumentID]int, order ...search.DocumentID) *search.SearchResult {
	r := search.NewSearchResult()
	for _, id := range order {
		var attrs search.Attributes
		if tf, ok := tfs[id]; ok {
			attrs = search.Attributes{search.AttrTermFrequency: strconv.Itoa(tf)}
		}
		r.AddHit(id, attrs)
	}
	return r
}

func TestStandard_FormulaTypes(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{FormulaTermFrequency, FormulaTFIDF, FormulaBM25},
		NewStandard().FormulaTypes())
}

func TestTermFrequency_Monotonic(t *testing.T) {
	s := NewStandard()
	var prev float64 = -1
	r := search.NewSearchResult()
	for i := 0; i < 6; i++ {
		got, err := s.CalculateValue(r, nil, FormulaTermFrequency, nil)
		require.NoError(t, err)
		assert.Equal(t, float64(i), got)
		assert.Greater(t, got, prev)
		prev = got
		r.AddHit(search.DocumentID(i+1), nil)
	}
}

func TestTermFrequency_DoesNotMutateHits(t *testing.T) {
	r := resultWith(nil, 3, 1, 2)
	_, err := NewStandard().CalculateValue(r, nil, FormulaTermFrequency, nil)
	require.NoError(t, err)
	assert.Equal(t, []search.DocumentID{3, 1, 2}, r.HitList)
}

func TestTFIDF_Value(t *testing.T) {
	r := resultWith(map[search.DocumentID]int{1: 1, 2: 4}, 1, 2)

	got, err := NewStandard().CalculateValue(r, corpus{total: 10}, FormulaTFIDF, nil)
	require.NoError(t, err)

	idf := math.Log(11.0/3.0) + 1
	want := idf + (1+math.Log(4))*idf
	assert.InDelta(t, want, got, 1e-9)
}

func TestTFIDF_DefaultsTermFrequencyToOne(t *testing.T) {
	r := resultWith(nil, 1)
	got, err := NewStandard().CalculateValue(r, corpus{total: 1}, FormulaTFIDF, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestTFIDF_IgnoresInvalidTermFrequency(t *testing.T) {
	want, err := NewStandard().CalculateValue(resultWith(nil, 1), corpus{total: 4}, FormulaTFIDF, nil)
	require.NoError(t, err)

	for _, v := range []string{"NaN", "Inf", "0", "0.25", "-2"} {
		r := search.NewSearchResult()
		r.AddHit(1, search.Attributes{search.AttrTermFrequency: v})

		got, err := NewStandard().CalculateValue(r, corpus{total: 4}, FormulaTFIDF, nil)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(got), v)
		assert.InDelta(t, want, got, 1e-9, v)

		got, err = NewStandard().CalculateValue(r,
			corpus{total: 4, lengths: map[search.DocumentID]uint64{1: 3}, avg: 3}, FormulaBM25, nil)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(got), v)
		assert.Greater(t, got, 0.0, v)
	}
}

func TestTFIDF_EmptyResult(t *testing.T) {
	got, err := NewStandard().CalculateValue(search.NewSearchResult(), corpus{total: 5}, FormulaTFIDF, nil)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestTFIDF_RequiresStatistics(t *testing.T) {
	_, err := NewStandard().CalculateValue(resultWith(nil, 1), struct{}{}, FormulaTFIDF, nil)
	require.ErrorIs(t, err, internalErrors.ErrAdapter)
}

func TestBM25_HigherTermFrequencyHigherScore(t *testing.T) {
	c := corpus{total: 10, lengths: map[search.DocumentID]uint64{1: 5, 2: 5}, avg: 5}
	s := NewStandard()

	low, err := s.CalculateValue(resultWith(map[search.DocumentID]int{1: 1}, 1), c, FormulaBM25, nil)
	require.NoError(t, err)
	high, err := s.CalculateValue(resultWith(map[search.DocumentID]int{1: 3}, 1), c, FormulaBM25, nil)
	require.NoError(t, err)

	assert.Greater(t, high, low)
}

func TestBM25_LongerDocumentLowerScore(t *testing.T) {
	c := corpus{total: 10, lengths: map[search.DocumentID]uint64{1: 2, 2: 20}, avg: 11}
	s := NewStandard()

	short, err := s.CalculateValue(resultWith(nil, 1), c, FormulaBM25, nil)
	require.NoError(t, err)
	long, err := s.CalculateValue(resultWith(nil, 2), c, FormulaBM25, nil)
	require.NoError(t, err)

	assert.Greater(t, short, long)
}

func TestBM25_Parameters(t *testing.T) {
	c := corpus{total: 4, lengths: map[search.DocumentID]uint64{1: 3}, avg: 3}
	r := resultWith(map[search.DocumentID]int{1: 2}, 1)

	got, err := NewStandard().CalculateValue(r, c, FormulaBM25, search.Properties{PropBM25K1: "0"})
	require.NoError(t, err)
	idf := math.Log(1 + (4-1+0.5)/(1+0.5))
	assert.InDelta(t, idf, got, 1e-9)

	_, err = NewStandard().CalculateValue(r, c, FormulaBM25, search.Properties{PropBM25B: "abc"})
	require.ErrorIs(t, err, internalErrors.ErrInvalidInput)
}

func TestBM25_RequiresLengthStatistics(t *testing.T) {
	_, err := NewStandard().CalculateValue(resultWith(nil, 1), struct{ corpusOnlyTotal }{}, FormulaBM25, nil)
	require.ErrorIs(t, err, internalErrors.ErrAdapter)
}

type corpusOnlyTotal struct{}

func (corpusOnlyTotal) TotalDocs() uint64 { return 3 }

func TestUnknownFormula(t *testing.T) {
	_, err := NewStandard().CalculateValue(resultWith(nil, 1), nil, "pagerank", nil)
	require.ErrorIs(t, err, internalErrors.ErrInvalidFormulaType)
}
