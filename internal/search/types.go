// Package search holds the data model shared by every adapter and the Engine
// that dispatches queries to them.
package search

import (
	"math"
	"strconv"
)

// DocumentID identifies an indexed document.
type DocumentID uint32

// Well-known attribute keys.
const (
	AttrEntityClassName = "entity_class_name"
	AttrTermFrequency   = "term_frequency"
)

// Attributes is the per-hit metadata an evaluator attaches to a result.
type Attributes map[string]string

// ClassName returns the entity class name, or "" if unset.
func (a Attributes) ClassName() string {
	return a[AttrEntityClassName]
}

// TermFrequency returns the parsed term frequency attribute. A value that
// is not a finite number of at least 1 is reported as absent.
func (a Attributes) TermFrequency() (float64, bool) {
	v, ok := a[AttrTermFrequency]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return 0, false
	}
	return f, true
}

// SearchResult is the output of a query evaluation.
// HitList is ordered by the evaluator's ranking; scoring never reorders it.
type SearchResult struct {
	HitList             []DocumentID
	DocumentInformation map[DocumentID]Attributes

	score  float64
	scored bool
}

// NewSearchResult creates an empty result.
func NewSearchResult() *SearchResult {
	return &SearchResult{DocumentInformation: make(map[DocumentID]Attributes)}
}

// AddHit appends id to the hit list and records its attributes.
func (r *SearchResult) AddHit(id DocumentID, attrs Attributes) {
	r.HitList = append(r.HitList, id)
	if attrs != nil {
		if r.DocumentInformation == nil {
			r.DocumentInformation = make(map[DocumentID]Attributes)
		}
		r.DocumentInformation[id] = attrs
	}
}

// Attributes returns the attributes recorded for id, or nil.
func (r *SearchResult) Attributes(id DocumentID) Attributes {
	if r == nil {
		return nil
	}
	return r.DocumentInformation[id]
}

// Len returns the number of hits.
func (r *SearchResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.HitList)
}

// SetScore attaches a score to the result.
func (r *SearchResult) SetScore(v float64) {
	r.score = v
	r.scored = true
}

// Score returns the attached score and whether one was set.
func (r *SearchResult) Score() (float64, bool) {
	return r.score, r.scored
}

// SearchIndex is whatever an evaluator searches. The engine never inspects it.
type SearchIndex any

// Document is one unit produced by a crawler.
type Document struct {
	ID        DocumentID     `json:"id"`
	ClassName string         `json:"class"`
	Fields    map[string]any `json:"fields"`
}

// Entity is a hit after result processing. An unmaterialized entity carries
// only its id and, when known, its class name.
type Entity struct {
	ID        DocumentID     `json:"id"`
	ClassName string         `json:"class"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Materialized reports whether the entity was resolved to its fields.
func (e Entity) Materialized() bool {
	return e.Fields != nil
}
