// Package evaluator implements the postings query evaluator: boolean
// evaluation of a query tree over a term index using roaring bitmaps.
package evaluator

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"

	"harshagw/searchcore/internal/analysis"
	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/query"
	"harshagw/searchcore/internal/search"
	"harshagw/searchcore/internal/termindex"
)

// TypeTag is the registry tag of the postings evaluator.
const TypeTag = "postings"

// PropMaxHits caps the number of hits returned.
const PropMaxHits = "postings.max_hits"

// prefixWildcard marks a bare term as a prefix match.
const prefixWildcard = "*"

// TermSource is the index surface the evaluator reads.
type TermSource interface {
	Lookup(term string) ([]termindex.Posting, error)
	PrefixTerms(prefix string) ([]string, error)
	ClassName(id search.DocumentID) (string, bool)
	Analyzer() analysis.Analyzer
}

// Postings evaluates queries against a TermSource.
//
// Bare terms and quoted phrases are analyzed with the index analyzer. A
// phrase matches only where its terms are adjacent. Adjacent terms and AND
// intersect, OR unions. A bare term ending in '*' matches every indexed term
// with that prefix. Hits are ranked by matched occurrences, then by id.
type Postings struct {
	logger *zap.Logger
}

// Option configures Postings.
type Option func(*Postings)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Postings) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a postings evaluator.
func New(opts ...Option) *Postings {
	p := &Postings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EvaluateQuery evaluates root against index, which must be a TermSource.
func (p *Postings) EvaluateQuery(ctx context.Context, index search.SearchIndex, root query.QueryNode, props search.Properties) (*search.SearchResult, error) {
	src, ok := index.(TermSource)
	if !ok {
		return nil, internalErrors.NewAdapterError(TypeTag, "index does not provide postings", nil)
	}

	maxHits, err := maxHitsProperty(props)
	if err != nil {
		return nil, err
	}

	v := &evalVisitor{ctx: ctx, src: src}
	query.WalkPostOrder(v, root)
	if v.err != nil {
		return nil, v.err
	}
	if len(v.stack) != 1 {
		return nil, internalErrors.NewAdapterError(TypeTag, "malformed query tree", nil)
	}

	matches := v.stack[0]
	hits := matches.ranked()
	if maxHits > 0 && len(hits) > maxHits {
		hits = hits[:maxHits]
	}

	result := search.NewSearchResult()
	for _, id := range hits {
		attrs := search.Attributes{
			search.AttrTermFrequency: strconv.FormatUint(matches.freq[id], 10),
		}
		if class, ok := src.ClassName(id); ok && class != "" {
			attrs[search.AttrEntityClassName] = class
		}
		result.AddHit(id, attrs)
	}

	p.logger.Debug("postings evaluated",
		zap.Stringer("query", root),
		zap.Uint64("matched", matches.docs.GetCardinality()),
		zap.Int("returned", len(hits)),
	)
	return result, nil
}

func maxHitsProperty(props search.Properties) (int, error) {
	raw, ok := props.Get(PropMaxHits)
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, internalErrors.NewValidationError(PropMaxHits, "must be a non-negative integer")
	}
	return n, nil
}

// matchSet is the documents matched by a subtree and their occurrence counts.
type matchSet struct {
	docs *roaring.Bitmap
	freq map[search.DocumentID]uint64
}

func newMatchSet() *matchSet {
	return &matchSet{docs: roaring.New(), freq: make(map[search.DocumentID]uint64)}
}

func (m *matchSet) add(id search.DocumentID, n uint64) {
	m.docs.Add(uint32(id))
	m.freq[id] += n
}

func (m *matchSet) and(o *matchSet) *matchSet {
	out := &matchSet{docs: roaring.And(m.docs, o.docs), freq: make(map[search.DocumentID]uint64)}
	it := out.docs.Iterator()
	for it.HasNext() {
		id := search.DocumentID(it.Next())
		out.freq[id] = m.freq[id] + o.freq[id]
	}
	return out
}

func (m *matchSet) or(o *matchSet) *matchSet {
	out := &matchSet{docs: roaring.Or(m.docs, o.docs), freq: make(map[search.DocumentID]uint64)}
	it := out.docs.Iterator()
	for it.HasNext() {
		id := search.DocumentID(it.Next())
		out.freq[id] = m.freq[id] + o.freq[id]
	}
	return out
}

// ranked orders documents by occurrence count descending, then id ascending.
func (m *matchSet) ranked() []search.DocumentID {
	ids := make([]search.DocumentID, 0, m.docs.GetCardinality())
	it := m.docs.Iterator()
	for it.HasNext() {
		ids = append(ids, search.DocumentID(it.Next()))
	}
	slices.SortStableFunc(ids, func(a, b search.DocumentID) int {
		return cmp.Compare(m.freq[b], m.freq[a])
	})
	return ids
}

// evalVisitor evaluates the tree bottom-up with a stack of match sets.
type evalVisitor struct {
	ctx   context.Context
	src   TermSource
	stack []*matchSet
	err   error
}

func (v *evalVisitor) VisitChildren() bool {
	return v.err == nil
}

func (v *evalVisitor) Visit(n query.Node) {
	if v.err != nil {
		return
	}
	if err := v.ctx.Err(); err != nil {
		v.err = err
		return
	}

	switch node := n.(type) {
	case *query.QuotedNode:
		v.pushTerms(analyzeAll(v.src.Analyzer(), node.TermValueList()))
	case *query.TermNode:
		v.pushTerm(node.TermValue())
	case *query.SimpleQueryNode:
		// the wrapped term is already on the stack
	case *query.MultipleTermNode, *query.AndBooleanQueryNode:
		v.combine(len(n.Children()), (*matchSet).and)
	case *query.OrBooleanQueryNode:
		v.combine(len(n.Children()), (*matchSet).or)
	}
}

func (v *evalVisitor) combine(arity int, op func(*matchSet, *matchSet) *matchSet) {
	if arity == 0 {
		v.stack = append(v.stack, newMatchSet())
		return
	}
	if len(v.stack) < arity {
		v.err = internalErrors.NewAdapterError(TypeTag, "malformed query tree", nil)
		return
	}
	operands := v.stack[len(v.stack)-arity:]
	acc := operands[0]
	for _, next := range operands[1:] {
		acc = op(acc, next)
	}
	v.stack = append(v.stack[:len(v.stack)-arity], acc)
}

func (v *evalVisitor) pushTerm(raw string) {
	if prefix, ok := strings.CutSuffix(raw, prefixWildcard); ok && prefix != "" {
		if terms := analysis.Terms(v.src.Analyzer(), prefix); len(terms) == 1 {
			v.pushPrefix(terms[0])
			return
		}
	}
	v.pushTerms(analysis.Terms(v.src.Analyzer(), raw))
}

// pushTerms pushes the match set of a single term, or of a phrase when the
// text analyzed to several terms.
func (v *evalVisitor) pushTerms(terms []string) {
	var (
		m   *matchSet
		err error
	)
	switch len(terms) {
	case 0:
		m = newMatchSet()
	case 1:
		m, err = v.termMatches(terms[0])
	default:
		m, err = v.phraseMatches(terms)
	}
	if err != nil {
		v.err = internalErrors.NewAdapterError(TypeTag, "postings lookup failed", err)
		return
	}
	v.stack = append(v.stack, m)
}

func (v *evalVisitor) pushPrefix(prefix string) {
	terms, err := v.src.PrefixTerms(prefix)
	if err != nil {
		v.err = internalErrors.NewAdapterError(TypeTag, "prefix expansion failed", err)
		return
	}
	m := newMatchSet()
	for _, term := range terms {
		tm, err := v.termMatches(term)
		if err != nil {
			v.err = internalErrors.NewAdapterError(TypeTag, "postings lookup failed", err)
			return
		}
		m = m.or(tm)
	}
	v.stack = append(v.stack, m)
}

func (v *evalVisitor) termMatches(term string) (*matchSet, error) {
	postings, err := v.src.Lookup(term)
	if err != nil {
		return nil, err
	}
	m := newMatchSet()
	for _, p := range postings {
		m.add(p.DocID, p.Frequency)
	}
	return m, nil
}

// phraseMatches returns documents where terms occur at consecutive positions,
// counting each occurrence of the whole phrase.
func (v *evalVisitor) phraseMatches(terms []string) (*matchSet, error) {
	termPostings := make([]map[search.DocumentID][]uint64, len(terms))
	var candidates *roaring.Bitmap

	for i, term := range terms {
		postings, err := v.src.Lookup(term)
		if err != nil {
			return nil, err
		}
		docs := roaring.New()
		termPostings[i] = make(map[search.DocumentID][]uint64, len(postings))
		for _, p := range postings {
			docs.Add(uint32(p.DocID))
			termPostings[i][p.DocID] = p.Positions
		}
		if candidates == nil {
			candidates = docs
		} else {
			candidates.And(docs)
		}
		if candidates.IsEmpty() {
			return newMatchSet(), nil
		}
	}

	m := newMatchSet()
	it := candidates.Iterator()
	for it.HasNext() {
		id := search.DocumentID(it.Next())
		positions := make([][]uint64, len(terms))
		for i := range terms {
			positions[i] = termPostings[i][id]
		}
		if n := phraseOccurrences(positions); n > 0 {
			m.add(id, n)
		}
	}
	return m, nil
}

// phraseOccurrences counts start positions p in positions[0] such that
// positions[i] contains p+i for every i.
func phraseOccurrences(positions [][]uint64) uint64 {
	if len(positions) == 0 {
		return 0
	}

	var n uint64
	for _, start := range positions[0] {
		ok := true
		for i := 1; i < len(positions); i++ {
			if _, found := slices.BinarySearch(positions[i], start+uint64(i)); !found {
				ok = false
				break
			}
		}
		if ok {
			n++
		}
	}
	return n
}

func analyzeAll(a analysis.Analyzer, words []string) []string {
	var terms []string
	for _, w := range words {
		terms = append(terms, analysis.Terms(a, w)...)
	}
	return terms
}
