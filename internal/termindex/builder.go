// Package termindex is an immutable term index over crawled documents: a
// vellum FST dictionary pointing into delta-encoded posting lists. An index
// is built in memory and can be saved to and mmapped from a file.
package termindex

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/couchbase/vellum"
	"github.com/golang/snappy"

	"harshagw/searchcore/internal/analysis"
	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
)

// Builder accumulates documents before building an immutable Index.
// It is not safe for concurrent use.
type Builder struct {
	analyzer analysis.Analyzer
	terms    map[string][]Posting
	docs     []docInfo
	ids      *roaring.Bitmap
	tokens   uint64
}

// NewBuilder creates a builder. A nil analyzer means analysis.Simple.
func NewBuilder(analyzer analysis.Analyzer) *Builder {
	if analyzer == nil {
		analyzer = analysis.NewSimple()
	}
	return &Builder{
		analyzer: analyzer,
		terms:    make(map[string][]Posting),
		ids:      roaring.New(),
	}
}

// Add indexes the text fields of doc. Fields are analyzed in name order and
// positions continue across fields with a gap, so phrases never span two
// fields.
func (b *Builder) Add(doc search.Document) error {
	if !b.ids.CheckedAdd(uint32(doc.ID)) {
		return internalErrors.NewValidationError("id", fmt.Sprintf("document %d already added", doc.ID))
	}

	names := make([]string, 0, len(doc.Fields))
	for name := range doc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	termPositions := make(map[string][]uint64)
	var base, length uint64
	for _, name := range names {
		for _, text := range fieldText(doc.Fields[name]) {
			tokens := b.analyzer.Analyze(text)
			for _, tok := range tokens {
				termPositions[tok.Term] = append(termPositions[tok.Term], base+tok.Position)
			}
			length += uint64(len(tokens))
			base += uint64(len(tokens)) + 1
		}
	}

	for term, positions := range termPositions {
		b.terms[term] = append(b.terms[term], Posting{
			DocID:     doc.ID,
			Frequency: uint64(len(positions)),
			Positions: positions,
		})
	}
	b.docs = append(b.docs, docInfo{ID: doc.ID, Class: doc.ClassName, Length: length})
	b.tokens += length
	return nil
}

// fieldText returns the strings held by a field value. Other types are not indexed.
func fieldText(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Len returns the number of documents added.
func (b *Builder) Len() int {
	return len(b.docs)
}

// Build encodes the accumulated documents into an Index.
func (b *Builder) Build() (*Index, error) {
	data, err := b.encode()
	if err != nil {
		return nil, err
	}
	return load(data, b.analyzer)
}

func (b *Builder) encode() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(Magic)
	binary.Write(&buf, binary.BigEndian, Version)

	termList := make([]string, 0, len(b.terms))
	for term := range b.terms {
		termList = append(termList, term)
	}
	sort.Strings(termList)

	// Postings first, collecting offsets relative to the region start.
	ft := footer{Version: Version, NumTerms: uint64(len(termList)), TotalTokens: b.tokens}
	ft.PostingsOffset = uint64(buf.Len())

	termOffsets := make([]uint64, len(termList))
	for i, term := range termList {
		postings := b.terms[term]
		slices.SortFunc(postings, func(a, c Posting) int {
			return cmp.Compare(a.DocID, c.DocID)
		})
		termOffsets[i] = uint64(buf.Len()) - ft.PostingsOffset
		buf.Write(EncodePostings(postings))
	}
	ft.PostingsSize = uint64(buf.Len()) - ft.PostingsOffset

	// FST dictionary: term -> postings offset.
	var fstBuf bytes.Buffer
	fstBuilder, err := vellum.New(&fstBuf, nil)
	if err != nil {
		return nil, err
	}
	for i, term := range termList {
		if err := fstBuilder.Insert([]byte(term), termOffsets[i]); err != nil {
			return nil, fmt.Errorf("failed to insert term %q: %w", term, err)
		}
	}
	if err := fstBuilder.Close(); err != nil {
		return nil, err
	}

	ft.DictOffset = uint64(buf.Len())
	binary.Write(&buf, binary.BigEndian, uint64(fstBuf.Len()))
	buf.Write(fstBuf.Bytes())
	ft.DictSize = uint64(buf.Len()) - ft.DictOffset

	ft.Docs = slices.Clone(b.docs)
	slices.SortFunc(ft.Docs, func(a, c docInfo) int {
		return cmp.Compare(a.ID, c.ID)
	})

	footerOffset := uint64(buf.Len())
	footerJSON, err := json.Marshal(ft)
	if err != nil {
		return nil, err
	}
	footerData := snappy.Encode(nil, footerJSON)
	buf.Write(footerData)

	binary.Write(&buf, binary.BigEndian, footerOffset)
	binary.Write(&buf, binary.BigEndian, uint64(len(footerData)))

	return buf.Bytes(), nil
}
