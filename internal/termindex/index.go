package termindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring"
	"github.com/couchbase/vellum"
	"github.com/edsrzf/mmap-go"
	"github.com/golang/snappy"

	"harshagw/searchcore/internal/analysis"
	"harshagw/searchcore/internal/search"
)

// Index is an immutable term index. It is safe for concurrent reads.
type Index struct {
	data   []byte
	file   *os.File
	mapped mmap.MMap

	fst      *vellum.FST
	footer   footer
	docs     map[search.DocumentID]docInfo
	ids      *roaring.Bitmap
	analyzer analysis.Analyzer
}

// Open maps an index file written by Save. A nil analyzer means analysis.Simple;
// it must match the analyzer the index was built with.
func Open(path string, analyzer analysis.Analyzer) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if stat.Size() < int64(headerSize+trailerSize) {
		file.Close()
		return nil, fmt.Errorf("index file too small: %s", path)
	}

	mapped, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap index %s: %w", path, err)
	}

	idx, err := load(mapped, analyzer)
	if err != nil {
		mapped.Unmap()
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	idx.file = file
	idx.mapped = mapped
	return idx, nil
}

func load(data []byte, analyzer analysis.Analyzer) (*Index, error) {
	if analyzer == nil {
		analyzer = analysis.NewSimple()
	}
	if len(data) < headerSize+trailerSize {
		return nil, fmt.Errorf("index data too small")
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("invalid index magic")
	}
	if v := binary.BigEndian.Uint32(data[len(Magic):headerSize]); v != Version {
		return nil, fmt.Errorf("unsupported index version %d", v)
	}

	footerOffset := binary.BigEndian.Uint64(data[len(data)-16 : len(data)-8])
	footerSize := binary.BigEndian.Uint64(data[len(data)-8:])
	bodyEnd := uint64(len(data) - trailerSize)
	if footerOffset < uint64(headerSize) || footerOffset > bodyEnd || footerSize > bodyEnd-footerOffset {
		return nil, fmt.Errorf("index footer out of range")
	}

	footerJSON, err := snappy.Decode(nil, data[footerOffset:footerOffset+footerSize])
	if err != nil {
		return nil, fmt.Errorf("failed to decompress index footer: %w", err)
	}
	var ft footer
	if err := json.Unmarshal(footerJSON, &ft); err != nil {
		return nil, fmt.Errorf("failed to parse index footer: %w", err)
	}

	if err := checkRegions(ft, footerOffset); err != nil {
		return nil, err
	}

	// FST data starts after the 8-byte size prefix
	fstSize := binary.BigEndian.Uint64(data[ft.DictOffset:])
	if fstSize > footerOffset-ft.DictOffset-8 {
		return nil, fmt.Errorf("term dictionary out of range")
	}
	fst, err := vellum.Load(data[ft.DictOffset+8 : ft.DictOffset+8+fstSize])
	if err != nil {
		return nil, fmt.Errorf("failed to load term dictionary: %w", err)
	}

	docs := make(map[search.DocumentID]docInfo, len(ft.Docs))
	ids := roaring.New()
	for _, d := range ft.Docs {
		docs[d.ID] = d
		ids.Add(uint32(d.ID))
	}

	return &Index{
		data:     data,
		fst:      fst,
		footer:   ft,
		docs:     docs,
		ids:      ids,
		analyzer: analyzer,
	}, nil
}

// checkRegions verifies that the postings and dictionary regions named by ft
// lie in order between the header and the footer.
func checkRegions(ft footer, footerOffset uint64) error {
	if ft.PostingsOffset < uint64(headerSize) || ft.PostingsOffset > ft.DictOffset ||
		ft.PostingsSize > ft.DictOffset-ft.PostingsOffset {
		return fmt.Errorf("index postings out of range")
	}
	if ft.DictOffset > footerOffset || footerOffset-ft.DictOffset < 8 ||
		ft.DictSize > footerOffset-ft.DictOffset {
		return fmt.Errorf("term dictionary out of range")
	}
	return nil
}

// Lookup returns the postings of term sorted by document id, or nil if the
// term is not in the index. term is matched as-is, not analyzed.
func (i *Index) Lookup(term string) ([]Posting, error) {
	offset, exists, err := i.fst.Get([]byte(term))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	if offset >= i.footer.PostingsSize {
		return nil, fmt.Errorf("postings offset %d of term %q out of range", offset, term)
	}
	start := i.footer.PostingsOffset + offset
	end := i.footer.PostingsOffset + i.footer.PostingsSize
	return DecodePostings(i.data[start:end])
}

// Postings returns the documents containing term.
func (i *Index) Postings(term string) (*roaring.Bitmap, error) {
	postings, err := i.Lookup(term)
	if err != nil {
		return nil, err
	}
	bm := roaring.New()
	for _, p := range postings {
		bm.Add(uint32(p.DocID))
	}
	return bm, nil
}

// DocFreq returns the number of documents containing term.
func (i *Index) DocFreq(term string) (uint64, error) {
	postings, err := i.Lookup(term)
	if err != nil {
		return 0, err
	}
	return uint64(len(postings)), nil
}

// PrefixTerms returns the indexed terms starting with prefix, in order.
func (i *Index) PrefixTerms(prefix string) ([]string, error) {
	start := []byte(prefix)
	end := prefixSuccessor(start)

	iter, err := i.fst.Iterator(start, end)
	if err == vellum.ErrIteratorDone {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}

	var terms []string
	for err == nil {
		key, _ := iter.Current()
		terms = append(terms, string(key))
		err = iter.Next()
	}
	if err != vellum.ErrIteratorDone {
		return nil, err
	}
	return terms, nil
}

// TotalDocs returns the number of indexed documents.
func (i *Index) TotalDocs() uint64 {
	return uint64(len(i.footer.Docs))
}

// NumTerms returns the number of distinct terms.
func (i *Index) NumTerms() uint64 {
	return i.footer.NumTerms
}

// DocLength returns the number of tokens indexed for id.
func (i *Index) DocLength(id search.DocumentID) uint64 {
	return i.docs[id].Length
}

// AvgDocLength returns the mean document length in tokens.
func (i *Index) AvgDocLength() float64 {
	if len(i.footer.Docs) == 0 {
		return 0
	}
	return float64(i.footer.TotalTokens) / float64(len(i.footer.Docs))
}

// ClassName returns the entity class of id.
func (i *Index) ClassName(id search.DocumentID) (string, bool) {
	d, ok := i.docs[id]
	if !ok {
		return "", false
	}
	return d.Class, true
}

// Documents returns the ids of all indexed documents.
func (i *Index) Documents() *roaring.Bitmap {
	return i.ids.Clone()
}

// Analyzer returns the analyzer used to normalize query text.
func (i *Index) Analyzer() analysis.Analyzer {
	return i.analyzer
}

// Save writes the index to path atomically.
func (i *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, i.data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Close releases the file mapping, if any.
func (i *Index) Close() error {
	if i.fst != nil {
		i.fst.Close()
		i.fst = nil
	}
	if i.mapped != nil {
		i.mapped.Unmap()
		i.mapped = nil
	}
	if i.file != nil {
		err := i.file.Close()
		i.file = nil
		return err
	}
	return nil
}
