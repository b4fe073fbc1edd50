package termindex

import (
	"encoding/binary"
	"fmt"

	"harshagw/searchcore/internal/search"
)

// Index file format constants.
//
//	magic | version | postings | dict size | FST | snappy(json footer) | footer offset | footer size
const (
	Magic   = "SCTI"
	Version = uint32(1)

	headerSize  = len(Magic) + 4
	trailerSize = 16
)

// Posting is one document's occurrences of a term.
type Posting struct {
	DocID     search.DocumentID
	Frequency uint64
	Positions []uint64
}

type footer struct {
	Version        uint32    `json:"version"`
	PostingsOffset uint64    `json:"postings_offset"`
	PostingsSize   uint64    `json:"postings_size"`
	DictOffset     uint64    `json:"dict_offset"`
	DictSize       uint64    `json:"dict_size"`
	NumTerms       uint64    `json:"num_terms"`
	TotalTokens    uint64    `json:"total_tokens"`
	Docs           []docInfo `json:"docs"`
}

type docInfo struct {
	ID     search.DocumentID `json:"id"`
	Class  string            `json:"class,omitempty"`
	Length uint64            `json:"len"`
}

// EncodePostings encodes a posting list sorted by DocID with delta encoding.
func EncodePostings(postings []Posting) []byte {
	buf := make([]byte, 0, len(postings)*16)
	tmp := make([]byte, binary.MaxVarintLen64)

	n := binary.PutUvarint(tmp, uint64(len(postings)))
	buf = append(buf, tmp[:n]...)

	var prevDoc uint64
	for _, p := range postings {
		n = binary.PutUvarint(tmp, uint64(p.DocID)-prevDoc)
		buf = append(buf, tmp[:n]...)
		prevDoc = uint64(p.DocID)
	}

	for _, p := range postings {
		n = binary.PutUvarint(tmp, p.Frequency)
		buf = append(buf, tmp[:n]...)
	}

	for _, p := range postings {
		n = binary.PutUvarint(tmp, uint64(len(p.Positions)))
		buf = append(buf, tmp[:n]...)

		var prevPos uint64
		for _, pos := range p.Positions {
			n = binary.PutUvarint(tmp, pos-prevPos)
			buf = append(buf, tmp[:n]...)
			prevPos = pos
		}
	}

	return buf
}

// DecodePostings decodes a posting list written by EncodePostings.
// Trailing bytes after the list are ignored.
func DecodePostings(data []byte) ([]Posting, error) {
	r := newByteReader(data)

	count, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if count > uint64(len(data)) {
		return nil, fmt.Errorf("posting count %d exceeds encoded size", count)
	}

	postings := make([]Posting, count)

	var prevDoc uint64
	for i := range postings {
		delta, err := r.ReadUvarint()
		if err != nil {
			return nil, err
		}
		prevDoc += delta
		postings[i].DocID = search.DocumentID(prevDoc)
	}

	for i := range postings {
		if postings[i].Frequency, err = r.ReadUvarint(); err != nil {
			return nil, err
		}
	}

	for i := range postings {
		posCount, err := r.ReadUvarint()
		if err != nil {
			return nil, err
		}
		if posCount > uint64(len(data)) {
			return nil, fmt.Errorf("position count %d exceeds encoded size", posCount)
		}
		postings[i].Positions = make([]uint64, posCount)

		var prevPos uint64
		for j := range postings[i].Positions {
			delta, err := r.ReadUvarint()
			if err != nil {
				return nil, err
			}
			prevPos += delta
			postings[i].Positions[j] = prevPos
		}
	}

	return postings, nil
}

// byteReader is a simple reader for varint decoding without allocations.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("malformed varint at offset %d", r.pos)
	}
	r.pos += n
	return v, nil
}

// prefixSuccessor returns the smallest key greater than every key with the
// given prefix, or nil if there is none.
func prefixSuccessor(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	succ := append([]byte(nil), prefix...)
	for i := len(succ) - 1; i >= 0; i-- {
		if succ[i] < 0xff {
			succ[i]++
			return succ[:i+1]
		}
	}
	return nil
}
