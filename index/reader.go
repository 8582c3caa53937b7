package index

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-fulltext-engine/analysis"
	"github.com/gcbaptista/go-fulltext-engine/config"
)

// Reader is a point-in-time view of an InvertedIndex. It only sees documents
// with an ID below the document count at the moment it was created, no matter
// how many documents the writer adds afterwards. A Reader is safe for
// concurrent use.
type Reader struct {
	ii       *InvertedIndex
	maxDoc   DocID
	analyzer *analysis.Analyzer
	fields   map[string]fieldSnapshot
}

type fieldSnapshot struct {
	info        FieldInfo
	lengths     []int
	totalLength int64
	docCount    int
	terms       int
}

// FieldStats summarizes one field as seen by a reader.
type FieldStats struct {
	Type          config.FieldType    `json:"type"`
	Ordering      config.TermOrdering `json:"ordering"`
	DocCount      int                 `json:"doc_count"`
	TotalLength   int64               `json:"total_length"`
	AverageLength float64             `json:"average_length"`
	Terms         int                 `json:"terms"`
}

// Reader returns a snapshot reader of the index.
func (ii *InvertedIndex) Reader() *Reader {
	ii.Mu.RLock()
	defer ii.Mu.RUnlock()

	r := &Reader{
		ii:       ii,
		maxDoc:   ii.NumDocs,
		analyzer: ii.analyzer,
		fields:   make(map[string]fieldSnapshot, len(ii.Fields)),
	}
	for name, fi := range ii.Fields {
		if fi.DocCount == 0 {
			continue
		}
		r.fields[name] = fieldSnapshot{
			info:        fi.info(name),
			lengths:     fi.Lengths[:len(fi.Lengths):len(fi.Lengths)],
			totalLength: fi.TotalLength,
			docCount:    fi.DocCount,
			terms:       len(fi.Dictionary),
		}
	}
	return r
}

// NumDocs returns the number of documents visible to the reader.
func (r *Reader) NumDocs() int {
	return int(r.maxDoc)
}

// MaxDoc returns one past the highest visible document ID.
func (r *Reader) MaxDoc() DocID {
	return r.maxDoc
}

// Analyzer returns the analyzer the index was built with.
func (r *Reader) Analyzer() *analysis.Analyzer {
	return r.analyzer
}

// Fields returns the names of the indexed fields in ascending order.
func (r *Reader) Fields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldInfo returns how the named field was indexed.
func (r *Reader) FieldInfo(field string) (FieldInfo, bool) {
	fs, ok := r.fields[field]
	return fs.info, ok
}

// FieldStats returns the statistics of the named field.
func (r *Reader) FieldStats(field string) (FieldStats, bool) {
	fs, ok := r.fields[field]
	if !ok {
		return FieldStats{}, false
	}
	return FieldStats{
		Type:          fs.info.Type,
		Ordering:      fs.info.Ordering,
		DocCount:      fs.docCount,
		TotalLength:   fs.totalLength,
		AverageLength: r.AvgFieldLength(field),
		Terms:         fs.terms,
	}, true
}

// Postings returns the postings of term in field. Unknown fields and terms
// yield an empty list.
func (r *Reader) Postings(field, term string) PostingList {
	if _, ok := r.fields[field]; !ok {
		return nil
	}
	r.ii.Mu.RLock()
	fi := r.ii.Fields[field]
	var pl PostingList
	if fi != nil {
		pl = fi.Postings[term]
	}
	r.ii.Mu.RUnlock()
	return pl.before(r.maxDoc)
}

// DocFreq returns the number of visible documents whose field contains term.
func (r *Reader) DocFreq(field, term string) int {
	return len(r.Postings(field, term))
}

// FieldLength returns the token count of field in document docID.
func (r *Reader) FieldLength(field string, docID DocID) int {
	fs, ok := r.fields[field]
	if !ok || int(docID) >= len(fs.lengths) {
		return 0
	}
	return fs.lengths[docID]
}

// AvgFieldLength returns the mean token count of field over the documents carrying it.
func (r *Reader) AvgFieldLength(field string) float64 {
	fs, ok := r.fields[field]
	if !ok || fs.docCount == 0 {
		return 0
	}
	return float64(fs.totalLength) / float64(fs.docCount)
}

// Terms returns every visible term of field in ascending order.
func (r *Reader) Terms(field string) []string {
	return r.TermsMatching(field, func(string) bool { return true })
}

// TermsMatching returns the visible terms of field accepted by match, in ascending order.
func (r *Reader) TermsMatching(field string, match func(term string) bool) []string {
	return r.scan(field, 0, func(term string) (bool, bool) {
		return match(term), true
	})
}

// TermsWithPrefix returns the visible terms of field starting with prefix, in ascending order.
func (r *Reader) TermsWithPrefix(field, prefix string) []string {
	return r.scan(field, -1, func(term string) (bool, bool) {
		if !strings.HasPrefix(term, prefix) {
			return false, false
		}
		return true, true
	}, prefix)
}

// TermsInRange returns the visible terms of field between low and high. An
// empty bound is open. Fields with numeric ordering compare terms as numbers
// and never match non-numeric terms; such fields reject non-numeric bounds.
func (r *Reader) TermsInRange(field, low, high string, includeLow, includeHigh bool) ([]string, error) {
	fs, ok := r.fields[field]
	if !ok {
		return []string{}, nil
	}

	if fs.info.Ordering == config.OrderingNumeric {
		lo, hi, err := numericBounds(low, high)
		if err != nil {
			return nil, err
		}
		return r.TermsMatching(field, func(term string) bool {
			v, err := strconv.ParseFloat(term, 64)
			if err != nil {
				return false
			}
			return inRange(v, lo, hi, low == "", high == "", includeLow, includeHigh)
		}), nil
	}

	return r.scan(field, -1, func(term string) (bool, bool) {
		if high != "" {
			if c := strings.Compare(term, high); c > 0 || (c == 0 && !includeHigh) {
				return false, c <= 0
			}
		}
		if low != "" && term == low && !includeLow {
			return false, true
		}
		return true, true
	}, low), nil
}

// scan walks the dictionary of field under the read lock. With start < 0 the
// walk begins at the first term >= from[0]; visit reports whether to keep a
// term and whether to continue.
func (r *Reader) scan(field string, start int, visit func(term string) (keep, more bool), from ...string) []string {
	out := make([]string, 0)
	if _, ok := r.fields[field]; !ok {
		return out
	}

	r.ii.Mu.RLock()
	defer r.ii.Mu.RUnlock()

	fi := r.ii.Fields[field]
	if fi == nil {
		return out
	}
	if start < 0 {
		start = sort.SearchStrings(fi.Dictionary, from[0])
	}
	for _, term := range fi.Dictionary[start:] {
		keep, more := visit(term)
		if keep && r.visibleLocked(fi, term) {
			out = append(out, term)
		}
		if !more {
			break
		}
	}
	return out
}

// visibleLocked reports whether any document of term is below maxDoc.
func (r *Reader) visibleLocked(fi *FieldIndex, term string) bool {
	pl := fi.Postings[term]
	return len(pl) > 0 && pl[0].DocID < r.maxDoc
}

func numericBounds(low, high string) (float64, float64, error) {
	var lo, hi float64
	var err error
	if low != "" {
		if lo, err = strconv.ParseFloat(low, 64); err != nil {
			return 0, 0, fmt.Errorf("range bound '%s' is not a number", low)
		}
	}
	if high != "" {
		if hi, err = strconv.ParseFloat(high, 64); err != nil {
			return 0, 0, fmt.Errorf("range bound '%s' is not a number", high)
		}
	}
	return lo, hi, nil
}

func inRange(v, lo, hi float64, openLow, openHigh, includeLow, includeHigh bool) bool {
	if !openLow && (v < lo || (v == lo && !includeLow)) {
		return false
	}
	if !openHigh && (v > hi || (v == hi && !includeHigh)) {
		return false
	}
	return true
}
