package index

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/gcbaptista/go-fulltext-engine/analysis"
	"github.com/gcbaptista/go-fulltext-engine/config"
)

// InvertedIndex maps, per field, each term to the positional postings of the
// documents containing it.
//
// A single writer adds documents under the write lock. Readers obtained from
// Reader see the index as it was when they were created: postings only grow
// at the end, so a reader trims them to its own document count.
type InvertedIndex struct {
	Mu       sync.RWMutex
	Fields   map[string]*FieldIndex
	NumDocs  uint32
	analyzer *analysis.Analyzer
}

// gobInvertedIndexData is a helper struct for Gob encoding/decoding InvertedIndex data.
// It excludes the mutex and the analyzer, which is rebuilt from settings on load.
type gobInvertedIndexData struct {
	Fields  map[string]*FieldIndex
	NumDocs uint32
}

// NewInvertedIndex creates an empty index that analyzes text fields with analyzer.
func NewInvertedIndex(analyzer *analysis.Analyzer) *InvertedIndex {
	if analyzer == nil {
		analyzer = analysis.Standard()
	}
	return &InvertedIndex{
		Fields:   make(map[string]*FieldIndex),
		analyzer: analyzer,
	}
}

// Analyzer returns the analyzer used for text fields.
func (ii *InvertedIndex) Analyzer() *analysis.Analyzer {
	return ii.analyzer
}

// SetAnalyzer replaces the analyzer, typically after decoding a snapshot.
func (ii *InvertedIndex) SetAnalyzer(analyzer *analysis.Analyzer) {
	ii.Mu.Lock()
	defer ii.Mu.Unlock()
	ii.analyzer = analyzer
}

// NextDocID returns the ID the next added document will receive.
func (ii *InvertedIndex) NextDocID() DocID {
	ii.Mu.RLock()
	defer ii.Mu.RUnlock()
	return ii.NumDocs
}

// CheckFields reports whether fields could be added without conflicting with
// the type of an already indexed field of the same name.
func (ii *InvertedIndex) CheckFields(fields []Field) error {
	ii.Mu.RLock()
	defer ii.Mu.RUnlock()
	return ii.checkFieldsLocked(fields)
}

func (ii *InvertedIndex) checkFieldsLocked(fields []Field) error {
	seen := make(map[string]config.FieldType, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("field name cannot be empty")
		}
		if f.Type != config.FieldTypeText && f.Type != config.FieldTypeKeyword {
			return fmt.Errorf("field '%s' has unsupported type '%s'", f.Name, f.Type)
		}
		if t, ok := seen[f.Name]; ok && t != f.Type {
			return fmt.Errorf("field '%s' is given as both %s and %s", f.Name, t, f.Type)
		}
		seen[f.Name] = f.Type
		if existing, ok := ii.Fields[f.Name]; ok && existing.Type != f.Type {
			return fmt.Errorf("field '%s' is indexed as %s, cannot add it as %s", f.Name, existing.Type, f.Type)
		}
	}
	return nil
}

// fieldTerms collects the terms of one field of one document before they are
// appended to the postings.
type fieldTerms struct {
	typ       config.FieldType
	ordering  config.TermOrdering
	positions map[string][]int
	length    int
	nextPos   int
}

// Add indexes the fields of document docID, which must equal NextDocID.
// The document becomes visible to readers created after Add returns.
func (ii *InvertedIndex) Add(docID DocID, fields []Field) error {
	ii.Mu.Lock()
	defer ii.Mu.Unlock()

	if docID != ii.NumDocs {
		return fmt.Errorf("document ID %d is out of sequence, expected %d", docID, ii.NumDocs)
	}
	if err := ii.checkFieldsLocked(fields); err != nil {
		return err
	}

	perField := make(map[string]*fieldTerms)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		ft, ok := perField[f.Name]
		if !ok {
			ft = &fieldTerms{typ: f.Type, ordering: f.Ordering, positions: make(map[string][]int)}
			perField[f.Name] = ft
			names = append(names, f.Name)
		}
		ii.collectTerms(ft, f)
	}
	sort.Strings(names)

	for _, name := range names {
		ft := perField[name]
		fi, ok := ii.Fields[name]
		if !ok {
			fi = newFieldIndex(ft.typ, ft.ordering)
			ii.Fields[name] = fi
		}
		for term, positions := range ft.positions {
			pl, exists := fi.Postings[term]
			if !exists {
				i, _ := slices.BinarySearch(fi.Dictionary, term)
				fi.Dictionary = slices.Insert(fi.Dictionary, i, term)
			}
			fi.Postings[term] = append(pl, Posting{DocID: docID, Freq: len(positions), Positions: positions})
		}
		for len(fi.Lengths) < int(docID) {
			fi.Lengths = append(fi.Lengths, 0)
		}
		fi.Lengths = append(fi.Lengths, ft.length)
		fi.TotalLength += int64(ft.length)
		fi.DocCount++
	}

	ii.NumDocs = docID + 1
	return nil
}

// collectTerms analyzes one field value. Repeated values of the same field
// continue the position sequence of the previous value.
func (ii *InvertedIndex) collectTerms(ft *fieldTerms, f Field) {
	if f.Type == config.FieldTypeKeyword {
		if f.Value == "" {
			return
		}
		ft.positions[f.Value] = append(ft.positions[f.Value], ft.nextPos)
		ft.nextPos++
		ft.length++
		return
	}

	base := ft.nextPos
	for tok := range ii.analyzer.Tokens(f.Value) {
		pos := base + tok.Position
		ft.positions[tok.Term] = append(ft.positions[tok.Term], pos)
		ft.length++
		ft.nextPos = pos + 1
	}
}

// GobEncode implements the gob.GobEncoder interface for InvertedIndex.
func (ii *InvertedIndex) GobEncode() ([]byte, error) {
	ii.Mu.RLock() // Ensure consistent data during encoding
	defer ii.Mu.RUnlock()

	dataToEncode := gobInvertedIndexData{
		Fields:  ii.Fields,
		NumDocs: ii.NumDocs,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(dataToEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for InvertedIndex.
func (ii *InvertedIndex) GobDecode(data []byte) error {
	decodedData := gobInvertedIndexData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decodedData); err != nil {
		return err
	}

	ii.Mu.Lock()
	defer ii.Mu.Unlock()

	ii.Fields = decodedData.Fields
	ii.NumDocs = decodedData.NumDocs

	// gob drops empty maps and slices
	if ii.Fields == nil {
		ii.Fields = make(map[string]*FieldIndex)
	}
	for _, fi := range ii.Fields {
		if fi.Postings == nil {
			fi.Postings = make(map[string]PostingList)
		}
		if fi.Dictionary == nil {
			fi.Dictionary = make([]string, 0)
		}
		if fi.Lengths == nil {
			fi.Lengths = make([]int, 0)
		}
	}
	if ii.analyzer == nil {
		ii.analyzer = analysis.Standard()
	}
	return nil
}
