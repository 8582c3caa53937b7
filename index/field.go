package index

import "github.com/gcbaptista/go-fulltext-engine/config"

// Field is one named value of a document as handed to the indexer.
type Field struct {
	Name     string
	Value    string
	Type     config.FieldType    // text fields are analyzed, keyword fields are indexed verbatim
	Ordering config.TermOrdering // How range queries compare terms of this field
	Stored   bool                // Keep the original value for retrieval
}

// TextField returns a stored, analyzed field.
func TextField(name, value string) Field {
	return Field{Name: name, Value: value, Type: config.FieldTypeText, Ordering: config.OrderingLexicographic, Stored: true}
}

// KeywordField returns a stored field indexed as a single exact term.
func KeywordField(name, value string) Field {
	return Field{Name: name, Value: value, Type: config.FieldTypeKeyword, Ordering: config.OrderingLexicographic, Stored: true}
}

// FieldInfo describes how a field was indexed.
type FieldInfo struct {
	Name     string
	Type     config.FieldType
	Ordering config.TermOrdering
}

// FieldIndex holds the postings and statistics of one field.
type FieldIndex struct {
	Type     config.FieldType
	Ordering config.TermOrdering
	Postings map[string]PostingList
	// Dictionary is every term of the field in ascending byte order.
	Dictionary []string
	// Lengths[docID] is the token count of the field in that document. The
	// slice is only extended, so documents past its end have length zero.
	Lengths     []int
	TotalLength int64
	DocCount    int // Documents that carry the field
}

func newFieldIndex(t config.FieldType, ordering config.TermOrdering) *FieldIndex {
	if ordering == "" {
		ordering = config.OrderingLexicographic
	}
	return &FieldIndex{
		Type:       t,
		Ordering:   ordering,
		Postings:   make(map[string]PostingList),
		Dictionary: make([]string, 0),
		Lengths:    make([]int, 0),
	}
}

func (fi *FieldIndex) info(name string) FieldInfo {
	return FieldInfo{Name: name, Type: fi.Type, Ordering: fi.Ordering}
}
