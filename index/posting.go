package index

import "sort"

// DocID is the internal identifier of an indexed document. IDs are assigned
// densely from zero in insertion order and never reused.
type DocID = uint32

// Posting records the occurrences of one term in one document field.
type Posting struct {
	DocID     DocID
	Freq      int   // Number of occurrences (len(Positions) for text fields)
	Positions []int // Ascending token positions
}

// PostingList is a list of postings sorted by ascending DocID.
// Lists only ever grow at the end; existing elements are never modified.
type PostingList []Posting

// Find returns the posting for docID using binary search.
func (pl PostingList) Find(docID DocID) (Posting, bool) {
	i := sort.Search(len(pl), func(i int) bool { return pl[i].DocID >= docID })
	if i < len(pl) && pl[i].DocID == docID {
		return pl[i], true
	}
	return Posting{}, false
}

// DocIDs returns the document IDs of the list in order.
func (pl PostingList) DocIDs() []DocID {
	ids := make([]DocID, len(pl))
	for i, p := range pl {
		ids[i] = p.DocID
	}
	return ids
}

// before returns the prefix of the list with DocID < maxDoc.
func (pl PostingList) before(maxDoc DocID) PostingList {
	if len(pl) == 0 || pl[len(pl)-1].DocID < maxDoc {
		return pl
	}
	i := sort.Search(len(pl), func(i int) bool { return pl[i].DocID >= maxDoc })
	return pl[:i:i]
}
