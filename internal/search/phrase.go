package search

import (
	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/query"
)

// phrasePostings pairs one phrase term with its postings and relative offset.
type phrasePostings struct {
	postings index.PostingList
	offset   int
}

// evalPhrase scores documents containing the phrase terms within the allowed
// slop. Documents must contain every term; the positional check then counts
// the sloppy frequency of the phrase in each of them.
func (e *Executor) evalPhrase(q *query.PhraseQuery, r *index.Reader) (ResultSet, error) {
	if len(q.Terms) == 0 {
		return nil, invalidQuery("phrase query has no terms")
	}
	if len(q.Positions) != len(q.Terms) {
		return nil, invalidQuery("phrase query has %d terms but %d positions", len(q.Terms), len(q.Positions))
	}
	if q.Slop < 0 {
		return nil, invalidQuery("phrase slop must not be negative, got %d", q.Slop)
	}
	if _, ok := r.FieldInfo(q.Field); !ok {
		return nil, nil
	}

	numDocs := r.NumDocs()
	terms := make([]phrasePostings, len(q.Terms))
	idf := 0.0
	for i, term := range q.Terms {
		pl := r.Postings(q.Field, term)
		if len(pl) == 0 {
			return nil, nil
		}
		terms[i] = phrasePostings{postings: pl, offset: q.Positions[i]}
		idf += e.scorer.IDF(numDocs, len(pl))
	}

	avg := r.AvgFieldLength(q.Field)
	var out ResultSet
	cursors := make([]int, len(terms))
	positions := make([][]int, len(terms))
	offsets := make([]int, len(terms))
	for i, t := range terms {
		offsets[i] = t.offset
	}

	lead := terms[0].postings
	for _, p := range lead {
		if !advanceAll(terms, cursors, p.DocID) {
			break
		}
		if !allOn(terms, cursors, p.DocID) {
			continue
		}
		for i, t := range terms {
			positions[i] = t.postings[cursors[i]].Positions
		}
		freq := sloppyFreq(positions, offsets, q.Slop)
		if freq == 0 {
			continue
		}
		score := e.scorer.Score(idf, freq, r.FieldLength(q.Field, p.DocID), avg)
		out = append(out, Hit{DocID: p.DocID, Score: score})
	}
	return out, nil
}

// advanceAll moves every cursor to the first posting at or after docID. It
// reports false once any list is exhausted.
func advanceAll(terms []phrasePostings, cursors []int, docID index.DocID) bool {
	for i, t := range terms {
		for cursors[i] < len(t.postings) && t.postings[cursors[i]].DocID < docID {
			cursors[i]++
		}
		if cursors[i] == len(t.postings) {
			return false
		}
	}
	return true
}

func allOn(terms []phrasePostings, cursors []int, docID index.DocID) bool {
	for i, t := range terms {
		if t.postings[cursors[i]].DocID != docID {
			return false
		}
	}
	return true
}

// sloppyFreq returns the phrase frequency of one document. Each occurrence
// whose terms lie within slop moves of their expected offsets adds
// 1/(1+distance). When slop allows it and no occurrence is found in order,
// swapping two adjacent terms is tried at the cost of one unit of slop.
func sloppyFreq(positions [][]int, offsets []int, slop int) float64 {
	freq := matchWindows(positions, offsets, slop, 0)
	if freq > 0 || slop == 0 || len(offsets) < 2 {
		return freq
	}

	swapped := make([]int, len(offsets))
	best := 0.0
	for k := 0; k+1 < len(offsets); k++ {
		copy(swapped, offsets)
		swapped[k], swapped[k+1] = swapped[k+1], swapped[k]
		if f := matchWindows(positions, swapped, slop-1, 1); f > best {
			best = f
		}
	}
	return best
}

// matchWindows sweeps the term positions shifted by their offsets. Whenever
// the shifted positions span at most slop, the window is an occurrence.
// penalty is added to the distance of every occurrence found.
func matchWindows(positions [][]int, offsets []int, slop, penalty int) float64 {
	n := len(positions)
	idx := make([]int, n)
	actual := make(map[int]struct{}, n)
	freq := 0.0

	for {
		lo, hi, loTerm := 0, 0, -1
		for i := 0; i < n; i++ {
			pp := positions[i][idx[i]] - offsets[i]
			if loTerm < 0 || pp < lo {
				lo, loTerm = pp, i
			}
			if i == 0 || pp > hi {
				hi = pp
			}
		}

		if spread := hi - lo; spread <= slop && distinctPositions(positions, idx, actual) {
			freq += 1 / float64(1+spread+penalty)
		}

		idx[loTerm]++
		if idx[loTerm] == len(positions[loTerm]) {
			return freq
		}
	}
}

// distinctPositions reports whether the current positions of all terms are
// different, so a repeated term cannot match the same token twice.
func distinctPositions(positions [][]int, idx []int, seen map[int]struct{}) bool {
	clear(seen)
	for i, p := range positions {
		pos := p[idx[i]]
		if _, dup := seen[pos]; dup {
			return false
		}
		seen[pos] = struct{}{}
	}
	return true
}
