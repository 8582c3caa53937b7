package search

import "github.com/gcbaptista/go-fulltext-engine/index"

// Hit is a matching document and its accumulated score.
type Hit struct {
	DocID index.DocID
	Score float64
}

// ResultSet holds the hits of one query node, sorted by ascending DocID with
// at most one hit per document.
type ResultSet []Hit

// union merges two result sets, summing the scores of shared documents.
func union(a, b ResultSet) ResultSet {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(ResultSet, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].DocID < b[j].DocID:
			out = append(out, a[i])
			i++
		case a[i].DocID > b[j].DocID:
			out = append(out, b[j])
			j++
		default:
			out = append(out, Hit{DocID: a[i].DocID, Score: a[i].Score + b[j].Score})
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// intersect keeps the documents present in both sets, summing their scores.
func intersect(a, b ResultSet) ResultSet {
	out := make(ResultSet, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].DocID < b[j].DocID:
			i++
		case a[i].DocID > b[j].DocID:
			j++
		default:
			out = append(out, Hit{DocID: a[i].DocID, Score: a[i].Score + b[j].Score})
			i++
			j++
		}
	}
	return out
}

// addScores adds the scores of extra to the documents of base. Documents
// only in extra are ignored.
func addScores(base, extra ResultSet) ResultSet {
	if len(extra) == 0 {
		return base
	}
	out := make(ResultSet, len(base))
	j := 0
	for i, h := range base {
		for j < len(extra) && extra[j].DocID < h.DocID {
			j++
		}
		if j < len(extra) && extra[j].DocID == h.DocID {
			h.Score += extra[j].Score
		}
		out[i] = h
	}
	return out
}

// subtract removes the documents of excluded from base.
func subtract(base, excluded ResultSet) ResultSet {
	if len(excluded) == 0 {
		return base
	}
	out := make(ResultSet, 0, len(base))
	j := 0
	for _, h := range base {
		for j < len(excluded) && excluded[j].DocID < h.DocID {
			j++
		}
		if j < len(excluded) && excluded[j].DocID == h.DocID {
			continue
		}
		out = append(out, h)
	}
	return out
}

// scale multiplies every score by factor.
func scale(rs ResultSet, factor float64) ResultSet {
	out := make(ResultSet, len(rs))
	for i, h := range rs {
		out[i] = Hit{DocID: h.DocID, Score: h.Score * factor}
	}
	return out
}
