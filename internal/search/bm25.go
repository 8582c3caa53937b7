package search

import (
	"math"

	"github.com/gcbaptista/go-fulltext-engine/config"
)

// BM25 scores term matches from index statistics.
//
//	score = IDF * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * (|d| / avgdl)))
type BM25 struct {
	K1 float64 // Controls term frequency saturation
	B  float64 // Controls how much effect field length has
}

// NewBM25 creates a scorer from index settings, falling back to k1 = 1.2 and
// b = 0.75 for unset parameters.
func NewBM25(settings config.ScoringSettings) BM25 {
	k1, b := settings.Params()
	return BM25{K1: k1, B: b}
}

// IDF returns the inverse document frequency of a term found in docFreq of
// numDocs documents:
//
//	IDF = ln(1 + (N - df + 0.5) / (df + 0.5))
//
// It stays positive even for terms present in every document, so a boost
// always changes the score of a match.
func (s BM25) IDF(numDocs, docFreq int) float64 {
	if docFreq <= 0 {
		return 0
	}
	n, df := float64(numDocs), float64(docFreq)
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// TF returns the saturated, length-normalized term frequency component.
func (s BM25) TF(freq float64, fieldLength int, avgFieldLength float64) float64 {
	if freq <= 0 {
		return 0
	}
	norm := 1.0
	if avgFieldLength > 0 {
		norm = 1 - s.B + s.B*(float64(fieldLength)/avgFieldLength)
	}
	return (freq * (s.K1 + 1)) / (freq + s.K1*norm)
}

// Score combines IDF and TF.
func (s BM25) Score(idf, freq float64, fieldLength int, avgFieldLength float64) float64 {
	return idf * s.TF(freq, fieldLength, avgFieldLength)
}
