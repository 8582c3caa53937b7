// Package typoutil computes edit distances between terms for fuzzy matching.
package typoutil

// Match is a dictionary term within the allowed edit distance of a query term.
type Match struct {
	Term     string
	Distance int
}

// DamerauLevenshtein returns the optimal string alignment distance between a
// and b: insertions, deletions, substitutions and transpositions of adjacent
// characters each cost one edit. Strings are compared rune by rune.
//
// When the distance exceeds maxDistance the result is maxDistance + 1, which
// lets the computation stop early. A negative maxDistance disables the limit.
func DamerauLevenshtein(a, b string, maxDistance int) int {
	runesA := []rune(a)
	runesB := []rune(b)
	lenA, lenB := len(runesA), len(runesB)

	limited := maxDistance >= 0
	if limited && abs(lenA-lenB) > maxDistance {
		return maxDistance + 1
	}
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	// Three rows: i-2 is needed for transpositions
	prevPrevRow := make([]int, lenB+1)
	prevRow := make([]int, lenB+1)
	currRow := make([]int, lenB+1)
	for j := 0; j <= lenB; j++ {
		prevRow[j] = j
	}

	for i := 1; i <= lenA; i++ {
		currRow[0] = i
		minInRow := i

		for j := 1; j <= lenB; j++ {
			cost := 1
			if runesA[i-1] == runesB[j-1] {
				cost = 0
			}
			currRow[j] = min(prevRow[j]+1, currRow[j-1]+1, prevRow[j-1]+cost)

			if i > 1 && j > 1 && runesA[i-1] == runesB[j-2] && runesA[i-2] == runesB[j-1] {
				currRow[j] = min(currRow[j], prevPrevRow[j-2]+1)
			}
			minInRow = min(minInRow, currRow[j])
		}

		if limited && minInRow > maxDistance {
			return maxDistance + 1
		}
		prevPrevRow, prevRow, currRow = prevRow, currRow, prevPrevRow
	}

	return prevRow[lenB]
}

// WithinDistance returns the candidates at most maxDistance edits away from
// term, including term itself, in candidate order.
func WithinDistance(term string, candidates []string, maxDistance int) []Match {
	matches := make([]Match, 0)
	if maxDistance < 0 {
		return matches
	}
	for _, candidate := range candidates {
		if d := DamerauLevenshtein(term, candidate, maxDistance); d <= maxDistance {
			matches = append(matches, Match{Term: candidate, Distance: d})
		}
	}
	return matches
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
