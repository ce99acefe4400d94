package match

// EditDistance is the optimal string alignment distance between a and b:
// insertions, deletions, substitutions and swaps of two adjacent bytes each
// cost one, and no substring is edited more than once.
func EditDistance(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return len(b)
	case b == "":
		return len(a)
	}

	// rows[k] holds the distances for a[:i-2+k] against every prefix of b.
	cols := len(b) + 1
	rows := [3][]int{make([]int, cols), make([]int, cols), make([]int, cols)}

	for j := 0; j < cols; j++ {
		rows[1][j] = j
	}

	for i := 1; i <= len(a); i++ {
		back, prev, cur := rows[0], rows[1], rows[2]
		cur[0] = i

		for j := 1; j <= len(b); j++ {
			sub := prev[j-1]
			if a[i-1] != b[j-1] {
				sub++
			}

			cur[j] = min(prev[j]+1, cur[j-1]+1, sub)

			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				cur[j] = min(cur[j], back[j-2]+1)
			}
		}

		rows[0], rows[1], rows[2] = prev, cur, back
	}

	return rows[1][len(b)]
}

// Similarity scores a against b in [0, 1]; identical strings score 1.
func Similarity(a, b string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}

	return 1 - float64(EditDistance(a, b))/float64(longest)
}

// NormalizedSimilarity is Similarity over NormalizeIdent forms, so case and
// separators never count as edits.
func NormalizedSimilarity(a, b string) float64 {
	return Similarity(NormalizeIdent(a), NormalizeIdent(b))
}
