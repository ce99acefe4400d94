package match

import (
	"sort"
	"strings"
)

// DefaultMinScore is the similarity a known name needs to be suggested.
const DefaultMinScore = 0.6

// Candidate is a known name scored against an unknown one.
type Candidate struct {
	Name  string
	Score float64
}

// CandidateList is sorted best first.
type CandidateList []Candidate

// Rank scores every known name against name and returns the list sorted by
// score, then by name for determinism.
func Rank(name string, known []string) CandidateList {
	list := make(CandidateList, 0, len(known))
	for _, k := range known {
		score := NormalizedSimilarity(name, k)
		// a prefix of a longer name is usually a truncated typo
		if strings.HasPrefix(NormalizeIdent(k), NormalizeIdent(name)) && name != "" {
			score = max(score, DefaultMinScore)
		}

		list = append(list, Candidate{Name: k, Score: score})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}

		return list[i].Name < list[j].Name
	})

	return list
}

// AboveThreshold keeps candidates scoring at least threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var out CandidateList
	for _, cand := range c {
		if cand.Score >= threshold {
			out = append(out, cand)
		}
	}

	return out
}

// Top returns at most n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n < len(c) {
		return c[:n]
	}

	return c
}

// Names returns the candidate names in order.
func (c CandidateList) Names() []string {
	names := make([]string, len(c))
	for i, cand := range c {
		names[i] = cand.Name
	}

	return names
}

// Suggest returns up to n known names close enough to name.
func Suggest(name string, known []string, n int) []string {
	return Rank(name, known).AboveThreshold(DefaultMinScore).Top(n).Names()
}
