package plagiarism

// NgramSet is the set of distinct n-grams of one document
type NgramSet map[string]struct{}

// NewNgramSet collapses duplicate n-grams. Empty strings are never stored.
func NewNgramSet(ngrams []string) NgramSet {
	set := make(NgramSet, len(ngrams))
	for _, ngram := range ngrams {
		if ngram == "" {
			continue
		}
		set[ngram] = struct{}{}
	}
	return set
}

// Contains reports whether ngram is in the set
func (s NgramSet) Contains(ngram string) bool {
	_, ok := s[ngram]
	return ok
}

// JaccardSimilarity calculates |A ∩ B| / |A ∪ B|.
// Two empty sets score 0: no shared n-grams means no evidence of similarity.
func JaccardSimilarity(setA, setB NgramSet) float64 {
	if len(setA) == 0 && len(setB) == 0 {
		return 0.0
	}

	// Probe the larger set with members of the smaller one
	small, large := setA, setB
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for ngram := range small {
		if large.Contains(ngram) {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}
