package plagiarism

import (
	"strings"
	"sync"
	"testing"

	"github.com/RishiKendai/overlap/internal/preprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector() *Detector {
	return NewDetector(preprocess.NewTextProcessor(), DefaultOptions())
}

func TestNewDetector_Defaults(t *testing.T) {
	d := NewDetector(preprocess.NewTextProcessor(), Options{ContextWindow: -1})

	assert.Equal(t, DefaultOptions(), d.Options())
	assert.Equal(t, 5, DefaultMaxSegments)
	assert.Equal(t, 4, DefaultMatchNgramSize)
}

func TestCompareTexts(t *testing.T) {
	d := newTestDetector()

	t.Run("articles removed yields identical sets", func(t *testing.T) {
		assert.Equal(t, 1.0, d.CompareTexts("The quick brown fox", "A quick brown fox"))
	})

	t.Run("disjoint texts", func(t *testing.T) {
		assert.Equal(t, 0.0, d.CompareTexts("apple banana cherry", "dog elephant frog"))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Equal(t, 0.0, d.CompareTexts("", "anything"))
		assert.Equal(t, 0.0, d.CompareTexts("", ""))
	})

	t.Run("all stopwords", func(t *testing.T) {
		assert.Equal(t, 0.0, d.CompareTexts("the and of", "it is was"))
	})

	t.Run("partial overlap", func(t *testing.T) {
		// {alpha beta gamma, beta gamma delta} vs {alpha beta gamma, beta gamma omega}
		got := d.CompareTexts("alpha beta gamma delta", "alpha beta gamma omega")
		assert.InDelta(t, 1.0/3.0, got, 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := "Plagiarism detection compares overlapping word sequences across documents"
		b := "Detection tools compare overlapping word sequences between two documents"
		assert.Equal(t, d.CompareTexts(a, b), d.CompareTexts(b, a))
	})
}

func TestFindCommonNgrams(t *testing.T) {
	d := newTestDetector()

	t.Run("sorted and deduplicated", func(t *testing.T) {
		a := "zeta eta theta alpha beta gamma zeta eta theta"
		b := "alpha beta gamma zeta eta theta"

		got := d.FindCommonNgrams(a, b, 3)

		assert.Equal(t, []string{"alpha beta gamma", "beta gamma zeta", "gamma zeta eta", "zeta eta theta"}, got)
	})

	t.Run("self comparison returns every distinct ngram once", func(t *testing.T) {
		text := "red green blue red green blue yellow"
		want := NewNgramSet(preprocess.NewTextProcessor().Preprocess(text, 3))

		got := d.FindCommonNgrams(text, text, 3)

		assert.Len(t, got, len(want))
		for _, ngram := range got {
			assert.True(t, want.Contains(ngram))
		}
		assert.True(t, sortedStrings(got))
	})

	t.Run("no overlap", func(t *testing.T) {
		assert.Empty(t, d.FindCommonNgrams("apple banana cherry", "dog elephant frog", 3))
	})

	t.Run("n larger than tokens", func(t *testing.T) {
		assert.Empty(t, d.FindCommonNgrams("alpha beta", "alpha beta", 3))
	})

	t.Run("deterministic", func(t *testing.T) {
		a := strings.Repeat("one two three four five six seven eight nine ten ", 3)
		b := "six seven eight nine ten one two three four five"

		first := d.FindCommonNgrams(a, b, 4)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, d.FindCommonNgrams(a, b, 4))
		}
	})
}

func TestFindMatchingSegments(t *testing.T) {
	d := newTestDetector()

	t.Run("one shared phrase", func(t *testing.T) {
		original := "Yesterday the committee approved quarterly budget revisions after long debate."
		comparison := "Sources say approved quarterly budget revisions were contested by several members."

		segments := d.FindMatchingSegments(original, comparison)

		require.Len(t, segments, 1)
		assert.Contains(t, segments[0].Original, "approved quarterly budget revisions")
		assert.Contains(t, segments[0].Comparison, "approved quarterly budget revisions")
		assert.True(t, strings.Contains(original, segments[0].Original))
		assert.True(t, strings.Contains(comparison, segments[0].Comparison))
	})

	t.Run("excerpts keep original case", func(t *testing.T) {
		original := "We observed THAT Neural Networks Learn Representations quickly."
		comparison := "neural networks learn representations"

		segments := d.FindMatchingSegments(original, comparison)

		require.Len(t, segments, 1)
		assert.Contains(t, segments[0].Original, "Neural Networks Learn Representations")
	})

	t.Run("capped at max segments", func(t *testing.T) {
		text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu"

		segments := d.FindMatchingSegments(text, text)

		assert.Len(t, segments, DefaultMaxSegments)
	})

	t.Run("custom cap", func(t *testing.T) {
		custom := NewDetector(preprocess.NewTextProcessor(), Options{MaxSegments: 2})
		text := "alpha beta gamma delta epsilon zeta eta theta"

		assert.Len(t, custom.FindMatchingSegments(text, text), 2)
	})

	t.Run("phrase split by stopwords or punctuation is dropped", func(t *testing.T) {
		// Both normalize to "quick brown fox jumps" but neither contains it verbatim
		original := "The quick, brown fox jumps"
		comparison := "A quick brown fox, jumps"

		assert.Empty(t, d.FindMatchingSegments(original, comparison))
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Empty(t, d.FindMatchingSegments("", "anything at all here"))
		assert.Empty(t, d.FindMatchingSegments("", ""))
	})
}

func TestCompareDocuments(t *testing.T) {
	d := newTestDetector()

	result := d.CompareDocuments("", "anything")
	assert.Equal(t, 0.0, result.SimilarityScore)
	assert.Equal(t, LevelLow, result.SimilarityLevel)
	assert.NotNil(t, result.MatchingSegments)
	assert.Empty(t, result.MatchingSegments)

	text := "Distributed systems require careful coordination between independent services"
	result = d.CompareDocuments(text, text)
	assert.Equal(t, 1.0, result.SimilarityScore)
	assert.Equal(t, LevelHigh, result.SimilarityLevel)
	assert.NotEmpty(t, result.MatchingSegments)
}

func TestDetector_ConcurrentUse(t *testing.T) {
	d := newTestDetector()
	a := "concurrent comparisons share only the immutable stopword set"
	b := "comparisons share only the immutable stopword set between goroutines"
	want := d.CompareDocuments(a, b)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, d.CompareDocuments(a, b))
		}()
	}
	wg.Wait()
}

func TestSimilarityLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.0, LevelLow},
		{0.29, LevelLow},
		{0.3, LevelMedium},
		{0.59, LevelMedium},
		{0.6, LevelHigh},
		{1.0, LevelHigh},
	}

	for _, tt := range tests {
		level, description := SimilarityLevel(tt.score)
		assert.Equal(t, tt.want, level, "score %v", tt.score)
		assert.NotEmpty(t, description)
	}
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
