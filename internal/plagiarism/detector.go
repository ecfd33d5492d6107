package plagiarism

import (
	"sort"
	"time"

	"github.com/RishiKendai/overlap/internal/metrics"
	"github.com/RishiKendai/overlap/internal/models"
	"github.com/RishiKendai/overlap/internal/preprocess"
)

const (
	// DefaultMatchNgramSize is the n-gram size used to find matching segments.
	// Longer shared phrases are stronger evidence than the scoring n-grams.
	DefaultMatchNgramSize = 4

	// DefaultMaxSegments caps the number of matching segments per comparison
	DefaultMaxSegments = 5
)

// Options tunes the detector
type Options struct {
	NgramSize      int
	MatchNgramSize int
	MaxSegments    int
	ContextWindow  int
}

// DefaultOptions returns the standard detector settings
func DefaultOptions() Options {
	return Options{
		NgramSize:      preprocess.DefaultNgramSize,
		MatchNgramSize: DefaultMatchNgramSize,
		MaxSegments:    DefaultMaxSegments,
		ContextWindow:  DefaultContextWindow,
	}
}

// Detector compares documents. It holds no mutable state and is safe for
// concurrent use.
type Detector struct {
	processor *preprocess.TextProcessor
	opts      Options
}

// NewDetector creates a detector. Zero-valued options fall back to defaults.
func NewDetector(processor *preprocess.TextProcessor, opts Options) *Detector {
	defaults := DefaultOptions()
	if opts.NgramSize <= 0 {
		opts.NgramSize = defaults.NgramSize
	}
	if opts.MatchNgramSize <= 0 {
		opts.MatchNgramSize = defaults.MatchNgramSize
	}
	if opts.MaxSegments <= 0 {
		opts.MaxSegments = defaults.MaxSegments
	}
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = defaults.ContextWindow
	}

	return &Detector{
		processor: processor,
		opts:      opts,
	}
}

// Options returns the effective detector settings
func (d *Detector) Options() Options {
	return d.opts
}

// CompareTexts returns the Jaccard similarity of the two texts' n-gram sets
func (d *Detector) CompareTexts(textA, textB string) float64 {
	setA := NewNgramSet(d.processor.Preprocess(textA, d.opts.NgramSize))
	setB := NewNgramSet(d.processor.Preprocess(textB, d.opts.NgramSize))

	return JaccardSimilarity(setA, setB)
}

// FindCommonNgrams returns the distinct n-grams of size n present in both
// texts, sorted ascending.
func (d *Detector) FindCommonNgrams(textA, textB string, n int) []string {
	setA := NewNgramSet(d.processor.Preprocess(textA, n))
	setB := NewNgramSet(d.processor.Preprocess(textB, n))

	if len(setA) > len(setB) {
		setA, setB = setB, setA
	}

	common := make([]string, 0)
	for ngram := range setA {
		if setB.Contains(ngram) {
			common = append(common, ngram)
		}
	}
	sort.Strings(common)

	return common
}

// FindMatchingSegments anchors context excerpts of both texts on the first
// shared n-grams. A segment is kept only if both excerpts are found.
func (d *Detector) FindMatchingSegments(original, comparison string) []models.MatchingSegment {
	common := d.FindCommonNgrams(original, comparison, d.opts.MatchNgramSize)
	if len(common) > d.opts.MaxSegments {
		common = common[:d.opts.MaxSegments]
	}

	segments := make([]models.MatchingSegment, 0, len(common))
	for _, ngram := range common {
		originalContext := FindContext(original, ngram, d.opts.ContextWindow)
		comparisonContext := FindContext(comparison, ngram, d.opts.ContextWindow)

		if originalContext == "" || comparisonContext == "" {
			continue
		}

		segments = append(segments, models.MatchingSegment{
			Original:   originalContext,
			Comparison: comparisonContext,
		})
	}

	return segments
}

// CompareDocuments scores two documents and collects matching segments
func (d *Detector) CompareDocuments(original, comparison string) *models.ComparisonResult {
	start := time.Now()

	score := d.CompareTexts(original, comparison)
	segments := d.FindMatchingSegments(original, comparison)
	level, description := SimilarityLevel(score)

	metrics.ObserveComparison(score, time.Since(start))

	return &models.ComparisonResult{
		SimilarityScore:  score,
		SimilarityLevel:  level,
		Description:      description,
		MatchingSegments: segments,
	}
}
