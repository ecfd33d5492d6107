package plagiarism

// Similarity levels reported alongside a score
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// SimilarityLevel returns the level and a reviewer-facing description for a score
func SimilarityLevel(score float64) (string, string) {
	if score < 0.3 {
		return LevelLow, "Low similarity detected. The documents appear to be mostly different."
	} else if score < 0.6 {
		return LevelMedium, "Moderate similarity detected. The documents share some common phrases and content."
	}
	return LevelHigh, "High similarity detected. The documents contain significant matching content that may indicate plagiarism."
}
