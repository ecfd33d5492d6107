package models

// CompareRequest is the payload of a single document comparison
type CompareRequest struct {
	OriginalText   string `json:"originalText"`
	ComparisonText string `json:"comparisonText"`
}

// MatchingSegment pairs the context around one shared n-gram in both documents.
// Both fields are raw excerpts of the submitted texts.
type MatchingSegment struct {
	Original   string `json:"original"`
	Comparison string `json:"comparison"`
}

// ComparisonResult is the outcome of comparing two documents
type ComparisonResult struct {
	SimilarityScore  float64           `json:"similarityScore"`
	SimilarityLevel  string            `json:"similarityLevel"`
	Description      string            `json:"description"`
	MatchingSegments []MatchingSegment `json:"matchingSegments"`
}

// HealthResponse is returned by the health endpoints
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
