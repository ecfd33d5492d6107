package models

import (
	"time"
)

type Step string

const (
	StepIdle      Step = "idle"
	StepInitiated Step = "initiated"
	StepStarted   Step = "started"
	StepComparing Step = "comparing"
	StepCompleted Step = "completed"
	StepFailed    Step = "failed"
)

// Report statuses stored in MongoDB
const (
	ReportPending   = "pending"
	ReportCompleted = "completed"
	ReportFailed    = "failed"
)

// Candidate is one document compared against the original in a batch
type Candidate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BatchRequest represents a request to compare one original against many candidates
type BatchRequest struct {
	OriginalText string      `json:"originalText"`
	Candidates   []Candidate `json:"candidates" binding:"required"`
}

// BatchJob is a unit of batch work, built either from an HTTP request or a stream entry
type BatchJob struct {
	JobID        string
	OriginalText string
	Candidates   []Candidate
}

// BatchResponse is returned when a batch job is accepted
type BatchResponse struct {
	Step  Step   `json:"step"`
	JobID string `json:"jobId"`
}

// CandidateResult is the per-candidate outcome kept in a batch report.
// Only scores are stored; document text and excerpts are never persisted.
type CandidateResult struct {
	CandidateID          string  `bson:"candidateId" json:"candidateId"`
	SimilarityScore      float64 `bson:"similarityScore" json:"similarityScore"`
	SimilarityLevel      string  `bson:"similarityLevel" json:"similarityLevel"`
	MatchingSegmentCount int     `bson:"matchingSegmentCount" json:"matchingSegmentCount"`
	Digest               string  `bson:"digest" json:"digest"`
}

// BatchReport is the stored outcome of a batch job
type BatchReport struct {
	JobID          string            `bson:"jobId" json:"jobId"`
	Status         string            `bson:"status" json:"status"` // pending, completed, failed
	Error          string            `bson:"error,omitempty" json:"error,omitempty"`
	OriginalDigest string            `bson:"originalDigest" json:"originalDigest"`
	TotalAnalyzed  int               `bson:"totalAnalyzed" json:"totalAnalyzed"`
	HighestScore   float64           `bson:"highestScore" json:"highestScore"`
	Results        []CandidateResult `bson:"results" json:"results"`
	CreatedAt      time.Time         `bson:"createdAt" json:"createdAt"`
	CompletedAt    *time.Time        `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// BatchStatusResponse is returned by the batch status endpoint
type BatchStatusResponse struct {
	JobID  string       `json:"jobId"`
	Step   Step         `json:"step"`
	Report *BatchReport `json:"report,omitempty"`
}
