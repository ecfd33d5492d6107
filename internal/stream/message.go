package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/RishiKendai/overlap/internal/plagiarism"
	"github.com/redis/go-redis/v9"
)

// Stream entry fields
const (
	FieldJobID        = "jobId"
	FieldOriginalText = "originalText"
	FieldCandidates   = "candidates"
)

var (
	ErrMissingField  = errors.New("missing field")
	ErrNoCandidates  = errors.New("no candidates")
	ErrTooManyInJob  = errors.New("too many candidates")
	ErrBadCandidates = errors.New("malformed candidates")
	ErrTextTooLarge  = errors.New("text too large")
)

// Limits caps the size of stream jobs. Zero values disable a cap.
type Limits struct {
	MaxCandidates int
	MaxTextBytes  int
}

// StreamMessage is a stream entry with its string fields
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// NewStreamMessage keeps the string-valued fields of a Redis entry
func NewStreamMessage(msg *redis.XMessage) *StreamMessage {
	fields := make(map[string]string, len(msg.Values))
	for key, val := range msg.Values {
		if value, ok := val.(string); ok {
			fields[key] = value
		}
	}

	return &StreamMessage{
		ID:     msg.ID,
		Fields: fields,
	}
}

// ParseJob builds a batch job from a stream entry. Without a jobId field the
// job id is derived from the entry id, so redeliveries resume the same job.
func ParseJob(msg *StreamMessage, limits Limits) (*models.BatchJob, error) {
	original, ok := msg.Fields[FieldOriginalText]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, FieldOriginalText)
	}

	raw, ok := msg.Fields[FieldCandidates]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, FieldCandidates)
	}

	var candidates []models.Candidate
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCandidates, err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if limits.MaxCandidates > 0 && len(candidates) > limits.MaxCandidates {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyInJob, len(candidates), limits.MaxCandidates)
	}

	if limits.MaxTextBytes > 0 {
		if len(original) > limits.MaxTextBytes {
			return nil, fmt.Errorf("%w: original exceeds %d bytes", ErrTextTooLarge, limits.MaxTextBytes)
		}
		for i, c := range candidates {
			if len(c.Text) > limits.MaxTextBytes {
				return nil, fmt.Errorf("%w: candidate %d exceeds %d bytes", ErrTextTooLarge, i+1, limits.MaxTextBytes)
			}
		}
	}

	jobID := msg.Fields[FieldJobID]
	if jobID == "" && msg.ID != "" {
		jobID = "stream-" + msg.ID
	}

	return plagiarism.NewBatchJob(jobID, original, candidates), nil
}
