package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const statusKeyPrefix = "comparison_status:"

var validSteps = map[models.Step]bool{
	models.StepIdle:      true,
	models.StepInitiated: true,
	models.StepStarted:   true,
	models.StepComparing: true,
	models.StepCompleted: true,
	models.StepFailed:    true,
}

// StatusStore keeps the current step of each batch job in Redis
type StatusStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStatusStore(client redis.Cmdable, ttl time.Duration) *StatusStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &StatusStore{
		client: client,
		ttl:    ttl,
	}
}

func statusKey(jobID string) string {
	return statusKeyPrefix + jobID
}

func (s *StatusStore) UpdateStatus(ctx context.Context, jobID string, step models.Step) error {
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKey(jobID)

	err := s.client.Set(ctx, rkey, string(step), s.ttl).Err()
	if err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("jobId", jobID).
			Str("redisKey", rkey).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("jobId", jobID).
		Msg("Status updated in Redis")

	return nil
}

// GetStatus returns the stored step, or StepIdle when the job is unknown or expired
func (s *StatusStore) GetStatus(ctx context.Context, jobID string) (models.Step, error) {
	val, err := s.client.Get(ctx, statusKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.StepIdle, nil
	}
	if err != nil {
		return models.StepIdle, fmt.Errorf("failed to read status from Redis: %w", err)
	}

	return models.Step(val), nil
}
