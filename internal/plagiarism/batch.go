package plagiarism

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/RishiKendai/overlap/internal/metrics"
	"github.com/RishiKendai/overlap/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportStore persists batch reports.
// InsertBatchReport must not fail when a report for the job id already exists.
type ReportStore interface {
	InsertBatchReport(ctx context.Context, report *models.BatchReport) error
	UpdateBatchReport(ctx context.Context, jobID string, report *models.BatchReport) error
	GetBatchReport(ctx context.Context, jobID string) (*models.BatchReport, error)
}

// StatusTracker records the progress of batch jobs
type StatusTracker interface {
	UpdateStatus(ctx context.Context, jobID string, step models.Step) error
	GetStatus(ctx context.Context, jobID string) (models.Step, error)
}

// NewBatchJob builds a job, generating a job id and candidate ids when missing
func NewBatchJob(jobID, originalText string, candidates []models.Candidate) *models.BatchJob {
	if jobID == "" {
		jobID = uuid.New().String()
	}

	normalized := make([]models.Candidate, len(candidates))
	for i, c := range candidates {
		if c.ID == "" {
			c.ID = "candidate-" + strconv.Itoa(i+1)
		}
		normalized[i] = c
	}

	return &models.BatchJob{
		JobID:        jobID,
		OriginalText: originalText,
		Candidates:   normalized,
	}
}

// Digest returns the hex SHA-256 of a text
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

type indexedResult struct {
	index  int
	result models.CandidateResult
}

// ComparisonJob compares one candidate against the original on the worker pool
type ComparisonJob struct {
	Index      int
	Original   string
	Candidate  models.Candidate
	Detector   *Detector
	ResultChan chan<- indexedResult
}

// Execute executes the comparison job
func (j *ComparisonJob) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result := j.Detector.CompareDocuments(j.Original, j.Candidate.Text)

	candidateResult := models.CandidateResult{
		CandidateID:          j.Candidate.ID,
		SimilarityScore:      result.SimilarityScore,
		SimilarityLevel:      result.SimilarityLevel,
		MatchingSegmentCount: len(result.MatchingSegments),
		Digest:               Digest(j.Candidate.Text),
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.ResultChan <- indexedResult{index: j.Index, result: candidateResult}:
		return nil
	}
}

// BatchProcessor runs batch jobs on the worker pool and records their reports
type BatchProcessor struct {
	detector *Detector
	pool     *WorkerPool
	reports  ReportStore
	status   StatusTracker
	timeout  time.Duration
}

func NewBatchProcessor(
	detector *Detector,
	pool *WorkerPool,
	reports ReportStore,
	status StatusTracker,
	timeout time.Duration,
) *BatchProcessor {
	return &BatchProcessor{
		detector: detector,
		pool:     pool,
		reports:  reports,
		status:   status,
		timeout:  timeout,
	}
}

// Accept records a pending report and marks the job as initiated.
// Accepting a job id again keeps the existing report, so redelivered jobs can resume.
func (p *BatchProcessor) Accept(ctx context.Context, job *models.BatchJob) error {
	pendingReport := &models.BatchReport{
		JobID:          job.JobID,
		Status:         models.ReportPending,
		OriginalDigest: Digest(job.OriginalText),
		Results:        []models.CandidateResult{},
	}

	if err := p.reports.InsertBatchReport(ctx, pendingReport); err != nil {
		return fmt.Errorf("failed to create pending report: %w", err)
	}

	if err := p.status.UpdateStatus(ctx, job.JobID, models.StepInitiated); err != nil {
		log.Warn().Err(err).Str("jobId", job.JobID).Msg("Failed to update initiated status")
	}

	return nil
}

// Process compares every candidate and stores the completed report.
// On failure the report is marked failed and the error returned.
func (p *BatchProcessor) Process(ctx context.Context, job *models.BatchJob) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.status.UpdateStatus(ctx, job.JobID, models.StepStarted); err != nil {
		log.Warn().Err(err).Str("jobId", job.JobID).Msg("Failed to update started status")
	}

	results, err := p.compareCandidates(ctx, job)
	if err != nil {
		log.Error().Err(err).Str("jobId", job.JobID).Msg("Batch comparison failed")
		p.markFailed(job, err)
		return err
	}

	highest := 0.0
	for _, r := range results {
		highest = max(highest, r.SimilarityScore)
	}

	completedAt := time.Now()
	report := &models.BatchReport{
		JobID:          job.JobID,
		Status:         models.ReportCompleted,
		OriginalDigest: Digest(job.OriginalText),
		TotalAnalyzed:  len(results),
		HighestScore:   highest,
		Results:        results,
		CompletedAt:    &completedAt,
	}

	if err := p.reports.UpdateBatchReport(ctx, job.JobID, report); err != nil {
		p.markFailed(job, err)
		return fmt.Errorf("failed to store report: %w", err)
	}

	if err := p.status.UpdateStatus(ctx, job.JobID, models.StepCompleted); err != nil {
		log.Warn().Err(err).Str("jobId", job.JobID).Msg("Failed to update completed status")
	}

	metrics.BatchJobCount.WithLabelValues(models.ReportCompleted).Inc()

	log.Info().
		Str("jobId", job.JobID).
		Int("candidates", len(results)).
		Float64("highestScore", highest).
		Msg("Batch comparison completed successfully")

	return nil
}

// compareCandidates fans candidates out to the worker pool and collects
// results in submission order
func (p *BatchProcessor) compareCandidates(ctx context.Context, job *models.BatchJob) ([]models.CandidateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch not started: %w", err)
	}

	if err := p.status.UpdateStatus(ctx, job.JobID, models.StepComparing); err != nil {
		log.Warn().Err(err).Str("jobId", job.JobID).Msg("Failed to update comparing status")
	}

	resultChan := make(chan indexedResult, len(job.Candidates))

	for i, candidate := range job.Candidates {
		comparisonJob := &ComparisonJob{
			Index:      i,
			Original:   job.OriginalText,
			Candidate:  candidate,
			Detector:   p.detector,
			ResultChan: resultChan,
		}

		if err := p.pool.Submit(ctx, comparisonJob); err != nil {
			return nil, fmt.Errorf("failed to submit candidate %s: %w", candidate.ID, err)
		}
	}

	results := make([]models.CandidateResult, len(job.Candidates))
	for received := 0; received < len(job.Candidates); received++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("batch interrupted after %d of %d candidates: %w", received, len(job.Candidates), ctx.Err())
		case <-p.pool.Done():
			return nil, fmt.Errorf("batch interrupted after %d of %d candidates: %w", received, len(job.Candidates), ErrPoolClosed)
		case r := <-resultChan:
			results[r.index] = r.result
		}
	}

	return results, nil
}

func (p *BatchProcessor) markFailed(job *models.BatchJob, cause error) {
	// The job context may already be done; give the failure write its own deadline
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	metrics.BatchJobCount.WithLabelValues(models.ReportFailed).Inc()

	err := p.reports.UpdateBatchReport(ctx, job.JobID, &models.BatchReport{
		JobID:          job.JobID,
		Status:         models.ReportFailed,
		Error:          cause.Error(),
		OriginalDigest: Digest(job.OriginalText),
		Results:        []models.CandidateResult{},
	})
	if err != nil {
		log.Error().Err(err).Str("jobId", job.JobID).Msg("Failed to update failed report")
	}

	if err := p.status.UpdateStatus(ctx, job.JobID, models.StepFailed); err != nil {
		log.Warn().Err(err).Str("jobId", job.JobID).Msg("Failed to update failed status")
	}
}

// Status returns the current step and stored report of a job
func (p *BatchProcessor) Status(ctx context.Context, jobID string) (models.Step, *models.BatchReport, error) {
	report, err := p.reports.GetBatchReport(ctx, jobID)
	if err != nil {
		return models.StepIdle, nil, err
	}

	step, err := p.status.GetStatus(ctx, jobID)
	if err != nil {
		log.Warn().Err(err).Str("jobId", jobID).Msg("Failed to read status, deriving from report")
		step = models.StepIdle
	}
	if step == models.StepIdle {
		step = stepFromReport(report)
	}

	return step, report, nil
}

func stepFromReport(report *models.BatchReport) models.Step {
	switch report.Status {
	case models.ReportCompleted:
		return models.StepCompleted
	case models.ReportFailed:
		return models.StepFailed
	default:
		return models.StepInitiated
	}
}
