package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/RishiKendai/overlap/internal/config"
	"github.com/RishiKendai/overlap/internal/models"
	"github.com/RishiKendai/overlap/internal/plagiarism"
	"github.com/RishiKendai/overlap/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler holds dependencies for handlers
type Handler struct {
	cfg        *config.Config
	detector   *plagiarism.Detector
	batch      *plagiarism.BatchProcessor // nil when batch mode is disabled
	computeSem chan struct{}              // Semaphore for bounded batch concurrency
	inflight   sync.WaitGroup             // Background batch jobs
}

// NewHandler creates a new handler
func NewHandler(
	cfg *config.Config,
	detector *plagiarism.Detector,
	batch *plagiarism.BatchProcessor,
) *Handler {
	return &Handler{
		cfg:        cfg,
		detector:   detector,
		batch:      batch,
		computeSem: make(chan struct{}, cfg.MaxConcurrentCompute),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Message: "Plagiarism detection service is running",
	})
}

// Compare scores two documents and returns matching segments
func (h *Handler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Rejected compare request body")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if err := h.validateTextSize(req.OriginalText, req.ComparisonText); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error: err.Error(),
			Code:  "TEXT_TOO_LARGE",
		})
		return
	}

	result := h.detector.CompareDocuments(req.OriginalText, req.ComparisonText)

	log.Debug().
		Float64("score", result.SimilarityScore).
		Int("segments", len(result.MatchingSegments)).
		Int("originalBytes", len(req.OriginalText)).
		Int("comparisonBytes", len(req.ComparisonText)).
		Msg("Comparison completed")

	c.JSON(http.StatusOK, result)
}

// SubmitBatch accepts a one-to-many comparison and processes it asynchronously
func (h *Handler) SubmitBatch(c *gin.Context) {
	if h.batch == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: "Batch comparisons are not configured",
			Code:  "BATCH_DISABLED",
		})
		return
	}

	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if code, status, err := h.validateBatchPayload(req); err != nil {
		c.JSON(status, models.ErrorResponse{
			Error: err.Error(),
			Code:  code,
		})
		return
	}

	// Acquire semaphore (bounded concurrency)
	ctx := c.Request.Context()
	select {
	case h.computeSem <- struct{}{}:
	case <-ctx.Done():
		c.JSON(http.StatusRequestTimeout, models.ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
		})
		return
	}

	job := plagiarism.NewBatchJob("", req.OriginalText, req.Candidates)

	if err := h.batch.Accept(ctx, job); err != nil {
		<-h.computeSem
		log.Error().Err(err).Str("jobId", job.JobID).Msg("Failed to accept batch job")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to create batch job",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	// Return 202 Accepted immediately
	c.JSON(http.StatusAccepted, models.BatchResponse{
		Step:  models.StepInitiated,
		JobID: job.JobID,
	})

	h.inflight.Add(1)
	go h.processBatch(job)
}

// processBatch runs a batch job in the background
func (h *Handler) processBatch(job *models.BatchJob) {
	defer h.inflight.Done()
	defer func() { <-h.computeSem }() // Release semaphore

	if err := h.batch.Process(context.Background(), job); err != nil {
		log.Error().Err(err).Str("jobId", job.JobID).Msg("Batch computation failed")
		return
	}

	log.Debug().Str("jobId", job.JobID).Msg("Batch computation completed successfully")
}

// WaitForBatches blocks until background batch jobs finish or ctx is done.
// Call it after the server stops accepting requests.
func (h *Handler) WaitForBatches(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetBatch returns the step and report of a batch job
func (h *Handler) GetBatch(c *gin.Context) {
	if h.batch == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: "Batch comparisons are not configured",
			Code:  "BATCH_DISABLED",
		})
		return
	}

	jobID := c.Param("id")
	step, report, err := h.batch.Status(c.Request.Context(), jobID)
	if errors.Is(err, repository.ErrReportNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "No batch job found for id",
			Code:  "JOB_NOT_FOUND",
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID).Msg("Failed to get batch report")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to get batch status",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, models.BatchStatusResponse{
		JobID:  jobID,
		Step:   step,
		Report: report,
	})
}

func (h *Handler) validateTextSize(texts ...string) error {
	for _, text := range texts {
		if len(text) > h.cfg.MaxTextBytes {
			return fmt.Errorf("text exceeds %d bytes", h.cfg.MaxTextBytes)
		}
	}
	return nil
}

func (h *Handler) validateBatchPayload(req models.BatchRequest) (string, int, error) {
	if len(req.Candidates) == 0 {
		return "INVALID_REQUEST", http.StatusBadRequest, fmt.Errorf("at least one candidate is required")
	}
	if len(req.Candidates) > h.cfg.MaxBatchCandidates {
		return "TOO_MANY_CANDIDATES", http.StatusBadRequest,
			fmt.Errorf("at most %d candidates are allowed", h.cfg.MaxBatchCandidates)
	}

	texts := make([]string, 0, len(req.Candidates)+1)
	texts = append(texts, req.OriginalText)
	for _, candidate := range req.Candidates {
		texts = append(texts, candidate.Text)
	}
	if err := h.validateTextSize(texts...); err != nil {
		return "TEXT_TOO_LARGE", http.StatusRequestEntityTooLarge, err
	}

	return "", 0, nil
}
