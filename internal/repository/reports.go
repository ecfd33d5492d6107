package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/overlap/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reportsCollection = "comparison_reports"

// ErrReportNotFound is returned when no report exists for a job id
var ErrReportNotFound = errors.New("report not found")

// ReportsRepository stores batch reports in the comparison_reports collection
type ReportsRepository struct {
	mongoRepo *MongoRepository
}

func NewReportsRepository(mongoRepo *MongoRepository) *ReportsRepository {
	return &ReportsRepository{
		mongoRepo: mongoRepo,
	}
}

// EnsureIndexes creates the unique job id index
func (r *ReportsRepository) EnsureIndexes(ctx context.Context) error {
	if err := r.mongoRepo.EnsureIndex(ctx, reportsCollection, bson.D{{Key: "jobId", Value: 1}}, true); err != nil {
		return fmt.Errorf("failed to create report index: %w", err)
	}
	return nil
}

// InsertBatchReport creates the report for a job id. An existing report is
// left untouched, so a redelivered job does not hit the unique index.
func (r *ReportsRepository) InsertBatchReport(ctx context.Context, report *models.BatchReport) error {
	report.CreatedAt = time.Now()

	filter := bson.M{"jobId": report.JobID}
	_, err := r.mongoRepo.UpdateOne(ctx, reportsCollection, filter, insertIfAbsent(report), options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to insert batch report: %w", err)
	}

	return nil
}

// UpdateBatchReport overwrites the outcome fields of a report, keeping createdAt
func (r *ReportsRepository) UpdateBatchReport(ctx context.Context, jobID string, report *models.BatchReport) error {
	filter := bson.M{"jobId": jobID}
	update := bson.M{
		"$set": bson.M{
			"status":         report.Status,
			"error":          report.Error,
			"originalDigest": report.OriginalDigest,
			"totalAnalyzed":  report.TotalAnalyzed,
			"highestScore":   report.HighestScore,
			"results":        report.Results,
			"completedAt":    report.CompletedAt,
		},
	}

	result, err := r.mongoRepo.UpdateOne(ctx, reportsCollection, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update batch report: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update batch report %s: %w", jobID, ErrReportNotFound)
	}

	return nil
}

func (r *ReportsRepository) GetBatchReport(ctx context.Context, jobID string) (*models.BatchReport, error) {
	filter := bson.M{"jobId": jobID}

	var report models.BatchReport
	err := r.mongoRepo.FindOne(ctx, reportsCollection, filter).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}

// insertIfAbsent builds an upsert that only writes on insert. jobId comes from the filter.
func insertIfAbsent(report *models.BatchReport) bson.M {
	return bson.M{
		"$setOnInsert": bson.M{
			"status":         report.Status,
			"originalDigest": report.OriginalDigest,
			"totalAnalyzed":  report.TotalAnalyzed,
			"highestScore":   report.HighestScore,
			"results":        report.Results,
			"createdAt":      report.CreatedAt,
		},
	}
}
