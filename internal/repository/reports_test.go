package repository

import (
	"testing"
	"time"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestInsertIfAbsent_OnlySetsOnInsert(t *testing.T) {
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	report := &models.BatchReport{
		JobID:          "job-1",
		Status:         models.ReportPending,
		OriginalDigest: "abc",
		Results:        []models.CandidateResult{},
		CreatedAt:      createdAt,
	}

	update := insertIfAbsent(report)

	require.Len(t, update, 1)
	fields, ok := update["$setOnInsert"].(bson.M)
	require.True(t, ok)
	assert.NotContains(t, fields, "jobId")
	assert.Equal(t, models.ReportPending, fields["status"])
	assert.Equal(t, "abc", fields["originalDigest"])
	assert.Equal(t, createdAt, fields["createdAt"])
}
