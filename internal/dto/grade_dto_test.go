package dto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acegrade/grader-go-api/internal/models"
)

func TestGradeRequestNormalizedAppliesDefaults(t *testing.T) {
	request := GradeRequest{
		Question: "  Evaluate the minimum wage.  ",
		Essay:    " An essay. ",
		Subject:  " Economics ",
	}

	normalized := request.Normalized()
	require.Equal(t, "Evaluate the minimum wage.", normalized.Question)
	require.Equal(t, "An essay.", normalized.Essay)
	require.Equal(t, "economics", normalized.Subject)
	require.Equal(t, "WEC11", normalized.Unit)
	require.Equal(t, "14-mark", normalized.QuestionType)
}

func TestGradeRequestNormalizedKeepsExplicitValues(t *testing.T) {
	request := GradeRequest{
		Question:     "Evaluate the minimum wage.",
		Essay:        "An essay.",
		Subject:      "economics",
		Unit:         "wec13",
		QuestionType: "6-mark",
	}

	normalized := request.Normalized()
	require.Equal(t, "WEC13", normalized.Unit)
	require.Equal(t, "6-mark", normalized.QuestionType)
}

func TestGradeResponseDegraded(t *testing.T) {
	response := GradeResponse{
		Examiners: []ExaminerScoreResponse{
			{ExaminerID: "knowledge"},
			{ExaminerID: "application", Degraded: true, FailureReason: FailureReasonTransport},
		},
	}
	require.True(t, response.Degraded())

	response.Examiners[1].Degraded = false
	require.False(t, response.Degraded())
}

func TestNewGradeRecordSummaryTruncatesQuestion(t *testing.T) {
	record := models.GradeRecord{
		ID:           4,
		Question:     strings.Repeat("q", 200),
		OverallScore: 6.3,
		Grade:        "C",
		CreatedAt:    time.Now(),
	}

	summary := NewGradeRecordSummary(record)
	require.Len(t, summary.QuestionPreview, 120)
	require.Equal(t, uint(4), summary.ID)
	require.Equal(t, "C", summary.Grade)
}
