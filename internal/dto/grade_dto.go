package dto

import (
	"strings"
	"time"

	"github.com/acegrade/grader-go-api/internal/exam"
	"github.com/acegrade/grader-go-api/internal/models"
)

// Failure reasons attached to degraded examiner scores.
const (
	FailureReasonTransport = "transport"
	FailureReasonParse     = "parse"
)

// GradeRequest is the inbound unit of grading work. It is validated once at
// the boundary and never mutated afterwards.
type GradeRequest struct {
	Question     string `json:"question" validate:"required,max=4000"`
	Essay        string `json:"essay" validate:"required,min=1,max=40000"`
	Subject      string `json:"subject" validate:"required,oneof=economics geography"`
	Unit         string `json:"unit" validate:"omitempty,oneof=WEC11 WEC12 WEC13 WEC14"`
	QuestionType string `json:"questionType" validate:"omitempty"`
	HasDiagram   bool   `json:"hasDiagram"`
}

// Normalized returns a copy with whitespace trimmed and defaults applied.
func (r GradeRequest) Normalized() GradeRequest {
	out := r
	out.Question = strings.TrimSpace(r.Question)
	out.Essay = strings.TrimSpace(r.Essay)
	out.Subject = strings.ToLower(strings.TrimSpace(r.Subject))
	out.Unit = strings.ToUpper(strings.TrimSpace(r.Unit))
	out.QuestionType = strings.TrimSpace(r.QuestionType)

	if out.Unit == "" {
		out.Unit = exam.DefaultUnit
	}
	if out.QuestionType == "" {
		out.QuestionType = exam.DefaultQuestionType
	}

	return out
}

// ExaminerScoreResponse is one examiner's verdict on the candidate response.
type ExaminerScoreResponse struct {
	ExaminerID    string   `json:"examinerId"`
	ExaminerName  string   `json:"examinerName"`
	Score         float64  `json:"score"`
	MaxScore      float64  `json:"maxScore"`
	Feedback      string   `json:"feedback"`
	Criteria      []string `json:"criteria"`
	AO            string   `json:"ao"`
	Color         string   `json:"color"`
	Degraded      bool     `json:"degraded"`
	FailureReason string   `json:"failureReason,omitempty"`
}

// GradeResponse is the aggregate grading result returned to the caller.
type GradeResponse struct {
	OverallScore    float64                 `json:"overallScore"`
	Grade           string                  `json:"grade"`
	Examiners       []ExaminerScoreResponse `json:"examiners"`
	Summary         string                  `json:"summary"`
	Improvements    []string                `json:"improvements"`
	QuestionType    string                  `json:"questionType"`
	Unit            string                  `json:"unit"`
	Subject         string                  `json:"subject"`
	DiagramFeedback string                  `json:"diagramFeedback,omitempty"`
	RecordID        uint                    `json:"recordId,omitempty"`
	Cached          bool                    `json:"cached"`
}

// Degraded reports whether any examiner entry was produced by a fallback
// path rather than a parsed upstream reply.
func (r GradeResponse) Degraded() bool {
	for _, examiner := range r.Examiners {
		if examiner.Degraded {
			return true
		}
	}
	return false
}

// GradeRecordSummary is a single row of a user's grading history.
type GradeRecordSummary struct {
	ID              uint      `json:"id"`
	Subject         string    `json:"subject"`
	Unit            string    `json:"unit"`
	QuestionType    string    `json:"questionType"`
	QuestionPreview string    `json:"questionPreview"`
	OverallScore    float64   `json:"overallScore"`
	Grade           string    `json:"grade"`
	Degraded        bool      `json:"degraded"`
	CreatedAt       time.Time `json:"createdAt"`
}

// GradeHistoryResponse pages a user's past grading results.
type GradeHistoryResponse struct {
	Items      []GradeRecordSummary `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// NewGradeRecordSummary converts a stored record into a history row.
func NewGradeRecordSummary(record models.GradeRecord) GradeRecordSummary {
	preview := record.Question
	if len(preview) > 120 {
		preview = preview[:120]
	}

	return GradeRecordSummary{
		ID:              record.ID,
		Subject:         record.Subject,
		Unit:            record.Unit,
		QuestionType:    record.QuestionType,
		QuestionPreview: preview,
		OverallScore:    record.OverallScore,
		Grade:           record.Grade,
		Degraded:        record.Degraded,
		CreatedAt:       record.CreatedAt,
	}
}

// NewGradeRecordSummarySlice converts stored records into history rows.
func NewGradeRecordSummarySlice(records []models.GradeRecord) []GradeRecordSummary {
	items := make([]GradeRecordSummary, 0, len(records))
	for _, record := range records {
		items = append(items, NewGradeRecordSummary(record))
	}
	return items
}
