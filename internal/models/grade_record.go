package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradeRecord stores one completed grading result together with its
// per-examiner breakdown. Persistence is best-effort; the grading
// response never depends on it.
type GradeRecord struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	Subject         string         `gorm:"size:32;not null" json:"subject"`
	Unit            string         `gorm:"size:16;not null" json:"unit"`
	QuestionType    string         `gorm:"size:16;not null" json:"question_type"`
	Question        string         `gorm:"type:text" json:"question"`
	EssayLength     int            `json:"essay_length"`
	OverallScore    float64        `gorm:"not null" json:"overall_score"`
	Grade           string         `gorm:"size:4;not null" json:"grade"`
	Summary         string         `gorm:"type:text" json:"summary"`
	Improvements    datatypes.JSON `json:"improvements"`
	Examiners       datatypes.JSON `json:"examiners"`
	DiagramFeedback string         `gorm:"type:text" json:"diagram_feedback"`
	Degraded        bool           `json:"degraded"`
	CreatedAt       time.Time      `json:"created_at"`
}
