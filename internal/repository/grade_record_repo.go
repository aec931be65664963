package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/acegrade/grader-go-api/internal/models"
)

// GradeRecordRepository defines data operations for stored grading results.
type GradeRecordRepository interface {
	Create(ctx context.Context, record *models.GradeRecord) error
	GetByID(ctx context.Context, id uint) (models.GradeRecord, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.GradeRecord, int64, error)
}

type gradeRecordRepository struct {
	db *gorm.DB
}

// NewGradeRecordRepository instantiates the repository.
func NewGradeRecordRepository(db *gorm.DB) GradeRecordRepository {
	return &gradeRecordRepository{db: db}
}

func (r *gradeRecordRepository) Create(ctx context.Context, record *models.GradeRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *gradeRecordRepository) GetByID(ctx context.Context, id uint) (models.GradeRecord, error) {
	var record models.GradeRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	return record, err
}

func (r *gradeRecordRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.GradeRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.GradeRecord{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.GradeRecord
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
