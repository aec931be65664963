package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/acegrade/grader-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GradeRecord{}))

	t.Cleanup(func() {
		db.Exec("DELETE FROM grade_records")
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func newRecord(userID uint, question string) *models.GradeRecord {
	return &models.GradeRecord{
		UserID:       userID,
		Subject:      "economics",
		Unit:         "WEC11",
		QuestionType: "14-mark",
		Question:     question,
		EssayLength:  512,
		OverallScore: 7.5,
		Grade:        "B",
		Summary:      "Solid work overall.",
		Improvements: datatypes.JSON(`["expand analysis"]`),
		Examiners:    datatypes.JSON(`[{"examinerId":"knowledge","score":7.5}]`),
	}
}

func TestGradeRecordCreateAndGet(t *testing.T) {
	repo := NewGradeRecordRepository(setupTestDB(t))

	record := newRecord(1, "Evaluate the effects of a minimum wage.")
	require.NoError(t, repo.Create(context.Background(), record))
	require.NotZero(t, record.ID)

	stored, err := repo.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, record.UserID, stored.UserID)
	require.Equal(t, record.Grade, stored.Grade)
	require.JSONEq(t, `[{"examinerId":"knowledge","score":7.5}]`, string(stored.Examiners))
}

func TestGradeRecordGetMissing(t *testing.T) {
	repo := NewGradeRecordRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGradeRecordListByUserPagination(t *testing.T) {
	repo := NewGradeRecordRepository(setupTestDB(t))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		record := newRecord(5, fmt.Sprintf("question %d", i))
		record.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(context.Background(), record))
	}
	require.NoError(t, repo.Create(context.Background(), newRecord(6, "other user")))

	records, total, err := repo.ListByUser(context.Background(), 5, 0, 5)
	require.NoError(t, err)
	require.Equal(t, int64(7), total)
	require.Len(t, records, 5)

	// Newest first.
	require.Equal(t, "question 6", records[0].Question)

	rest, total, err := repo.ListByUser(context.Background(), 5, 5, 5)
	require.NoError(t, err)
	require.Equal(t, int64(7), total)
	require.Len(t, rest, 2)
}

func TestGradeRecordListByUserEmpty(t *testing.T) {
	repo := NewGradeRecordRepository(setupTestDB(t))

	records, total, err := repo.ListByUser(context.Background(), 42, 0, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, records)
}
