package repository

import (
	"context"
	"errors"
	"techlift_backend/internal/model"
	"techlift_backend/internal/util"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompletionRepository stores lesson and course completion, streaks and quiz results.
type CompletionRepository struct {
	DB *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{DB: db}
}

func (r *CompletionRepository) GetCompletionRecord(ctx context.Context, userID string) (*model.CompletionRecord, error) {
	db := r.DB.WithContext(ctx)

	var user model.User
	if err := db.Select("id", "streak_days", "last_login_at").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	record := model.NewCompletionRecord(userID)
	record.CurrentStreakDays = user.StreakDays
	if user.LastLoginAt != nil {
		record.LastLoginAt = *user.LastLoginAt
	}

	var lessonIDs []string
	if err := db.Model(&model.LessonCompletion{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Pluck("lesson_id", &lessonIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range lessonIDs {
		record.CompletedLessonIDs[id] = true
	}

	var courseIDs []string
	if err := db.Model(&model.CourseCompletion{}).
		Where("user_id = ?", userID).
		Pluck("course_id", &courseIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range courseIDs {
		record.CompletedCourseIDs[id] = true
	}

	return record, nil
}

// SetLessonCompleted upserts the (user, lesson) row.
func (r *CompletionRepository) SetLessonCompleted(ctx context.Context, userID, lessonID string, completed bool, at time.Time) error {
	row := model.LessonCompletion{
		UserID:    userID,
		LessonID:  lessonID,
		Completed: completed,
	}
	if completed {
		row.CompletedAt = &at
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "updated_at"}),
	}).Create(&row).Error
}

// SetCourseCompleted keeps the first completion time when called again.
func (r *CompletionRepository) SetCourseCompleted(ctx context.Context, userID, courseID string, at time.Time) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&model.CourseCompletion{
		UserID:      userID,
		CourseID:    courseID,
		CompletedAt: at,
	}).Error
}

func (r *CompletionRepository) UpdateStreak(ctx context.Context, userID string, streakDays int, lastLoginAt time.Time) error {
	result := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"streak_days":   streakDays,
			"last_login_at": lastLoginAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrUserNotFound
	}
	return nil
}

func (r *CompletionRepository) SaveQuizResult(ctx context.Context, result model.QuizResult) error {
	return r.DB.WithContext(ctx).Create(model.NewQuizResultRecord(result)).Error
}

// QuizHistory returns a user's attempts at a quiz, newest first.
func (r *CompletionRepository) QuizHistory(ctx context.Context, userID, quizID string, limit int) ([]model.QuizResultRecord, error) {
	var records []model.QuizResultRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// BestScore returns the highest score of a user on a quiz, or false without attempts.
func (r *CompletionRepository) BestScore(ctx context.Context, userID, quizID string) (int, bool, error) {
	var records []model.QuizResultRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("score_percent DESC").
		Limit(1).
		Find(&records).Error
	if err != nil || len(records) == 0 {
		return 0, false, err
	}
	return records[0].ScorePercent, true, nil
}
