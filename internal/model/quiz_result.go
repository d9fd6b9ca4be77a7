package model

import (
	"time"
)

// QuizResultRecord stores every finished quiz attempt
type QuizResultRecord struct {
	BaseModel
	UserID         string    `gorm:"index;type:varchar(36);not null"`
	QuizID         string    `gorm:"index;size:64;not null"`
	ScorePercent   int       `gorm:"not null"`
	CorrectCount   int       `gorm:"not null"`
	TotalQuestions int       `gorm:"not null"`
	ElapsedMillis  int64     `gorm:"not null"`
	Passed         bool      `gorm:"default:false"`
	CompletedAt    time.Time `gorm:"not null"`
}

func (QuizResultRecord) TableName() string {
	return "quiz_results"
}

func NewQuizResultRecord(r QuizResult) *QuizResultRecord {
	return &QuizResultRecord{
		UserID:         r.UserID,
		QuizID:         r.QuizID,
		ScorePercent:   r.ScorePercent,
		CorrectCount:   r.CorrectCount,
		TotalQuestions: r.TotalQuestions,
		ElapsedMillis:  r.ElapsedMillis,
		Passed:         r.Passed,
		CompletedAt:    r.CompletedAt,
	}
}

func (r QuizResultRecord) Result() QuizResult {
	return QuizResult{
		QuizID:         r.QuizID,
		UserID:         r.UserID,
		ScorePercent:   r.ScorePercent,
		CorrectCount:   r.CorrectCount,
		TotalQuestions: r.TotalQuestions,
		ElapsedMillis:  r.ElapsedMillis,
		Passed:         r.Passed,
		CompletedAt:    r.CompletedAt,
	}
}
