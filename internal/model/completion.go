package model

import (
	"time"
)

// CompletionRecord is the per-user progress document. It is updated incrementally, never replaced.
type CompletionRecord struct {
	UserID             string
	CompletedLessonIDs map[string]bool
	CompletedCourseIDs map[string]bool
	CurrentStreakDays  int
	LastLoginAt        time.Time
}

func NewCompletionRecord(userID string) *CompletionRecord {
	return &CompletionRecord{
		UserID:             userID,
		CompletedLessonIDs: make(map[string]bool),
		CompletedCourseIDs: make(map[string]bool),
	}
}

func (r *CompletionRecord) Clone() *CompletionRecord {
	out := NewCompletionRecord(r.UserID)
	for id, done := range r.CompletedLessonIDs {
		if done {
			out.CompletedLessonIDs[id] = true
		}
	}
	for id, done := range r.CompletedCourseIDs {
		if done {
			out.CompletedCourseIDs[id] = true
		}
	}
	out.CurrentStreakDays = r.CurrentStreakDays
	out.LastLoginAt = r.LastLoginAt
	return out
}

// LessonCompletion records a user's completion state for a lesson
// swagger:model LessonCompletion
type LessonCompletion struct {
	BaseModel
	UserID      string `gorm:"type:varchar(36);uniqueIndex:idx_user_lesson"`
	LessonID    string `gorm:"size:64;uniqueIndex:idx_user_lesson"`
	Completed   bool   `gorm:"default:false"`
	CompletedAt *time.Time
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}

// CourseCompletion is written once a user has completed every lesson of a course
// swagger:model CourseCompletion
type CourseCompletion struct {
	BaseModel
	UserID      string    `gorm:"type:varchar(36);uniqueIndex:idx_user_course"`
	CourseID    string    `gorm:"size:64;uniqueIndex:idx_user_course"`
	CompletedAt time.Time `gorm:"not null"`
}

func (CourseCompletion) TableName() string {
	return "course_completions"
}
