// Package progress applies quiz results and manual toggles to a user's
// lesson and course completion state.
package progress

import (
	"context"
	"techlift_backend/internal/model"
	"time"
)

// Identity supplies the signed in user, if any.
type Identity interface {
	CurrentUserID() (string, bool)
}

// UserIdentity is a fixed identity. The empty value is unauthenticated.
type UserIdentity string

func (u UserIdentity) CurrentUserID() (string, bool) {
	return string(u), u != ""
}

// Store persists completion state. Every call may fail independently and is
// made at most once per triggering event.
type Store interface {
	GetCompletionRecord(ctx context.Context, userID string) (*model.CompletionRecord, error)
	SetLessonCompleted(ctx context.Context, userID, lessonID string, completed bool, at time.Time) error
	SetCourseCompleted(ctx context.Context, userID, courseID string, at time.Time) error
	UpdateStreak(ctx context.Context, userID string, streakDays int, lastLoginAt time.Time) error
	SaveQuizResult(ctx context.Context, result model.QuizResult) error
}

// Notifier receives the events emitted by the tracker.
type Notifier interface {
	LessonCompleted(userID, lessonID string)
	CourseCompleted(userID, courseID string)
	QuizFinished(result model.QuizResult)
	SyncFailed(userID, op string, err error)
}

type NopNotifier struct{}

func (NopNotifier) LessonCompleted(string, string)   {}
func (NopNotifier) CourseCompleted(string, string)   {}
func (NopNotifier) QuizFinished(model.QuizResult)    {}
func (NopNotifier) SyncFailed(string, string, error) {}

// MultiNotifier fans every event out to each notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) LessonCompleted(userID, lessonID string) {
	for _, n := range m {
		n.LessonCompleted(userID, lessonID)
	}
}

func (m MultiNotifier) CourseCompleted(userID, courseID string) {
	for _, n := range m {
		n.CourseCompleted(userID, courseID)
	}
}

func (m MultiNotifier) QuizFinished(result model.QuizResult) {
	for _, n := range m {
		n.QuizFinished(result)
	}
}

func (m MultiNotifier) SyncFailed(userID, op string, err error) {
	for _, n := range m {
		n.SyncFailed(userID, op, err)
	}
}
