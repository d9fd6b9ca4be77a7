package progress

import (
	"context"
	"errors"
	"fmt"
	"techlift_backend/internal/catalog"
	"techlift_backend/internal/model"
	"techlift_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("no signed in user, progress not synced")
	ErrLessonNotFound   = fmt.Errorf("lesson %w", catalog.ErrNotFound)
	ErrQuizMismatch     = errors.New("quiz result does not belong to lesson")
	ErrPersistence      = errors.New("progress sync failed")
)

// Store operation names reported to Notifier.SyncFailed.
const (
	OpSetLessonCompleted = "set_lesson_completed"
	OpSetCourseCompleted = "set_course_completed"
	OpUpdateStreak       = "update_streak"
	OpSaveQuizResult     = "save_quiz_result"
)

// Outcome describes what a tracker operation changed.
type Outcome struct {
	LessonID            string `json:"lessonId"`
	CourseID            string `json:"courseId"`
	LessonCompleted     bool   `json:"lessonCompleted"`
	LessonChanged       bool   `json:"lessonChanged"`
	CourseCompleted     bool   `json:"courseCompleted"`
	CourseJustCompleted bool   `json:"courseJustCompleted"`
}

// Tracker owns one user's completion record. Local state is updated
// immediately and store calls run through the dispatcher without being
// awaited. A Tracker is not safe for concurrent use.
type Tracker struct {
	catalog    *catalog.Catalog
	store      Store
	identity   Identity
	notifier   Notifier
	dispatcher *Dispatcher
	record     *model.CompletionRecord
	now        func() time.Time
}

func NewTracker(
	cat *catalog.Catalog,
	store Store,
	identity Identity,
	notifier Notifier,
	dispatcher *Dispatcher,
	record *model.CompletionRecord,
	now func() time.Time,
) *Tracker {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher(0)
	}
	if now == nil {
		now = time.Now
	}
	if record == nil {
		userID, _ := identity.CurrentUserID()
		record = model.NewCompletionRecord(userID)
	} else {
		record = record.Clone()
	}

	t := &Tracker{
		catalog:    cat,
		store:      store,
		identity:   identity,
		notifier:   notifier,
		dispatcher: dispatcher,
		record:     record,
		now:        now,
	}
	t.reconcileCourses()
	return t
}

// reconcileCourses makes every catalog course flag agree with its lessons.
func (t *Tracker) reconcileCourses() {
	for _, course := range t.catalog.Courses() {
		if t.allLessonsCompleted(course.ID) {
			t.record.CompletedCourseIDs[course.ID] = true
		} else {
			delete(t.record.CompletedCourseIDs, course.ID)
		}
	}
}

// OnQuizResult completes the lesson when the result passed. A failed result
// never un-completes a lesson. Every finished attempt is saved.
func (t *Tracker) OnQuizResult(result model.QuizResult, lessonID string) (Outcome, error) {
	lesson, ok := t.catalog.LessonByID(lessonID)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}
	if lesson.QuizID != result.QuizID {
		return Outcome{}, fmt.Errorf("%w: quiz %q, lesson %q", ErrQuizMismatch, result.QuizID, lessonID)
	}

	userID, authenticated := t.identity.CurrentUserID()
	t.notifier.QuizFinished(result)

	outcome := t.outcomeFor(lesson)
	if result.Passed {
		outcome = t.apply(lesson, true)
	}

	if !authenticated {
		return outcome, ErrNotAuthenticated
	}
	t.async(userID, OpSaveQuizResult, func(ctx context.Context) error {
		return t.store.SaveQuizResult(ctx, result)
	})
	t.persist(userID, outcome, result.CompletedAt)
	return outcome, nil
}

// ToggleLessonManualCompletion sets the lesson flag directly. Repeating a
// call is a no-op and emits nothing.
func (t *Tracker) ToggleLessonManualCompletion(lessonID string, completed bool) (Outcome, error) {
	lesson, ok := t.catalog.LessonByID(lessonID)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}

	userID, authenticated := t.identity.CurrentUserID()
	outcome := t.apply(lesson, completed)
	if !authenticated {
		return outcome, ErrNotAuthenticated
	}
	t.persist(userID, outcome, t.now())
	return outcome, nil
}

// RecordLogin updates the streak for a login at the current time and
// returns the new streak. lastLoginAt only moves forward once a day bucket
// has elapsed, so several logins on one day count once.
func (t *Tracker) RecordLogin() (int, error) {
	now := t.now()
	prev := t.record.LastLoginAt
	if !prev.IsZero() && DaysBetween(prev, now) < 1 {
		return t.record.CurrentStreakDays, nil
	}
	streak := CurrentStreakDays(prev, now, t.record.CurrentStreakDays)

	t.record.CurrentStreakDays = streak
	t.record.LastLoginAt = now

	userID, authenticated := t.identity.CurrentUserID()
	if !authenticated {
		return streak, ErrNotAuthenticated
	}
	t.async(userID, OpUpdateStreak, func(ctx context.Context) error {
		return t.store.UpdateStreak(ctx, userID, streak, now)
	})
	return streak, nil
}

func (t *Tracker) apply(lesson model.Lesson, completed bool) Outcome {
	wasLesson := t.record.CompletedLessonIDs[lesson.ID]
	wasCourse := t.record.CompletedCourseIDs[lesson.CourseID]

	if completed {
		t.record.CompletedLessonIDs[lesson.ID] = true
	} else {
		delete(t.record.CompletedLessonIDs, lesson.ID)
	}

	courseDone := t.allLessonsCompleted(lesson.CourseID)
	if courseDone {
		t.record.CompletedCourseIDs[lesson.CourseID] = true
	} else {
		delete(t.record.CompletedCourseIDs, lesson.CourseID)
	}

	outcome := Outcome{
		LessonID:            lesson.ID,
		CourseID:            lesson.CourseID,
		LessonCompleted:     completed,
		LessonChanged:       wasLesson != completed,
		CourseCompleted:     courseDone,
		CourseJustCompleted: courseDone && !wasCourse,
	}

	userID, _ := t.identity.CurrentUserID()
	if outcome.LessonChanged && completed {
		t.notifier.LessonCompleted(userID, lesson.ID)
	}
	if outcome.CourseJustCompleted {
		t.notifier.CourseCompleted(userID, lesson.CourseID)
	}
	return outcome
}

func (t *Tracker) outcomeFor(lesson model.Lesson) Outcome {
	return Outcome{
		LessonID:        lesson.ID,
		CourseID:        lesson.CourseID,
		LessonCompleted: t.record.CompletedLessonIDs[lesson.ID],
		CourseCompleted: t.record.CompletedCourseIDs[lesson.CourseID],
	}
}

func (t *Tracker) persist(userID string, outcome Outcome, at time.Time) {
	if outcome.LessonChanged {
		completed := outcome.LessonCompleted
		t.async(userID, OpSetLessonCompleted, func(ctx context.Context) error {
			return t.store.SetLessonCompleted(ctx, userID, outcome.LessonID, completed, at)
		})
	}
	if outcome.CourseJustCompleted {
		t.async(userID, OpSetCourseCompleted, func(ctx context.Context) error {
			return t.store.SetCourseCompleted(ctx, userID, outcome.CourseID, at)
		})
	}
}

func (t *Tracker) async(userID, op string, call func(ctx context.Context) error) {
	t.dispatcher.Go(userID, func(ctx context.Context) {
		if err := call(ctx); err != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
			logger.Log.Warn("Progress sync failed",
				zap.String("userID", userID),
				zap.String("op", op),
				zap.Error(err))
			t.notifier.SyncFailed(userID, op, err)
		}
	})
}

func (t *Tracker) allLessonsCompleted(courseID string) bool {
	lessons := t.catalog.LessonsForCourse(courseID)
	if len(lessons) == 0 {
		return false
	}
	for _, l := range lessons {
		if !t.record.CompletedLessonIDs[l.ID] {
			return false
		}
	}
	return true
}

func (t *Tracker) IsLessonCompleted(lessonID string) bool {
	return t.record.CompletedLessonIDs[lessonID]
}

func (t *Tracker) IsCourseCompleted(courseID string) bool {
	return t.record.CompletedCourseIDs[courseID]
}

// CourseProgress returns completed and total lesson counts and the floored percentage.
func (t *Tracker) CourseProgress(courseID string) (completed, total, percent int) {
	lessons := t.catalog.LessonsForCourse(courseID)
	for _, l := range lessons {
		if t.record.CompletedLessonIDs[l.ID] {
			completed++
		}
	}
	total = len(lessons)
	if total > 0 {
		percent = completed * 100 / total
	}
	return completed, total, percent
}

// Courses returns the catalog courses with this user's completion percent.
func (t *Tracker) Courses() []model.Course {
	courses := t.catalog.Courses()
	for i := range courses {
		_, _, courses[i].CompletionPercent = t.CourseProgress(courses[i].ID)
	}
	return courses
}

// Lessons returns the course lessons with IsCompleted filled in.
func (t *Tracker) Lessons(courseID string) []model.Lesson {
	lessons := t.catalog.LessonsForCourse(courseID)
	for i := range lessons {
		lessons[i].IsCompleted = t.record.CompletedLessonIDs[lessons[i].ID]
	}
	return lessons
}

func (t *Tracker) CompletedLessonCount() int {
	n := 0
	for _, l := range t.catalog.AllLessons() {
		if t.record.CompletedLessonIDs[l.ID] {
			n++
		}
	}
	return n
}

func (t *Tracker) Record() *model.CompletionRecord {
	return t.record.Clone()
}
