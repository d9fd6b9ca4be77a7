package service

import (
	"context"
	"fmt"
	"sync"
	"techlift_backend/internal/catalog"
	"techlift_backend/internal/model"
	"techlift_backend/internal/progress"
	"techlift_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// CourseProgress is one course with the user's completion.
type CourseProgress struct {
	model.Course
	CompletedLessons int  `json:"completedLessons"`
	TotalLessons     int  `json:"totalLessons"`
	IsCompleted      bool `json:"isCompleted"`
}

// ProgressOverview backs the home screen stats.
type ProgressOverview struct {
	UserID             string           `json:"userId"`
	CompletedLessons   int              `json:"completedLessons"`
	TotalLessons       int              `json:"totalLessons"`
	CompletedCourseIDs []string         `json:"completedCourseIds"`
	CurrentStreakDays  int              `json:"currentStreakDays"`
	LastLoginAt        *time.Time       `json:"lastLoginAt,omitempty"`
	Courses            []CourseProgress `json:"courses"`
}

const defaultTrackerTTL = 30 * time.Minute

type cachedTracker struct {
	tracker  *progress.Tracker
	lastUsed time.Time
}

// ProgressService keeps one tracker per user, loaded from the store on first use
// and dropped after CacheTTL without use. With CacheTTL <= 0 every call
// reloads from the store. Calls for the same user are serialised.
type ProgressService struct {
	Catalog    *catalog.Catalog
	Store      progress.Store
	Notifier   progress.Notifier
	Dispatcher *progress.Dispatcher
	CacheTTL   time.Duration

	locks     *keyedMutex
	mu        sync.Mutex
	trackers  map[string]*cachedTracker
	lastSweep time.Time
	now       func() time.Time
}

func NewProgressService(cat *catalog.Catalog, store progress.Store, notifier progress.Notifier, syncTimeout time.Duration) *ProgressService {
	return &ProgressService{
		Catalog:    cat,
		Store:      store,
		Notifier:   notifier,
		Dispatcher: progress.NewDispatcher(syncTimeout),
		CacheTTL:   defaultTrackerTTL,
		locks:      newKeyedMutex(),
		trackers:   make(map[string]*cachedTracker),
		now:        time.Now,
	}
}

func (s *ProgressService) withTracker(ctx context.Context, userID string, fn func(t *progress.Tracker) error) error {
	if userID == "" {
		return progress.ErrNotAuthenticated
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	tracker := s.cached(userID)
	if tracker == nil {
		// Pending writes must land before the record is read back.
		s.Dispatcher.Flush(userID)
		record, err := s.Store.GetCompletionRecord(ctx, userID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		tracker = progress.NewTracker(s.Catalog, s.Store, progress.UserIdentity(userID), s.Notifier, s.Dispatcher, record, s.now)
		s.keep(userID, tracker)
	}
	return fn(tracker)
}

func (s *ProgressService) cached(userID string) *progress.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	entry, ok := s.trackers[userID]
	if !ok {
		return nil
	}
	entry.lastUsed = now
	return entry.tracker
}

func (s *ProgressService) keep(userID string, tracker *progress.Tracker) {
	if s.CacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackers[userID] = &cachedTracker{tracker: tracker, lastUsed: s.now()}
}

// sweep requires s.mu and runs at most once per CacheTTL.
func (s *ProgressService) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.CacheTTL {
		return
	}
	s.lastSweep = now
	for userID, entry := range s.trackers {
		if now.Sub(entry.lastUsed) >= s.CacheTTL {
			delete(s.trackers, userID)
		}
	}
}

// CachedUsers returns how many trackers are held in memory.
func (s *ProgressService) CachedUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trackers)
}

// Forget drops the cached tracker so the next call reloads from the store.
func (s *ProgressService) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trackers, userID)
}

func (s *ProgressService) Overview(ctx context.Context, userID string) (*ProgressOverview, error) {
	var overview *ProgressOverview
	err := s.withTracker(ctx, userID, func(t *progress.Tracker) error {
		record := t.Record()
		overview = &ProgressOverview{
			UserID:             userID,
			CompletedLessons:   t.CompletedLessonCount(),
			TotalLessons:       len(s.Catalog.AllLessons()),
			CompletedCourseIDs: []string{},
			CurrentStreakDays:  record.CurrentStreakDays,
		}
		if !record.LastLoginAt.IsZero() {
			last := record.LastLoginAt
			overview.LastLoginAt = &last
		}
		for _, course := range t.Courses() {
			completed, total, _ := t.CourseProgress(course.ID)
			done := t.IsCourseCompleted(course.ID)
			if done {
				overview.CompletedCourseIDs = append(overview.CompletedCourseIDs, course.ID)
			}
			overview.Courses = append(overview.Courses, CourseProgress{
				Course:           course,
				CompletedLessons: completed,
				TotalLessons:     total,
				IsCompleted:      done,
			})
		}
		return nil
	})
	return overview, err
}

func (s *ProgressService) Courses(ctx context.Context, userID string) ([]model.Course, error) {
	var courses []model.Course
	err := s.withTracker(ctx, userID, func(t *progress.Tracker) error {
		courses = t.Courses()
		return nil
	})
	return courses, err
}

// CourseLessons returns the course's lessons with IsCompleted for the user.
func (s *ProgressService) CourseLessons(ctx context.Context, userID, courseID string) ([]model.Lesson, error) {
	if _, ok := s.Catalog.CourseByID(courseID); !ok {
		return nil, fmt.Errorf("course %s: %w", courseID, catalog.ErrNotFound)
	}
	var lessons []model.Lesson
	err := s.withTracker(ctx, userID, func(t *progress.Tracker) error {
		lessons = t.Lessons(courseID)
		return nil
	})
	return lessons, err
}

func (s *ProgressService) Lesson(ctx context.Context, userID, lessonID string) (*model.Lesson, error) {
	lesson, ok := s.Catalog.LessonByID(lessonID)
	if !ok {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, catalog.ErrNotFound)
	}
	err := s.withTracker(ctx, userID, func(t *progress.Tracker) error {
		lesson.IsCompleted = t.IsLessonCompleted(lessonID)
		return nil
	})
	return &lesson, err
}

func (s *ProgressService) SetLessonCompletion(ctx context.Context, userID, lessonID string, completed bool) (progress.Outcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ProgressService.SetLessonCompletion")
	defer span.End()
	span.SetAttributes(attribute.String("lesson.id", lessonID), attribute.Bool("completed", completed))

	var outcome progress.Outcome
	err := s.withTracker(ctx, userID, func(t *progress.Tracker) error {
		var err error
		outcome, err = t.ToggleLessonManualCompletion(lessonID, completed)
		return err
	})
	return outcome, err
}

// ApplyQuizResult feeds a finished attempt into the user's tracker.
func (s *ProgressService) ApplyQuizResult(ctx context.Context, result model.QuizResult, lessonID string) (progress.Outcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ProgressService.ApplyQuizResult")
	defer span.End()
	span.SetAttributes(attribute.String("quiz.id", result.QuizID), attribute.Int("quiz.score", result.ScorePercent))

	var outcome progress.Outcome
	err := s.withTracker(ctx, result.UserID, func(t *progress.Tracker) error {
		var err error
		outcome, err = t.OnQuizResult(result, lessonID)
		return err
	})
	return outcome, err
}

// RecordLogin applies the streak rule for a login now and returns the streak.
func (s *ProgressService) RecordLogin(ctx context.Context, userID string) (int, error) {
	var streak int
	err := s.withTracker(ctx, userID, func(t *progress.Tracker) error {
		var err error
		streak, err = t.RecordLogin()
		return err
	})
	return streak, err
}

// Close waits for pending store calls.
func (s *ProgressService) Close() {
	s.Dispatcher.Wait()
}
