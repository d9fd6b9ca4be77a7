package progress

import (
	"context"
	"errors"
	"sync"
	"techlift_backend/internal/catalog"
	"techlift_backend/internal/model"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type storeCall struct {
	op        string
	userID    string
	id        string
	completed bool
	streak    int
}

type fakeStore struct {
	mu      sync.Mutex
	calls   []storeCall
	fail    error
	lessons map[string]bool
	// slow delays a call before it is applied.
	slow func(c storeCall) time.Duration
}

func (s *fakeStore) record(c storeCall) error {
	if s.slow != nil {
		time.Sleep(s.slow(c))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	if c.op == OpSetLessonCompleted && s.fail == nil {
		if s.lessons == nil {
			s.lessons = make(map[string]bool)
		}
		s.lessons[c.id] = c.completed
	}
	return s.fail
}

func (s *fakeStore) lesson(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lessons[id]
}

func (s *fakeStore) GetCompletionRecord(ctx context.Context, userID string) (*model.CompletionRecord, error) {
	return model.NewCompletionRecord(userID), nil
}

func (s *fakeStore) SetLessonCompleted(ctx context.Context, userID, lessonID string, completed bool, at time.Time) error {
	return s.record(storeCall{op: OpSetLessonCompleted, userID: userID, id: lessonID, completed: completed})
}

func (s *fakeStore) SetCourseCompleted(ctx context.Context, userID, courseID string, at time.Time) error {
	return s.record(storeCall{op: OpSetCourseCompleted, userID: userID, id: courseID})
}

func (s *fakeStore) UpdateStreak(ctx context.Context, userID string, streakDays int, lastLoginAt time.Time) error {
	return s.record(storeCall{op: OpUpdateStreak, userID: userID, streak: streakDays})
}

func (s *fakeStore) SaveQuizResult(ctx context.Context, result model.QuizResult) error {
	return s.record(storeCall{op: OpSaveQuizResult, userID: result.UserID, id: result.QuizID})
}

func (s *fakeStore) ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		out = append(out, c.op)
	}
	return out
}

func (s *fakeStore) count(op string) int {
	n := 0
	for _, o := range s.ops() {
		if o == op {
			n++
		}
	}
	return n
}

type recorder struct {
	mu       sync.Mutex
	lessons  []string
	courses  []string
	quizzes  []model.QuizResult
	failures []string
}

func (r *recorder) LessonCompleted(userID, lessonID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lessons = append(r.lessons, lessonID)
}

func (r *recorder) CourseCompleted(userID, courseID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses = append(r.courses, courseID)
}

func (r *recorder) QuizFinished(result model.QuizResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizzes = append(r.quizzes, result)
}

func (r *recorder) SyncFailed(userID, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, op)
}

type fixture struct {
	tracker    *Tracker
	store      *fakeStore
	events     *recorder
	dispatcher *Dispatcher
	clock      *time.Time
}

func newFixture(t *testing.T, identity Identity, record *model.CompletionRecord) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	now := t0
	f := &fixture{
		store:      &fakeStore{},
		events:     &recorder{},
		dispatcher: NewDispatcher(time.Second),
		clock:      &now,
	}
	f.tracker = NewTracker(cat, f.store, identity, f.events, f.dispatcher, record, func() time.Time { return *f.clock })
	return f
}

func passedResult(quizID string) model.QuizResult {
	return model.QuizResult{QuizID: quizID, UserID: "u1", ScorePercent: 80, CorrectCount: 4, TotalQuestions: 5, Passed: true, CompletedAt: t0}
}

func failedResult(quizID string) model.QuizResult {
	return model.QuizResult{QuizID: quizID, UserID: "u1", ScorePercent: 60, CorrectCount: 3, TotalQuestions: 5, Passed: false, CompletedAt: t0}
}

func TestToggle_LastLessonCompletesCourseOnce(t *testing.T) {
	record := model.NewCompletionRecord("u1")
	record.CompletedLessonIDs["frontend_1"] = true
	record.CompletedLessonIDs["frontend_2"] = true
	f := newFixture(t, UserIdentity("u1"), record)

	outcome, err := f.tracker.ToggleLessonManualCompletion("frontend_3", true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !outcome.CourseJustCompleted || !f.tracker.IsCourseCompleted("frontend") {
		t.Fatalf("expected course to complete, got %+v", outcome)
	}

	if _, err := f.tracker.ToggleLessonManualCompletion("frontend_3", true); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	f.dispatcher.Wait()

	if len(f.events.courses) != 1 || f.events.courses[0] != "frontend" {
		t.Fatalf("expected exactly one courseCompleted event, got %v", f.events.courses)
	}
	if got := f.store.count(OpSetCourseCompleted); got != 1 {
		t.Fatalf("expected one course write, got %d", got)
	}
	if got := f.store.count(OpSetLessonCompleted); got != 1 {
		t.Fatalf("expected one lesson write, got %d", got)
	}
}

func TestToggle_Idempotent(t *testing.T) {
	f := newFixture(t, UserIdentity("u1"), nil)

	first, _ := f.tracker.ToggleLessonManualCompletion("backend_1", true)
	afterFirst := f.tracker.Record()
	second, _ := f.tracker.ToggleLessonManualCompletion("backend_1", true)
	afterSecond := f.tracker.Record()

	if !first.LessonChanged || second.LessonChanged {
		t.Fatalf("expected only the first call to change state: %+v %+v", first, second)
	}
	if len(afterFirst.CompletedLessonIDs) != len(afterSecond.CompletedLessonIDs) ||
		len(afterFirst.CompletedCourseIDs) != len(afterSecond.CompletedCourseIDs) {
		t.Fatalf("state differs after repeated toggle")
	}
	f.dispatcher.Wait()
	if len(f.events.lessons) != 1 {
		t.Fatalf("expected one lessonCompleted event, got %v", f.events.lessons)
	}
}

func TestToggle_CourseInvariantHoldsAfterEveryStep(t *testing.T) {
	f := newFixture(t, UserIdentity("u1"), nil)
	cat := f.tracker.catalog

	steps := []struct {
		lessonID  string
		completed bool
	}{
		{"backend_1", true},
		{"backend_2", true},
		{"backend_1", false},
		{"frontend_3", true},
		{"backend_1", true},
		{"backend_2", false},
		{"backend_2", true},
		{"ai_1", true},
		{"ai_1", false},
	}
	for i, step := range steps {
		if _, err := f.tracker.ToggleLessonManualCompletion(step.lessonID, step.completed); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		for _, course := range cat.Courses() {
			all := true
			for _, l := range cat.LessonsForCourse(course.ID) {
				all = all && f.tracker.IsLessonCompleted(l.ID)
			}
			if f.tracker.IsCourseCompleted(course.ID) != all {
				t.Fatalf("step %d: course %q complete=%v but all lessons=%v", i, course.ID, f.tracker.IsCourseCompleted(course.ID), all)
			}
		}
	}
	f.dispatcher.Wait()

	// backend completed three times, ai once.
	if len(f.events.courses) != 4 {
		t.Fatalf("expected 4 courseCompleted events, got %v", f.events.courses)
	}
}

func TestOnQuizResult_PassCompletesLesson(t *testing.T) {
	f := newFixture(t, UserIdentity("u1"), nil)

	outcome, err := f.tracker.OnQuizResult(passedResult("ai_1"), "ai_1")
	if err != nil {
		t.Fatalf("on result: %v", err)
	}
	if !outcome.LessonCompleted || !outcome.CourseJustCompleted {
		t.Fatalf("expected lesson and single-lesson course complete, got %+v", outcome)
	}
	f.dispatcher.Wait()

	if len(f.events.quizzes) != 1 || len(f.events.lessons) != 1 || len(f.events.courses) != 1 {
		t.Fatalf("unexpected events: %+v", f.events)
	}
	for _, op := range []string{OpSaveQuizResult, OpSetLessonCompleted, OpSetCourseCompleted} {
		if f.store.count(op) != 1 {
			t.Fatalf("expected one %s call, got %v", op, f.store.ops())
		}
	}
}

func TestOnQuizResult_FailLeavesLessonUntouched(t *testing.T) {
	record := model.NewCompletionRecord("u1")
	record.CompletedLessonIDs["frontend_1"] = true
	f := newFixture(t, UserIdentity("u1"), record)

	outcome, err := f.tracker.OnQuizResult(failedResult("frontend_1"), "frontend_1")
	if err != nil {
		t.Fatalf("on result: %v", err)
	}
	if !outcome.LessonCompleted || outcome.LessonChanged {
		t.Fatalf("failed attempt must not un-complete the lesson: %+v", outcome)
	}

	outcome, _ = f.tracker.OnQuizResult(failedResult("frontend_2"), "frontend_2")
	if outcome.LessonCompleted || f.tracker.IsLessonCompleted("frontend_2") {
		t.Fatalf("failed attempt must not complete the lesson")
	}
	f.dispatcher.Wait()

	if f.store.count(OpSetLessonCompleted) != 0 {
		t.Fatalf("failed attempts must not write lesson state: %v", f.store.ops())
	}
	if f.store.count(OpSaveQuizResult) != 2 {
		t.Fatalf("every finished attempt is saved: %v", f.store.ops())
	}
}

func TestOnQuizResult_RejectsUnknownLessonAndMismatch(t *testing.T) {
	f := newFixture(t, UserIdentity("u1"), nil)

	if _, err := f.tracker.OnQuizResult(passedResult("x"), "missing"); !errors.Is(err, ErrLessonNotFound) || !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
	if _, err := f.tracker.OnQuizResult(passedResult("backend_1"), "frontend_1"); !errors.Is(err, ErrQuizMismatch) {
		t.Fatalf("expected ErrQuizMismatch, got %v", err)
	}
	f.dispatcher.Wait()
	if len(f.store.ops()) != 0 || len(f.events.quizzes) != 0 {
		t.Fatalf("rejected results must have no effects")
	}
}

func TestUnauthenticated_UpdatesLocallyWithoutPersisting(t *testing.T) {
	f := newFixture(t, UserIdentity(""), nil)

	outcome, err := f.tracker.ToggleLessonManualCompletion("ai_1", true)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if !outcome.LessonCompleted || !f.tracker.IsLessonCompleted("ai_1") {
		t.Fatalf("local state should still update")
	}
	if _, err := f.tracker.OnQuizResult(passedResult("backend_1"), "backend_1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	f.dispatcher.Wait()

	if len(f.store.ops()) != 0 {
		t.Fatalf("no store call expected, got %v", f.store.ops())
	}
	if len(f.events.courses) != 1 {
		t.Fatalf("events still fire without a user: %v", f.events.courses)
	}
}

func TestPersistenceFailure_KeepsLocalState(t *testing.T) {
	f := newFixture(t, UserIdentity("u1"), nil)
	f.store.fail = errors.New("unavailable")

	if _, err := f.tracker.ToggleLessonManualCompletion("backend_1", true); err != nil {
		t.Fatalf("store failures are not returned: %v", err)
	}
	f.dispatcher.Wait()

	if !f.tracker.IsLessonCompleted("backend_1") {
		t.Fatalf("local state was rolled back")
	}
	if len(f.events.failures) != 1 || f.events.failures[0] != OpSetLessonCompleted {
		t.Fatalf("expected one sync failure, got %v", f.events.failures)
	}
}

func TestNewTracker_ReconcilesCourseFlags(t *testing.T) {
	record := model.NewCompletionRecord("u1")
	record.CompletedLessonIDs["ai_1"] = true
	record.CompletedCourseIDs["frontend"] = true
	f := newFixture(t, UserIdentity("u1"), record)

	if !f.tracker.IsCourseCompleted("ai") || f.tracker.IsCourseCompleted("frontend") {
		t.Fatalf("course flags not derived from lessons: %+v", f.tracker.Record().CompletedCourseIDs)
	}
	if record.CompletedCourseIDs["ai"] {
		t.Fatalf("tracker must not mutate the caller's record")
	}
}

func TestCourseProgress(t *testing.T) {
	f := newFixture(t, UserIdentity("u1"), nil)
	f.tracker.ToggleLessonManualCompletion("frontend_1", true)
	f.dispatcher.Wait()

	completed, total, percent := f.tracker.CourseProgress("frontend")
	if completed != 1 || total != 3 || percent != 33 {
		t.Fatalf("unexpected progress %d/%d %d%%", completed, total, percent)
	}
	for _, c := range f.tracker.Courses() {
		if c.ID == "frontend" && c.CompletionPercent != 33 {
			t.Fatalf("expected 33%%, got %d", c.CompletionPercent)
		}
	}
	lessons := f.tracker.Lessons("frontend")
	if !lessons[0].IsCompleted || lessons[1].IsCompleted {
		t.Fatalf("unexpected lesson flags: %+v", lessons)
	}
	if f.tracker.CompletedLessonCount() != 1 {
		t.Fatalf("expected one completed lesson overall")
	}
}

func TestRecordLogin(t *testing.T) {
	record := model.NewCompletionRecord("u1")
	record.CurrentStreakDays = 3
	record.LastLoginAt = t0
	f := newFixture(t, UserIdentity("u1"), record)

	*f.clock = t0.Add(5 * time.Hour)
	if streak, _ := f.tracker.RecordLogin(); streak != 3 {
		t.Fatalf("same day login: expected 3, got %d", streak)
	}
	*f.clock = t0.Add(30 * time.Hour)
	if streak, _ := f.tracker.RecordLogin(); streak != 4 {
		t.Fatalf("next day login: expected 4, got %d", streak)
	}
	*f.clock = t0.Add(30*time.Hour + 6*day)
	if streak, _ := f.tracker.RecordLogin(); streak != 1 {
		t.Fatalf("gap: expected reset to 1, got %d", streak)
	}
	f.dispatcher.Wait()

	if f.store.count(OpUpdateStreak) != 2 {
		t.Fatalf("expected two streak writes, got %v", f.store.ops())
	}
}

func TestToggle_StoreWritesKeepIssueOrder(t *testing.T) {
	f := newFixture(t, UserIdentity("u1"), nil)
	f.store.slow = func(c storeCall) time.Duration {
		if c.op == OpSetLessonCompleted && c.completed {
			return 50 * time.Millisecond
		}
		return 0
	}

	if _, err := f.tracker.ToggleLessonManualCompletion("frontend_3", true); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := f.tracker.ToggleLessonManualCompletion("frontend_3", false); err != nil {
		t.Fatalf("unmark: %v", err)
	}
	f.dispatcher.Wait()

	if local, stored := f.tracker.IsLessonCompleted("frontend_3"), f.store.lesson("frontend_3"); local || stored {
		t.Fatalf("expected lesson incomplete everywhere, local=%v stored=%v", local, stored)
	}
	calls := f.store.calls
	if len(calls) != 2 || !calls[0].completed || calls[1].completed {
		t.Fatalf("unexpected write order: %+v", calls)
	}
}

func TestMultiNotifier_FansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	n := MultiNotifier{a, b}

	n.LessonCompleted("u1", "ai_1")
	n.CourseCompleted("u1", "ai")
	n.QuizFinished(passedResult("quiz_ai_1"))
	n.SyncFailed("u1", OpSaveQuizResult, errors.New("down"))

	for i, r := range []*recorder{a, b} {
		if len(r.lessons) != 1 || len(r.courses) != 1 || len(r.quizzes) != 1 || len(r.failures) != 1 {
			t.Fatalf("sink %d missed events: %+v", i, r)
		}
	}
}
