package quiz

import (
	"errors"
	"techlift_backend/internal/model"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// fiveQuestionQuiz has correct answers 0,1,2,3,0 and four options per question.
func fiveQuestionQuiz() model.Quiz {
	q := model.Quiz{ID: "html", LessonID: "html", Title: "HTML", PassingScorePercent: 70}
	for i, correct := range []int{0, 1, 2, 3, 0} {
		q.Questions = append(q.Questions, model.Question{
			ID:                 string(rune('a' + i)),
			Text:               "question",
			Options:            []string{"w", "x", "y", "z"},
			CorrectOptionIndex: correct,
		})
	}
	return q
}

func answerAll(t *testing.T, s *Session, answers []int) *model.QuizResult {
	t.Helper()
	var result *model.QuizResult
	for i, a := range answers {
		r, err := s.SubmitAnswer(a, t0.Add(time.Duration(i+1)*time.Second))
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		result = r
	}
	return result
}

func TestNewSession_Initialized(t *testing.T) {
	s := NewSession(fiveQuestionQuiz(), "u1", t0)

	if s.State() != StateInitialized {
		t.Fatalf("expected initialized, got %s", s.State())
	}
	if s.CurrentIndex() != 0 {
		t.Fatalf("expected index 0, got %d", s.CurrentIndex())
	}
	for i, a := range s.Answers() {
		if a != model.Unanswered {
			t.Fatalf("answer %d should be unanswered, got %d", i, a)
		}
	}
}

func TestSession_FourOfFivePasses(t *testing.T) {
	s := NewSession(fiveQuestionQuiz(), "u1", t0)

	result := answerAll(t, s, []int{0, 1, 2, 3, 1})
	if result == nil {
		t.Fatalf("expected a result after the last answer")
	}
	if result.ScorePercent != 80 || result.CorrectCount != 4 || !result.Passed {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.TotalQuestions != 5 || result.UserID != "u1" || result.QuizID != "html" {
		t.Fatalf("unexpected identity fields: %+v", result)
	}
	if result.ElapsedMillis != 5000 {
		t.Fatalf("expected 5000ms elapsed, got %d", result.ElapsedMillis)
	}
	if s.State() != StateFinished {
		t.Fatalf("expected finished, got %s", s.State())
	}
	if _, err := s.SubmitAnswer(0, t0); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed after finish, got %v", err)
	}
}

func TestGrade_UnansweredCountsAsWrong(t *testing.T) {
	q := fiveQuestionQuiz()
	attempt := model.QuizAttempt{QuizID: q.ID, UserAnswers: []int{0, 1, 2, -1, -1}, StartedAt: t0}

	result := Grade(q, "u1", attempt, t0.Add(time.Minute))
	if result.ScorePercent != 60 || result.Passed {
		t.Fatalf("expected 60%% and failed, got %+v", result)
	}
}

func TestScorePercent_Floors(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 66},
		{3, 3, 100},
		{5, 7, 71},
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := ScorePercent(tc.correct, tc.total); got != tc.want {
			t.Fatalf("ScorePercent(%d,%d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestPassed_Threshold(t *testing.T) {
	if !Passed(70, 70) {
		t.Fatalf("score equal to passing must pass")
	}
	if Passed(69, 70) {
		t.Fatalf("score below passing must fail")
	}
}

func TestCorrectCount_MonotonicWhenFillingUnanswered(t *testing.T) {
	q := fiveQuestionQuiz()
	answers := []int{-1, -1, -1, -1, -1}
	prev := CorrectCount(q, answers)
	for i := range answers {
		answers[i] = q.Questions[i].CorrectOptionIndex
		got := CorrectCount(q, answers)
		if got < prev {
			t.Fatalf("correct count decreased from %d to %d", prev, got)
		}
		prev = got
	}
	if prev != 5 {
		t.Fatalf("expected 5 correct, got %d", prev)
	}
}

func TestSubmitAnswer_OutOfRangeRejected(t *testing.T) {
	s := NewSession(fiveQuestionQuiz(), "u1", t0)
	before := s.Answers()

	for _, option := range []int{7, 4, -1, -5} {
		if _, err := s.SubmitAnswer(option, t0); !errors.Is(err, ErrInvalidAnswer) {
			t.Fatalf("option %d: expected ErrInvalidAnswer, got %v", option, err)
		}
	}
	if s.CurrentIndex() != 0 || s.State() != StateInitialized {
		t.Fatalf("session moved after invalid answer: index=%d state=%s", s.CurrentIndex(), s.State())
	}
	after := s.Answers()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("answers changed after invalid submit")
		}
	}
}

func TestGoTo_RestoresSelectionAndAllowsResubmission(t *testing.T) {
	s := NewSession(fiveQuestionQuiz(), "u1", t0)
	answerAll(t, s, []int{3, 1})

	selected, err := s.Back()
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if selected != 1 || s.CurrentIndex() != 1 {
		t.Fatalf("expected question 1 with answer 1, got index %d answer %d", s.CurrentIndex(), selected)
	}

	selected, err = s.GoTo(0)
	if err != nil || selected != 3 {
		t.Fatalf("expected stored answer 3, got %d (%v)", selected, err)
	}
	if _, err := s.SubmitAnswer(0, t0); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if s.Answers()[0] != 0 || s.CurrentIndex() != 1 {
		t.Fatalf("resubmission did not overwrite: %v index %d", s.Answers(), s.CurrentIndex())
	}

	if selected, _ := s.GoTo(4); selected != model.Unanswered {
		t.Fatalf("expected unanswered for question 4, got %d", selected)
	}
	if _, err := s.GoTo(5); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}

func TestAbandon_NoResult(t *testing.T) {
	s := NewSession(fiveQuestionQuiz(), "u1", t0)
	answerAll(t, s, []int{0, 1})

	s.Abandon()
	if s.State() != StateAbandoned {
		t.Fatalf("expected abandoned, got %s", s.State())
	}
	if _, ok := s.Result(); ok {
		t.Fatalf("abandoned session must not have a result")
	}
	if _, err := s.SubmitAnswer(0, t0); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	q := fiveQuestionQuiz()
	s := NewSession(q, "u1", t0)
	answerAll(t, s, []int{0, 2})

	restored, err := Restore(q, s.Snapshot())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.CurrentIndex() != 2 || restored.State() != StateInProgress {
		t.Fatalf("unexpected restored position: %d %s", restored.CurrentIndex(), restored.State())
	}
	result := answerAll(t, restored, []int{2, 3, 0})
	if result == nil || result.CorrectCount != 4 {
		t.Fatalf("unexpected result after restore: %+v", result)
	}

	other := q
	other.ID = "css"
	if _, err := Restore(other, s.Snapshot()); !errors.Is(err, ErrSnapshotMismatch) {
		t.Fatalf("expected ErrSnapshotMismatch, got %v", err)
	}
}
