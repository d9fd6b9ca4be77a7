// Package quiz drives a single quiz attempt from the first question to grading.
package quiz

import (
	"errors"
	"fmt"
	"techlift_backend/internal/model"
	"time"
)

var (
	ErrInvalidAnswer    = errors.New("answer index out of range")
	ErrInvalidQuestion  = errors.New("question index out of range")
	ErrSessionClosed    = errors.New("quiz session is no longer active")
	ErrSnapshotMismatch = errors.New("session snapshot does not match quiz")
)

type State string

const (
	StateInitialized State = "initialized"
	StateInProgress  State = "in_progress"
	StateFinished    State = "finished"
	StateAbandoned   State = "abandoned"
)

func (s State) Terminal() bool {
	return s == StateFinished || s == StateAbandoned
}

// Session is not safe for concurrent use; callers own one session per user and quiz.
type Session struct {
	quiz    model.Quiz
	userID  string
	attempt model.QuizAttempt
	current int
	state   State
	result  *model.QuizResult
}

func NewSession(q model.Quiz, userID string, now time.Time) *Session {
	answers := make([]int, len(q.Questions))
	for i := range answers {
		answers[i] = model.Unanswered
	}
	return &Session{
		quiz:   q,
		userID: userID,
		attempt: model.QuizAttempt{
			QuizID:      q.ID,
			UserAnswers: answers,
			StartedAt:   now,
		},
		state: StateInitialized,
	}
}

func (s *Session) Quiz() model.Quiz     { return s.quiz }
func (s *Session) UserID() string       { return s.userID }
func (s *Session) State() State         { return s.state }
func (s *Session) CurrentIndex() int    { return s.current }
func (s *Session) StartedAt() time.Time { return s.attempt.StartedAt }

func (s *Session) CurrentQuestion() model.Question {
	return s.quiz.Questions[s.current]
}

// Answers returns a copy of the recorded answers, -1 for unanswered.
func (s *Session) Answers() []int {
	return append([]int(nil), s.attempt.UserAnswers...)
}

// Result is set once the session finished.
func (s *Session) Result() (model.QuizResult, bool) {
	if s.result == nil {
		return model.QuizResult{}, false
	}
	return *s.result, true
}

// SubmitAnswer records the option for the current question and advances.
// Submitting on the last question finishes the attempt and returns the result.
// An out of range option leaves the session untouched.
func (s *Session) SubmitAnswer(option int, now time.Time) (*model.QuizResult, error) {
	if s.state.Terminal() {
		return nil, ErrSessionClosed
	}
	if len(s.quiz.Questions) == 0 {
		return nil, ErrInvalidQuestion
	}
	question := s.quiz.Questions[s.current]
	if option < 0 || option >= len(question.Options) {
		return nil, fmt.Errorf("%w: option %d, question %q has %d options", ErrInvalidAnswer, option, question.ID, len(question.Options))
	}

	s.attempt.UserAnswers[s.current] = option
	if s.current < len(s.quiz.Questions)-1 {
		s.current++
		s.state = StateInProgress
		return nil, nil
	}

	result := Grade(s.quiz, s.userID, s.attempt, now)
	s.result = &result
	s.state = StateFinished
	return &result, nil
}

// GoTo moves to a question for review and returns its recorded answer so
// the caller can restore the selection.
func (s *Session) GoTo(index int) (int, error) {
	if s.state.Terminal() {
		return model.Unanswered, ErrSessionClosed
	}
	if index < 0 || index >= len(s.quiz.Questions) {
		return model.Unanswered, ErrInvalidQuestion
	}
	s.current = index
	return s.attempt.UserAnswers[index], nil
}

func (s *Session) Back() (int, error) {
	return s.GoTo(s.current - 1)
}

// Abandon ends the attempt without a result.
func (s *Session) Abandon() {
	if s.state.Terminal() {
		return
	}
	s.state = StateAbandoned
}

// Snapshot is the serialisable form of an unfinished session.
type Snapshot struct {
	QuizID    string    `json:"quizId"`
	UserID    string    `json:"userId"`
	Answers   []int     `json:"answers"`
	Current   int       `json:"current"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"startedAt"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		QuizID:    s.quiz.ID,
		UserID:    s.userID,
		Answers:   s.Answers(),
		Current:   s.current,
		State:     s.state,
		StartedAt: s.attempt.StartedAt,
	}
}

// Restore rebuilds a session from a snapshot taken against the same quiz.
func Restore(q model.Quiz, snap Snapshot) (*Session, error) {
	if snap.QuizID != q.ID || len(snap.Answers) != len(q.Questions) {
		return nil, ErrSnapshotMismatch
	}
	if snap.Current < 0 || snap.Current >= len(q.Questions) {
		return nil, ErrSnapshotMismatch
	}
	for i, a := range snap.Answers {
		if a != model.Unanswered && (a < 0 || a >= len(q.Questions[i].Options)) {
			return nil, ErrSnapshotMismatch
		}
	}
	switch snap.State {
	case StateInitialized, StateInProgress:
	default:
		return nil, ErrSessionClosed
	}

	return &Session{
		quiz:   q,
		userID: snap.UserID,
		attempt: model.QuizAttempt{
			QuizID:      q.ID,
			UserAnswers: append([]int(nil), snap.Answers...),
			StartedAt:   snap.StartedAt,
		},
		current: snap.Current,
		state:   snap.State,
	}, nil
}
