package service

import (
	"context"
	"errors"
	"fmt"
	"techlift_backend/internal/catalog"
	"techlift_backend/internal/model"
	"techlift_backend/internal/progress"
	"techlift_backend/internal/quiz"
	"techlift_backend/internal/util"
	"techlift_backend/pkg/logger"
	"techlift_backend/pkg/monitoring"
	"techlift_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// QuestionView is a question without its answer.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// QuizView is a quiz as shown before starting, without answers.
type QuizView struct {
	ID                  string         `json:"id"`
	LessonID            string         `json:"lessonId"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	PassingScorePercent int            `json:"passingScorePercent"`
	TimeLimitMinutes    *int           `json:"timeLimitMinutes,omitempty"`
	Questions           []QuestionView `json:"questions"`
}

// ReviewItem is returned once an attempt is finished.
type ReviewItem struct {
	QuestionID         string   `json:"questionId"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	SelectedOption     int      `json:"selectedOption"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	IsCorrect          bool     `json:"isCorrect"`
	Explanation        string   `json:"explanation"`
}

type SessionView struct {
	QuizID         string        `json:"quizId"`
	LessonID       string        `json:"lessonId"`
	Title          string        `json:"title"`
	State          quiz.State    `json:"state"`
	CurrentIndex   int           `json:"currentIndex"`
	TotalQuestions int           `json:"totalQuestions"`
	ProgressText   string        `json:"progressText"`
	Question       *QuestionView `json:"question,omitempty"`
	// SelectedOption restores the selection when reviewing, -1 if unanswered.
	SelectedOption int               `json:"selectedOption"`
	Answers        []int             `json:"answers"`
	StartedAt      time.Time         `json:"startedAt"`
	Result         *model.QuizResult `json:"result,omitempty"`
	Review         []ReviewItem      `json:"review,omitempty"`
	Outcome        *progress.Outcome `json:"outcome,omitempty"`
}

// QuizResultReader reads a user's finished attempts.
type QuizResultReader interface {
	QuizHistory(ctx context.Context, userID, quizID string, limit int) ([]model.QuizResultRecord, error)
	BestScore(ctx context.Context, userID, quizID string) (int, bool, error)
}

// QuizResults is a user's attempt history on one quiz.
type QuizResults struct {
	QuizID              string             `json:"quizId"`
	PassingScorePercent int                `json:"passingScorePercent"`
	BestScorePercent    *int               `json:"bestScorePercent,omitempty"`
	Passed              bool               `json:"passed"`
	Attempts            []model.QuizResult `json:"attempts"`
}

const quizHistoryLimit = 20

type QuizService struct {
	Catalog  *catalog.Catalog
	Sessions SessionStore
	Progress *ProgressService
	Results  QuizResultReader

	locks *keyedMutex
	now   func() time.Time
}

func NewQuizService(cat *catalog.Catalog, sessions SessionStore, progressService *ProgressService, results QuizResultReader) *QuizService {
	return &QuizService{
		Catalog:  cat,
		Sessions: sessions,
		Progress: progressService,
		Results:  results,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

func NewQuizView(q model.Quiz) QuizView {
	view := QuizView{
		ID:                  q.ID,
		LessonID:            q.LessonID,
		Title:               q.Title,
		Description:         q.Description,
		PassingScorePercent: q.PassingScorePercent,
		TimeLimitMinutes:    q.TimeLimitMinutes,
		Questions:           make([]QuestionView, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		view.Questions = append(view.Questions, QuestionView{
			ID:      question.ID,
			Text:    question.Text,
			Options: question.Options,
		})
	}
	return view
}

// QuizForLesson returns the lesson's quiz without answers.
func (s *QuizService) QuizForLesson(lessonID string) (*QuizView, error) {
	if _, ok := s.Catalog.LessonByID(lessonID); !ok {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, catalog.ErrNotFound)
	}
	q, ok := s.Catalog.QuizForLesson(lessonID)
	if !ok {
		return nil, fmt.Errorf("quiz for lesson %s: %w", lessonID, catalog.ErrNotFound)
	}
	view := NewQuizView(q)
	return &view, nil
}

func (s *QuizService) quiz(quizID string) (model.Quiz, error) {
	q, ok := s.Catalog.QuizByID(quizID)
	if !ok {
		return model.Quiz{}, fmt.Errorf("quiz %s: %w", quizID, catalog.ErrNotFound)
	}
	return q, nil
}

func (s *QuizService) load(ctx context.Context, userID string, q model.Quiz) (*quiz.Session, error) {
	snap, ok, err := s.Sessions.Get(ctx, userID, q.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	session, err := quiz.Restore(q, snap)
	if err != nil {
		// The quiz changed since the session started.
		s.Sessions.Delete(ctx, userID, q.ID)
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

// Start resumes the user's unfinished session for the quiz or begins a new one.
func (s *QuizService) Start(ctx context.Context, userID, quizID string) (*SessionView, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizService.Start")
	defer span.End()
	span.SetAttributes(attribute.String("quiz.id", quizID))

	q, err := s.quiz(quizID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID + ":" + quizID)
	defer unlock()

	session, err := s.load(ctx, userID, q)
	if err == nil {
		return s.view(session, nil), nil
	}
	if !errors.Is(err, util.ErrSessionNotFound) {
		return nil, err
	}

	session = quiz.NewSession(q, userID, s.now())
	if err := s.Sessions.Put(ctx, session.Snapshot()); err != nil {
		return nil, err
	}
	monitoring.QuizSessionsStarted.WithLabelValues(quizID).Inc()
	return s.view(session, nil), nil
}

func (s *QuizService) Get(ctx context.Context, userID, quizID string) (*SessionView, error) {
	q, err := s.quiz(quizID)
	if err != nil {
		return nil, err
	}
	session, err := s.load(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return s.view(session, nil), nil
}

// Answer records an option for the current question. When it was the last
// question the attempt is graded, handed to the progress tracker and the
// session is closed.
func (s *QuizService) Answer(ctx context.Context, userID, quizID string, option int) (*SessionView, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizService.Answer")
	defer span.End()
	span.SetAttributes(attribute.String("quiz.id", quizID), attribute.Int("option", option))

	q, err := s.quiz(quizID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID + ":" + quizID)
	defer unlock()

	session, err := s.load(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	result, err := session.SubmitAnswer(option, s.now())
	if err != nil {
		return nil, err
	}
	if result == nil {
		if err := s.Sessions.Put(ctx, session.Snapshot()); err != nil {
			return nil, err
		}
		return s.view(session, nil), nil
	}

	if err := s.Sessions.Delete(ctx, userID, quizID); err != nil {
		logger.Log.Warn("Failed to clear finished quiz session", zap.String("quizID", quizID), zap.Error(err))
	}
	monitoring.QuizSessionsFinished.WithLabelValues(quizID, "finished").Inc()

	outcome, err := s.Progress.ApplyQuizResult(ctx, *result, q.LessonID)
	if err != nil {
		logger.Log.Warn("Quiz result not applied to progress",
			zap.String("userID", userID),
			zap.String("quizID", quizID),
			zap.Error(err))
		return s.view(session, nil), nil
	}
	return s.view(session, &outcome), nil
}

// Navigate moves to a question for review without changing any answer.
func (s *QuizService) Navigate(ctx context.Context, userID, quizID string, index int) (*SessionView, error) {
	q, err := s.quiz(quizID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID + ":" + quizID)
	defer unlock()

	session, err := s.load(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	if _, err := session.GoTo(index); err != nil {
		return nil, err
	}
	if err := s.Sessions.Put(ctx, session.Snapshot()); err != nil {
		return nil, err
	}
	return s.view(session, nil), nil
}

// Abandon discards the attempt. Nothing is graded or persisted.
func (s *QuizService) Abandon(ctx context.Context, userID, quizID string) error {
	q, err := s.quiz(quizID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(userID + ":" + quizID)
	defer unlock()

	session, err := s.load(ctx, userID, q)
	if err != nil {
		return err
	}
	session.Abandon()
	monitoring.QuizSessionsFinished.WithLabelValues(quizID, "abandoned").Inc()
	return s.Sessions.Delete(ctx, userID, quizID)
}

// History returns the user's latest attempts, newest first, and the best score.
func (s *QuizService) History(ctx context.Context, userID, quizID string) (*QuizResults, error) {
	q, err := s.quiz(quizID)
	if err != nil {
		return nil, err
	}
	records, err := s.Results.QuizHistory(ctx, userID, quizID, quizHistoryLimit)
	if err != nil {
		return nil, err
	}
	results := &QuizResults{
		QuizID:              quizID,
		PassingScorePercent: q.PassingScorePercent,
		Attempts:            make([]model.QuizResult, 0, len(records)),
	}
	for _, r := range records {
		results.Attempts = append(results.Attempts, r.Result())
	}

	best, ok, err := s.Results.BestScore(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if ok {
		results.BestScorePercent = &best
		results.Passed = quiz.Passed(best, q.PassingScorePercent)
	}
	return results, nil
}

func (s *QuizService) view(session *quiz.Session, outcome *progress.Outcome) *SessionView {
	q := session.Quiz()
	answers := session.Answers()
	view := &SessionView{
		QuizID:         q.ID,
		LessonID:       q.LessonID,
		Title:          q.Title,
		State:          session.State(),
		CurrentIndex:   session.CurrentIndex(),
		TotalQuestions: len(q.Questions),
		ProgressText:   fmt.Sprintf("Question %d of %d", session.CurrentIndex()+1, len(q.Questions)),
		SelectedOption: model.Unanswered,
		Answers:        answers,
		StartedAt:      session.StartedAt(),
		Outcome:        outcome,
	}

	if result, ok := session.Result(); ok {
		view.Result = &result
		view.ProgressText = fmt.Sprintf("%d of %d correct", result.CorrectCount, result.TotalQuestions)
		for i, question := range q.Questions {
			view.Review = append(view.Review, ReviewItem{
				QuestionID:         question.ID,
				Text:               question.Text,
				Options:            question.Options,
				SelectedOption:     answers[i],
				CorrectOptionIndex: question.CorrectOptionIndex,
				IsCorrect:          answers[i] == question.CorrectOptionIndex,
				Explanation:        question.Explanation,
			})
		}
		return view
	}

	if len(q.Questions) > 0 {
		current := session.CurrentQuestion()
		view.Question = &QuestionView{ID: current.ID, Text: current.Text, Options: current.Options}
		view.SelectedOption = answers[session.CurrentIndex()]
	}
	return view
}
