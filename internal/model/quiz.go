package model

import "time"

const (
	DefaultPassingScorePercent = 70
	// Unanswered marks a question the user has not answered yet.
	Unanswered = -1
)

// swagger:model Question
type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation"`
}

// swagger:model Quiz
type Quiz struct {
	ID                  string     `json:"id"`
	LessonID            string     `json:"lessonId"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Questions           []Question `json:"questions"`
	PassingScorePercent int        `json:"passingScorePercent"`
	TimeLimitMinutes    *int       `json:"timeLimitMinutes,omitempty"`
}

// Clone returns a deep copy so callers cannot alter the catalog's questions.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		out.Questions[i] = question
	}
	if q.TimeLimitMinutes != nil {
		limit := *q.TimeLimitMinutes
		out.TimeLimitMinutes = &limit
	}
	return out
}

// QuizAttempt is the runtime state of one attempt. It is never persisted.
type QuizAttempt struct {
	QuizID      string    `json:"quizId"`
	UserAnswers []int     `json:"userAnswers"`
	StartedAt   time.Time `json:"startedAt"`
}

// swagger:model QuizResult
type QuizResult struct {
	QuizID         string    `json:"quizId"`
	UserID         string    `json:"userId"`
	ScorePercent   int       `json:"scorePercent"`
	CorrectCount   int       `json:"correctCount"`
	TotalQuestions int       `json:"totalQuestions"`
	ElapsedMillis  int64     `json:"elapsedMillis"`
	Passed         bool      `json:"passed"`
	CompletedAt    time.Time `json:"completedAt"`
}
