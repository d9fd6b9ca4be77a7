package model

// Course is a learning roadmap. CompletionPercent is per user and filled in by the progress tracker.
// swagger:model Course
type Course struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	CompletionPercent int    `json:"completionPercent"`
}

// swagger:model Lesson
type Lesson struct {
	ID              string `json:"id"`
	CourseID        string `json:"courseId"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Content         string `json:"content"`
	VideoURL        string `json:"videoUrl,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	Order           int    `json:"order"`
	IsCompleted     bool   `json:"isCompleted"`
	QuizID          string `json:"quizId,omitempty"`
}

func (l Lesson) HasQuiz() bool {
	return l.QuizID != ""
}
