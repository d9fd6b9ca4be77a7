package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"techlift_backend/internal/model"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

type document struct {
	Courses []courseDoc `yaml:"courses" validate:"required,min=1,dive"`
}

type courseDoc struct {
	ID          string      `yaml:"id" validate:"required"`
	Title       string      `yaml:"title" validate:"required"`
	Description string      `yaml:"description"`
	Lessons     []lessonDoc `yaml:"lessons" validate:"required,min=1,dive"`
}

type lessonDoc struct {
	ID              string   `yaml:"id" validate:"required"`
	Title           string   `yaml:"title" validate:"required"`
	Description     string   `yaml:"description"`
	Content         string   `yaml:"content"`
	VideoURL        string   `yaml:"video_url" validate:"omitempty,url"`
	DurationMinutes int      `yaml:"duration_minutes" validate:"gte=0"`
	Order           int      `yaml:"order" validate:"gte=1"`
	Quiz            *quizDoc `yaml:"quiz" validate:"omitempty"`
}

type quizDoc struct {
	// ID defaults to the lesson id
	ID               string        `yaml:"id"`
	Title            string        `yaml:"title" validate:"required"`
	Description      string        `yaml:"description"`
	PassingScore     *int          `yaml:"passing_score" validate:"omitempty,gte=0,lte=100"`
	TimeLimitMinutes *int          `yaml:"time_limit_minutes" validate:"omitempty,gt=0"`
	Questions        []questionDoc `yaml:"questions" validate:"required,min=1,dive"`
}

type questionDoc struct {
	ID          string   `yaml:"id" validate:"required"`
	Text        string   `yaml:"text" validate:"required"`
	Options     []string `yaml:"options" validate:"min=2,dive,required"`
	Correct     int      `yaml:"correct" validate:"gte=0"`
	Explanation string   `yaml:"explanation"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, falling back to the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	validate := validator.New()
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	var (
		courses []model.Course
		lessons []model.Lesson
		quizzes []model.Quiz
	)
	for _, cd := range doc.Courses {
		courses = append(courses, model.Course{
			ID:          cd.ID,
			Title:       cd.Title,
			Description: cd.Description,
		})
		for _, ld := range cd.Lessons {
			lesson := model.Lesson{
				ID:              ld.ID,
				CourseID:        cd.ID,
				Title:           ld.Title,
				Description:     ld.Description,
				Content:         ld.Content,
				VideoURL:        ld.VideoURL,
				DurationMinutes: ld.DurationMinutes,
				Order:           ld.Order,
			}
			if ld.Quiz != nil {
				quiz := ld.Quiz.toModel(ld.ID)
				lesson.QuizID = quiz.ID
				quizzes = append(quizzes, quiz)
			}
			lessons = append(lessons, lesson)
		}
	}

	return New(courses, lessons, quizzes)
}

func (qd *quizDoc) toModel(lessonID string) model.Quiz {
	quiz := model.Quiz{
		ID:                  qd.ID,
		LessonID:            lessonID,
		Title:               qd.Title,
		Description:         qd.Description,
		PassingScorePercent: model.DefaultPassingScorePercent,
		TimeLimitMinutes:    qd.TimeLimitMinutes,
	}
	if quiz.ID == "" {
		quiz.ID = lessonID
	}
	if qd.PassingScore != nil {
		quiz.PassingScorePercent = *qd.PassingScore
	}
	for _, q := range qd.Questions {
		quiz.Questions = append(quiz.Questions, model.Question{
			ID:                 q.ID,
			Text:               q.Text,
			Options:            q.Options,
			CorrectOptionIndex: q.Correct,
			Explanation:        q.Explanation,
		})
	}
	return quiz
}
