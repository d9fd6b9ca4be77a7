// Package catalog is the read-only registry of courses, lessons and quizzes.
// It is built once at startup and shared by reference.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"techlift_backend/internal/model"
)

var (
	ErrNotFound       = errors.New("catalog entry not found")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

type Catalog struct {
	courses         []model.Course
	coursesByID     map[string]model.Course
	lessonsByCourse map[string][]model.Lesson
	lessonsByID     map[string]model.Lesson
	quizzesByID     map[string]model.Quiz
	quizzesByLesson map[string]string
}

// New builds a catalog and checks the cross references between its entries.
func New(courses []model.Course, lessons []model.Lesson, quizzes []model.Quiz) (*Catalog, error) {
	c := &Catalog{
		coursesByID:     make(map[string]model.Course, len(courses)),
		lessonsByCourse: make(map[string][]model.Lesson, len(courses)),
		lessonsByID:     make(map[string]model.Lesson, len(lessons)),
		quizzesByID:     make(map[string]model.Quiz, len(quizzes)),
		quizzesByLesson: make(map[string]string, len(quizzes)),
	}

	for _, course := range courses {
		if _, dup := c.coursesByID[course.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate course %q", ErrInvalidCatalog, course.ID)
		}
		course.CompletionPercent = 0
		c.coursesByID[course.ID] = course
		c.courses = append(c.courses, course)
	}

	for _, lesson := range lessons {
		if _, dup := c.lessonsByID[lesson.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate lesson %q", ErrInvalidCatalog, lesson.ID)
		}
		if _, ok := c.coursesByID[lesson.CourseID]; !ok {
			return nil, fmt.Errorf("%w: lesson %q references unknown course %q", ErrInvalidCatalog, lesson.ID, lesson.CourseID)
		}
		lesson.IsCompleted = false
		c.lessonsByID[lesson.ID] = lesson
		c.lessonsByCourse[lesson.CourseID] = append(c.lessonsByCourse[lesson.CourseID], lesson)
	}

	for courseID, list := range c.lessonsByCourse {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Order < list[j].Order })
		for i := 1; i < len(list); i++ {
			if list[i].Order == list[i-1].Order {
				return nil, fmt.Errorf("%w: course %q has two lessons with order %d", ErrInvalidCatalog, courseID, list[i].Order)
			}
		}
	}
	for _, course := range c.courses {
		if len(c.lessonsByCourse[course.ID]) == 0 {
			return nil, fmt.Errorf("%w: course %q has no lessons", ErrInvalidCatalog, course.ID)
		}
	}

	for _, quiz := range quizzes {
		if err := checkQuiz(quiz); err != nil {
			return nil, err
		}
		if _, dup := c.quizzesByID[quiz.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate quiz %q", ErrInvalidCatalog, quiz.ID)
		}
		lesson, ok := c.lessonsByID[quiz.LessonID]
		if !ok {
			return nil, fmt.Errorf("%w: quiz %q references unknown lesson %q", ErrInvalidCatalog, quiz.ID, quiz.LessonID)
		}
		if lesson.QuizID != quiz.ID {
			return nil, fmt.Errorf("%w: lesson %q does not point at quiz %q", ErrInvalidCatalog, lesson.ID, quiz.ID)
		}
		c.quizzesByID[quiz.ID] = quiz.Clone()
		c.quizzesByLesson[quiz.LessonID] = quiz.ID
	}

	for _, lesson := range c.lessonsByID {
		if lesson.HasQuiz() {
			if _, ok := c.quizzesByID[lesson.QuizID]; !ok {
				return nil, fmt.Errorf("%w: lesson %q references unknown quiz %q", ErrInvalidCatalog, lesson.ID, lesson.QuizID)
			}
		}
	}

	return c, nil
}

func checkQuiz(quiz model.Quiz) error {
	if quiz.PassingScorePercent < 0 || quiz.PassingScorePercent > 100 {
		return fmt.Errorf("%w: quiz %q passing score %d out of range", ErrInvalidCatalog, quiz.ID, quiz.PassingScorePercent)
	}
	seen := make(map[string]bool, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if seen[q.ID] {
			return fmt.Errorf("%w: quiz %q has duplicate question %q", ErrInvalidCatalog, quiz.ID, q.ID)
		}
		seen[q.ID] = true
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %q of quiz %q needs at least two options", ErrInvalidCatalog, q.ID, quiz.ID)
		}
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %q of quiz %q has correct index %d out of range", ErrInvalidCatalog, q.ID, quiz.ID, q.CorrectOptionIndex)
		}
	}
	return nil
}

// Courses returns every course in catalog order.
func (c *Catalog) Courses() []model.Course {
	return append([]model.Course(nil), c.courses...)
}

func (c *Catalog) CourseByID(courseID string) (model.Course, bool) {
	course, ok := c.coursesByID[courseID]
	return course, ok
}

// LessonsForCourse returns the lessons of a course ordered by Order.
// An unknown course has no lessons yet, which is not an error.
func (c *Catalog) LessonsForCourse(courseID string) []model.Lesson {
	return append([]model.Lesson{}, c.lessonsByCourse[courseID]...)
}

// AllLessons concatenates the per-course lists in course order.
func (c *Catalog) AllLessons() []model.Lesson {
	out := make([]model.Lesson, 0, len(c.lessonsByID))
	for _, course := range c.courses {
		out = append(out, c.lessonsByCourse[course.ID]...)
	}
	return out
}

func (c *Catalog) LessonByID(lessonID string) (model.Lesson, bool) {
	lesson, ok := c.lessonsByID[lessonID]
	return lesson, ok
}

// QuizForLesson returns the lesson's quiz, or false when the lesson has none or is unknown.
func (c *Catalog) QuizForLesson(lessonID string) (model.Quiz, bool) {
	quizID, ok := c.quizzesByLesson[lessonID]
	if !ok {
		return model.Quiz{}, false
	}
	return c.QuizByID(quizID)
}

func (c *Catalog) QuizByID(quizID string) (model.Quiz, bool) {
	quiz, ok := c.quizzesByID[quizID]
	if !ok {
		return model.Quiz{}, false
	}
	return quiz.Clone(), true
}
