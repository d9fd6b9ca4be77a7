package catalog

import (
	"errors"
	"techlift_backend/internal/model"
	"testing"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return c
}

func TestDefault_LoadsShippedCourses(t *testing.T) {
	c := mustDefault(t)

	courses := c.Courses()
	if len(courses) != 3 {
		t.Fatalf("expected 3 courses, got %d", len(courses))
	}
	want := []string{"frontend", "backend", "ai"}
	for i, id := range want {
		if courses[i].ID != id {
			t.Fatalf("course %d: expected %q got %q", i, id, courses[i].ID)
		}
	}
	if got := len(c.AllLessons()); got != 6 {
		t.Fatalf("expected 6 lessons, got %d", got)
	}
}

func TestLessonsForCourse_OrderedAndScoped(t *testing.T) {
	c := mustDefault(t)

	lessons := c.LessonsForCourse("frontend")
	if len(lessons) != 3 {
		t.Fatalf("expected 3 frontend lessons, got %d", len(lessons))
	}
	for i, l := range lessons {
		if l.Order != i+1 {
			t.Fatalf("lesson %q: expected order %d got %d", l.ID, i+1, l.Order)
		}
		if l.CourseID != "frontend" {
			t.Fatalf("lesson %q belongs to %q", l.ID, l.CourseID)
		}
	}
}

func TestLessonsForCourse_UnknownCourseIsEmpty(t *testing.T) {
	c := mustDefault(t)

	lessons := c.LessonsForCourse("devops")
	if lessons == nil || len(lessons) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", lessons)
	}
}

func TestQuizForLesson(t *testing.T) {
	c := mustDefault(t)

	quiz, ok := c.QuizForLesson("frontend_1")
	if !ok {
		t.Fatalf("expected quiz for frontend_1")
	}
	if quiz.LessonID != "frontend_1" || len(quiz.Questions) != 5 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if quiz.PassingScorePercent != model.DefaultPassingScorePercent {
		t.Fatalf("expected default passing score, got %d", quiz.PassingScorePercent)
	}

	if _, ok := c.QuizForLesson("frontend_3"); ok {
		t.Fatalf("frontend_3 has no quiz")
	}
	if _, ok := c.QuizForLesson("nope"); ok {
		t.Fatalf("unknown lesson must not have a quiz")
	}
}

func TestLookupsReturnCopies(t *testing.T) {
	c := mustDefault(t)

	lessons := c.LessonsForCourse("backend")
	lessons[0].IsCompleted = true
	again, _ := c.LessonByID(lessons[0].ID)
	if again.IsCompleted {
		t.Fatalf("mutating a returned lesson leaked into the catalog")
	}

	quiz, _ := c.QuizByID("ai_1")
	quiz.Questions[0].Options[0] = "changed"
	fresh, _ := c.QuizByID("ai_1")
	if fresh.Questions[0].Options[0] != "NumPy" {
		t.Fatalf("mutating a returned quiz leaked into the catalog")
	}
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"correct index out of range": `
courses:
  - id: c
    title: C
    lessons:
      - id: l1
        title: L1
        order: 1
        quiz:
          title: Q
          questions:
            - id: q1
              text: t
              options: [a, b]
              correct: 2
`,
		"single option": `
courses:
  - id: c
    title: C
    lessons:
      - id: l1
        title: L1
        order: 1
        quiz:
          title: Q
          questions:
            - id: q1
              text: t
              options: [a]
              correct: 0
`,
		"duplicate order": `
courses:
  - id: c
    title: C
    lessons:
      - id: l1
        title: L1
        order: 1
      - id: l2
        title: L2
        order: 1
`,
		"course without lessons": `
courses:
  - id: c
    title: C
`,
		"passing score above 100": `
courses:
  - id: c
    title: C
    lessons:
      - id: l1
        title: L1
        order: 1
        quiz:
          title: Q
          passing_score: 120
          questions:
            - id: q1
              text: t
              options: [a, b]
              correct: 0
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog, got %v", err)
			}
		})
	}
}

func TestParse_QuizDefaults(t *testing.T) {
	doc := `
courses:
  - id: c
    title: C
    lessons:
      - id: l1
        title: L1
        order: 1
        quiz:
          title: Q
          time_limit_minutes: 10
          questions:
            - id: q1
              text: t
              options: [a, b]
              correct: 1
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	lesson, ok := c.LessonByID("l1")
	if !ok || lesson.QuizID != "l1" {
		t.Fatalf("expected quiz id to default to lesson id, got %+v", lesson)
	}
	quiz, _ := c.QuizForLesson("l1")
	if quiz.PassingScorePercent != 70 {
		t.Fatalf("expected passing score 70, got %d", quiz.PassingScorePercent)
	}
	if quiz.TimeLimitMinutes == nil || *quiz.TimeLimitMinutes != 10 {
		t.Fatalf("expected time limit 10, got %v", quiz.TimeLimitMinutes)
	}
}

func TestNew_RejectsDanglingQuizReference(t *testing.T) {
	courses := []model.Course{{ID: "c", Title: "C"}}
	lessons := []model.Lesson{{ID: "l1", CourseID: "c", Title: "L", Order: 1, QuizID: "missing"}}

	if _, err := New(courses, lessons, nil); !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}
