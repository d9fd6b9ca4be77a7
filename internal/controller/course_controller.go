package controller

import (
	"techlift_backend/internal/service"
	"techlift_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	ProgressService *service.ProgressService
	QuizService     *service.QuizService
}

func NewCourseController(progressService *service.ProgressService, quizService *service.QuizService) *CourseController {
	return &CourseController{
		ProgressService: progressService,
		QuizService:     quizService,
	}
}

// GetCourses godoc
// @Summary List courses
// @Description Courses with the user's completion percent
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) GetCourses(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	courses, err := c.ProgressService.Courses(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetCourse godoc
// @Summary Get a course with its lessons
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID := ctx.Param("courseId")

	courses, err := c.ProgressService.Courses(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	lessons, err := c.ProgressService.CourseLessons(ctx.Request.Context(), userID, courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	for _, course := range courses {
		if course.ID == courseID {
			util.Success(ctx, gin.H{"course": course, "lessons": lessons})
			return
		}
	}
	util.NotFound(ctx)
}

// GetLessons godoc
// @Summary List the lessons of a course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} util.Response{data=[]model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/lessons [get]
func (c *CourseController) GetLessons(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	lessons, err := c.ProgressService.CourseLessons(ctx.Request.Context(), userID, ctx.Param("courseId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// GetLesson godoc
// @Summary Get a lesson
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/lessons/{lessonId} [get]
func (c *CourseController) GetLesson(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	lesson, err := c.ProgressService.Lesson(ctx.Request.Context(), userID, ctx.Param("lessonId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// GetLessonQuiz godoc
// @Summary Get the quiz of a lesson
// @Description Correct answers are not included
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Failure 404 {object} util.Response
// @Router /api/lessons/{lessonId}/quiz [get]
func (c *CourseController) GetLessonQuiz(ctx *gin.Context) {
	view, err := c.QuizService.QuizForLesson(ctx.Param("lessonId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
