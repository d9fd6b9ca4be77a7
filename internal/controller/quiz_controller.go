package controller

import (
	"net/http"
	"techlift_backend/internal/service"
	"techlift_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// swagger:model AnswerRequest
type AnswerRequest struct {
	Option *int `json:"option" binding:"required"`
}

// swagger:model NavigateRequest
type NavigateRequest struct {
	Index *int `json:"index" binding:"required"`
}

// StartSession godoc
// @Summary Start or resume a quiz attempt
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{quizId}/session [post]
func (c *QuizController) StartSession(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	view, err := c.QuizService.Start(ctx.Request.Context(), userID, ctx.Param("quizId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// GetSession godoc
// @Summary Get the current quiz attempt
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{quizId}/session [get]
func (c *QuizController) GetSession(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	view, err := c.QuizService.Get(ctx.Request.Context(), userID, ctx.Param("quizId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Answer godoc
// @Summary Answer the current question
// @Description Answering the last question grades the attempt and updates progress
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz ID"
// @Param body body AnswerRequest true "Selected option"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 400 {object} util.Response "Invalid option"
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{quizId}/session/answer [post]
func (c *QuizController) Answer(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.QuizService.Answer(ctx.Request.Context(), userID, ctx.Param("quizId"), *req.Option)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Navigate godoc
// @Summary Go to a question
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz ID"
// @Param body body NavigateRequest true "Question index"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 400 {object} util.Response "Invalid index"
// @Router /api/quizzes/{quizId}/session/navigate [post]
func (c *QuizController) Navigate(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.QuizService.Navigate(ctx.Request.Context(), userID, ctx.Param("quizId"), *req.Index)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// AbandonSession godoc
// @Summary Abandon the current attempt
// @Tags Quizzes
// @Security BearerAuth
// @Param quizId path string true "Quiz ID"
// @Success 204
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{quizId}/session [delete]
func (c *QuizController) AbandonSession(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.QuizService.Abandon(ctx.Request.Context(), userID, ctx.Param("quizId")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetResults godoc
// @Summary List finished attempts
// @Description Latest attempts first, with the best score
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} util.Response{data=service.QuizResults}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{quizId}/results [get]
func (c *QuizController) GetResults(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	results, err := c.QuizService.History(ctx.Request.Context(), userID, ctx.Param("quizId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, results)
}
