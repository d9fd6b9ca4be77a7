package controller

import (
	"techlift_backend/internal/service"
	"techlift_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// swagger:model CompletionRequest
type CompletionRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// GetOverview godoc
// @Summary Progress overview
// @Description Completed lessons and courses and the login streak
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ProgressOverview}
// @Router /api/progress [get]
func (c *ProgressController) GetOverview(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	overview, err := c.ProgressService.Overview(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// SetLessonCompletion godoc
// @Summary Mark a lesson as completed or not completed
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lessonId path string true "Lesson ID"
// @Param body body CompletionRequest true "Completion flag"
// @Success 200 {object} util.Response{data=progress.Outcome}
// @Failure 404 {object} util.Response
// @Router /api/lessons/{lessonId}/completion [put]
func (c *ProgressController) SetLessonCompletion(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req CompletionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome, err := c.ProgressService.SetLessonCompletion(ctx.Request.Context(), userID, ctx.Param("lessonId"), *req.Completed)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, outcome)
}
