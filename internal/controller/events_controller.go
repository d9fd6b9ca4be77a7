package controller

import (
	"techlift_backend/internal/service"
	"techlift_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EventsController struct {
	Hub *service.EventHub
}

func NewEventsController(hub *service.EventHub) *EventsController {
	return &EventsController{Hub: hub}
}

// Stream godoc
// @Summary Stream progress events
// @Description Upgrades to a websocket that receives lesson, course and quiz events. Browsers pass the JWT as the token query parameter.
// @Tags Progress
// @Security BearerAuth
// @Param token query string false "JWT"
// @Success 101
// @Failure 401 {object} util.Response
// @Router /api/events [get]
func (c *EventsController) Stream(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.Hub.Serve(ctx.Writer, ctx.Request, userID); err != nil {
		logger.Log.Debug("Event stream upgrade failed", zap.String("userID", userID), zap.Error(err))
	}
}
