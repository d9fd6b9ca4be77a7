package controller

import (
	"errors"
	"net/http"
	"techlift_backend/internal/catalog"
	"techlift_backend/internal/progress"
	"techlift_backend/internal/quiz"
	"techlift_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to status codes. Anything unknown is logged
// and reported as a 500.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, progress.ErrNotAuthenticated), errors.Is(err, util.ErrInvalidCredential):
		util.Unauthorized(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrPostNotFound),
		errors.Is(err, util.ErrSessionNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, quiz.ErrInvalidAnswer),
		errors.Is(err, quiz.ErrInvalidQuestion),
		errors.Is(err, progress.ErrQuizMismatch),
		errors.Is(err, util.ErrInvalidFileType):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, quiz.ErrSessionClosed), errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// currentUserID returns the authenticated user or writes a 401.
func currentUserID(ctx *gin.Context) (string, bool) {
	userID, ok := util.ContextIdentity{C: ctx}.CurrentUserID()
	if !ok {
		util.Unauthorized(ctx)
		return "", false
	}
	return userID, true
}
