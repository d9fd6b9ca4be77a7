package controller

import (
	"strconv"
	"techlift_backend/internal/service"
	"techlift_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController handles profile and map requests.
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{
		UserService: userService,
	}
}

// GetProfile godoc
// @Summary Get the current user's profile
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User}
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	user, err := c.UserService.GetProfile(userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.ProfileRequest true "Profile"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Router /api/profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req service.ProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdateProfile(userID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UploadAvatar godoc
// @Summary Upload a profile photo
// @Tags Users
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param   file formData file true "Image"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response "Not an image"
// @Router /api/profile/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	upload, closeFile, err := openUpload(fileHeader)
	if err != nil {
		respondError(ctx, err)
		return
	}
	defer closeFile()

	user, err := c.UserService.UploadAvatar(ctx.Request.Context(), userID, *upload)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// GetMapUsers godoc
// @Summary Users that shared a location
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Param   limit query int false "Max users" default(200)
// @Success 200 {object} util.Response{data=[]service.MapUser}
// @Router /api/users/map [get]
func (c *UserController) GetMapUsers(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "200"))
	users, err := c.UserService.MapUsers(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// GetLeaderboard godoc
// @Summary Longest login streaks
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Param   limit query int false "Max users" default(10)
// @Success 200 {object} util.Response{data=[]model.User}
// @Router /api/users/leaderboard [get]
func (c *UserController) GetLeaderboard(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	users, err := c.UserService.StreakLeaders(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}
