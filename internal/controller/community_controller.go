package controller

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"techlift_backend/internal/service"
	"techlift_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CommunityController struct {
	CommunityService *service.CommunityService
}

func NewCommunityController(communityService *service.CommunityService) *CommunityController {
	return &CommunityController{CommunityService: communityService}
}

// @Summary List posts
// @Description Newest first, optionally filtered by text or author
// @Tags Community
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Text in title or content"
// @Param author query string false "Author user ID"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/community/posts [get]
func (c *CommunityController) GetPosts(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	posts, total, err := c.CommunityService.GetPosts(page, limit, ctx.Query("search"), ctx.Query("author"), userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  posts,
		Total: int64(total),
		Page:  page,
		Limit: limit,
	})
}

// @Summary Get a post
// @Tags Community
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} util.Response{data=service.PostResponse}
// @Failure 404 {object} util.Response
// @Router /api/community/posts/{id} [get]
func (c *CommunityController) GetPost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	post, err := c.CommunityService.GetPost(ctx.Param("id"), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// @Summary Create a post
// @Description Accepts JSON or multipart form data with an optional image field
// @Tags Community
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param image formData file false "Image"
// @Success 201 {object} util.Response{data=service.PostResponse}
// @Failure 400 {object} util.Response
// @Router /api/community/posts [post]
func (c *CommunityController) CreatePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req service.PostRequest
	var image *service.ImageUpload
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		if err := ctx.ShouldBind(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
		fileHeader, err := ctx.FormFile("image")
		if err != nil && err != http.ErrMissingFile {
			util.BadRequest(ctx, err.Error())
			return
		}
		if fileHeader != nil {
			upload, closeFile, err := openUpload(fileHeader)
			if err != nil {
				respondError(ctx, err)
				return
			}
			defer closeFile()
			image = upload
		}
	} else if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	post, err := c.CommunityService.CreatePost(ctx.Request.Context(), userID, req, image)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, post)
}

// @Summary Edit a post
// @Tags Community
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param post body service.PostRequest true "Post"
// @Success 200 {object} util.Response{data=service.PostResponse}
// @Failure 403 {object} util.Response
// @Router /api/community/posts/{id} [put]
func (c *CommunityController) UpdatePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req service.PostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	post, err := c.CommunityService.UpdatePost(userID, ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// @Summary Delete a post
// @Tags Community
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Failure 403 {object} util.Response
// @Router /api/community/posts/{id} [delete]
func (c *CommunityController) DeletePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.CommunityService.DeletePost(userID, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// @Summary Like a post
// @Description A user can like a post once
// @Tags Community
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} util.Response{data=service.PostResponse}
// @Failure 404 {object} util.Response
// @Router /api/community/posts/{id}/like [post]
func (c *CommunityController) LikePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	post, err := c.CommunityService.LikePost(userID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// openUpload opens an uploaded image and checks its content rather than the
// declared type.
func openUpload(fileHeader *multipart.FileHeader) (*service.ImageUpload, func(), error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, err
	}
	mimeType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, nil, err
	}
	return &service.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: mimeType,
		Size:        fileHeader.Size,
		Reader:      file,
	}, func() { file.Close() }, nil
}
