package service

import (
	"context"
	"errors"
	"io"
	"techlift_backend/internal/model"
	"techlift_backend/internal/repository"
	"techlift_backend/internal/util"
	"techlift_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CommunityService struct {
	PostRepo *repository.PostRepository
	UserRepo *repository.UserRepository
	Storage  *StorageService
}

func NewCommunityService(postRepo *repository.PostRepository, userRepo *repository.UserRepository, storage *StorageService) *CommunityService {
	return &CommunityService{
		PostRepo: postRepo,
		UserRepo: userRepo,
		Storage:  storage,
	}
}

type PostRequest struct {
	Title   string `json:"title" form:"title" binding:"required,max=255"`
	Content string `json:"content" form:"content" binding:"required,max=10000"`
}

// ImageUpload is an optional image sent with a post or as an avatar.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type PostResponse struct {
	model.Post
	IsLiked bool `json:"isLiked"`
	IsOwner bool `json:"isOwner"`
}

func (s *CommunityService) toResponse(post model.Post, userID string) PostResponse {
	return PostResponse{
		Post:    post,
		IsLiked: s.PostRepo.HasLiked(userID, post.ID),
		IsOwner: userID != "" && post.UserID == userID,
	}
}

// GetPosts lists posts newest first.
func (s *CommunityService) GetPosts(page, limit int, search, authorID, userID string) ([]PostResponse, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit
	posts, total, err := s.PostRepo.FindWithPagination(offset, limit, search, authorID)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PostResponse, len(posts))
	for i, post := range posts {
		responses[i] = s.toResponse(post, userID)
	}
	return responses, total, nil
}

func (s *CommunityService) GetPost(postID, userID string) (*PostResponse, error) {
	post, err := s.PostRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPostNotFound
		}
		return nil, err
	}
	resp := s.toResponse(*post, userID)
	return &resp, nil
}

// CreatePost stores a post authored by userID, uploading the image first when present.
func (s *CommunityService) CreatePost(ctx context.Context, userID string, req PostRequest, image *ImageUpload) (*PostResponse, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	post := &model.Post{
		UserID:         user.ID,
		AuthorName:     user.DisplayName,
		AuthorPhotoURL: user.PhotoURL,
		Title:          req.Title,
		Content:        req.Content,
	}

	if image != nil {
		url, err := s.Storage.UploadImage(ctx, "post_images/"+user.ID, image.Filename, image.Reader, image.Size, image.ContentType)
		if err != nil {
			return nil, err
		}
		post.ImageURL = url
	}

	if err := s.PostRepo.Create(post); err != nil {
		return nil, err
	}
	resp := s.toResponse(*post, userID)
	return &resp, nil
}

func (s *CommunityService) UpdatePost(userID, postID string, req PostRequest) (*PostResponse, error) {
	post, err := s.ownedPost(userID, postID)
	if err != nil {
		return nil, err
	}
	post.Title = req.Title
	post.Content = req.Content
	if err := s.PostRepo.DB.Save(post).Error; err != nil {
		return nil, err
	}
	resp := s.toResponse(*post, userID)
	return &resp, nil
}

// DeletePost removes a post owned by userID together with its likes.
func (s *CommunityService) DeletePost(userID, postID string) error {
	if _, err := s.ownedPost(userID, postID); err != nil {
		return err
	}
	return s.PostRepo.Delete(postID)
}

func (s *CommunityService) ownedPost(userID, postID string) (*model.Post, error) {
	post, err := s.PostRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPostNotFound
		}
		return nil, err
	}
	if post.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return post, nil
}

// LikePost likes a post once per user and returns the updated post.
func (s *CommunityService) LikePost(userID, postID string) (*PostResponse, error) {
	if _, err := s.GetPost(postID, userID); err != nil {
		return nil, err
	}
	if _, err := s.PostRepo.Like(userID, postID); err != nil {
		return nil, err
	}
	return s.GetPost(postID, userID)
}

// SeedSamplePosts inserts the welcome posts shown on an empty feed. Posts are
// keyed by id so reseeding never duplicates them.
func (s *CommunityService) SeedSamplePosts(now time.Time) error {
	for _, post := range samplePosts(now) {
		created, err := s.PostRepo.CreateIfAbsent(&post)
		if err != nil {
			return err
		}
		if created {
			logger.Log.Debug("Seeded sample post", zap.String("postID", post.ID))
		}
	}
	return nil
}

func samplePosts(now time.Time) []model.Post {
	day := 24 * time.Hour
	posts := []model.Post{
		{
			UserID:     "sample_user1",
			AuthorName: "Yossi Cohen",
			Title:      "Tips for learning Android development",
			Content: "Android is a great platform for building apps. A few tips that helped me along the way:\n\n" +
				"1. Start with the basics and learn Kotlin well\n" +
				"2. Understand the Activity and Fragment lifecycle\n" +
				"3. Learn the MVVM architecture\n" +
				"4. Practice with small projects\n" +
				"5. Join developer communities",
		},
		{
			UserID:     "sample_user2",
			AuthorName: "Michal Levi",
			Title:      "Moving from web to mobile development",
			Content: "After three years as a web developer I decided to move to mobile. It was challenging but very rewarding. " +
				"The most important lesson: good engineering principles are universal. Clean code, sound architecture " +
				"and thorough testing matter on every platform. Happy to answer questions from anyone considering the same move!",
		},
		{
			UserID:     "sample_user3",
			AuthorName: "David Avraham",
			Title:      "My final course project: TechLift",
			Content: "I wanted to share my final project. TechLift helps people learn new technologies through structured " +
				"learning roadmaps. The hardest part was combining local storage with the cloud, but I found a good solution. " +
				"Feedback and suggestions are welcome!",
		},
	}
	for i := range posts {
		posts[i].ID = "sample" + string(rune('1'+i))
		posts[i].CreatedAt = now.Add(-time.Duration(i+1) * day)
		posts[i].UpdatedAt = posts[i].CreatedAt
	}
	return posts
}
