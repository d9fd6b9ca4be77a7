package repository

import (
	"errors"
	"techlift_backend/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{DB: db}
}

// FindWithPagination lists posts newest first, optionally filtered by author or text.
func (r *PostRepository) FindWithPagination(offset, limit int, search, authorID string) ([]model.Post, int, error) {
	var posts []model.Post
	var total int64

	query := r.DB.Model(&model.Post{})

	if search != "" {
		query = query.Where("title LIKE ? OR content LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if authorID != "" {
		query = query.Where("user_id = ?", authorID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}

	return posts, int(total), nil
}

func (r *PostRepository) Create(post *model.Post) error {
	return r.DB.Create(post).Error
}

// CreateIfAbsent inserts the post unless a post with the same id exists.
func (r *PostRepository) CreateIfAbsent(post *model.Post) (bool, error) {
	var count int64
	if err := r.DB.Unscoped().Model(&model.Post{}).Where("id = ?", post.ID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, r.DB.Create(post).Error
}

func (r *PostRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("post_id = ?", id).Delete(&model.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Post{}, "id = ?", id).Error
	})
}

func (r *PostRepository) FindByID(id string) (*model.Post, error) {
	var post model.Post
	err := r.DB.First(&post, "id = ?", id).Error
	return &post, err
}

// Like adds one like per user. It reports false when the user already liked the post.
func (r *PostRepository) Like(userID, postID string) (bool, error) {
	liked := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var like model.PostLike
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&model.PostLike{UserID: userID, PostID: postID}).Error; err != nil {
			return err
		}
		liked = true
		return tx.Model(&model.Post{}).
			Where("id = ?", postID).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1)).Error
	})
	return liked, err
}

func (r *PostRepository) HasLiked(userID, postID string) bool {
	if userID == "" {
		return false
	}
	var count int64
	r.DB.Model(&model.PostLike{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count)
	return count > 0
}
