package repository

import (
	"techlift_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, "id = ?", id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdatePhotoURL(userID, url string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("photo_url", url).
		Error
}

func (r *UserRepository) TouchLastSeen(userID string, at time.Time) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_seen", at).
		Error
}

// FindWithLocation lists users that shared a map position.
func (r *UserRepository) FindWithLocation(limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("display_name ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// FindTopByStreak returns the users with the longest current streaks.
func (r *UserRepository) FindTopByStreak(limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.Order("streak_days DESC").Limit(limit).Find(&users).Error
	return users, err
}
