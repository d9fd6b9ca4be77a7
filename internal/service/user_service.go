package service

import (
	"context"
	"errors"
	"techlift_backend/internal/model"
	"techlift_backend/internal/repository"
	"techlift_backend/internal/util"

	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
}

func NewUserService(userRepo *repository.UserRepository, storage *StorageService) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Storage:  storage,
	}
}

type ProfileRequest struct {
	DisplayName    string   `json:"displayName" binding:"required,max=100"`
	Specialization string   `json:"specialization" binding:"max=100"`
	Experience     string   `json:"experience" binding:"max=100"`
	Latitude       *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude      *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
}

// MapUser is the public part of a profile shown on the map screen.
type MapUser struct {
	ID             string  `json:"id"`
	DisplayName    string  `json:"displayName"`
	PhotoURL       string  `json:"photoUrl"`
	Specialization string  `json:"specialization"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

func (s *UserService) GetProfile(userID string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile replaces the editable profile fields. Location is cleared when
// either coordinate is missing.
func (s *UserService) UpdateProfile(userID string, req ProfileRequest) (*model.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = req.DisplayName
	user.Specialization = req.Specialization
	user.Experience = req.Experience
	if req.Latitude != nil && req.Longitude != nil {
		user.Latitude = req.Latitude
		user.Longitude = req.Longitude
	} else {
		user.Latitude = nil
		user.Longitude = nil
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UploadAvatar(ctx context.Context, userID string, image ImageUpload) (*model.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	url, err := s.Storage.UploadImage(ctx, "profile_images/"+userID, image.Filename, image.Reader, image.Size, image.ContentType)
	if err != nil {
		return nil, err
	}
	if err := s.UserRepo.UpdatePhotoURL(userID, url); err != nil {
		return nil, err
	}
	user.PhotoURL = url
	return user, nil
}

// MapUsers lists users that shared a location.
func (s *UserService) MapUsers(limit int) ([]MapUser, error) {
	if limit < 1 || limit > 500 {
		limit = 200
	}
	users, err := s.UserRepo.FindWithLocation(limit)
	if err != nil {
		return nil, err
	}

	out := make([]MapUser, 0, len(users))
	for _, u := range users {
		if !u.HasLocation() {
			continue
		}
		out = append(out, MapUser{
			ID:             u.ID,
			DisplayName:    u.DisplayName,
			PhotoURL:       u.PhotoURL,
			Specialization: u.Specialization,
			Latitude:       *u.Latitude,
			Longitude:      *u.Longitude,
		})
	}
	return out, nil
}

// StreakLeaders returns the users with the longest current streaks.
func (s *UserService) StreakLeaders(limit int) ([]model.User, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.UserRepo.FindTopByStreak(limit)
}
