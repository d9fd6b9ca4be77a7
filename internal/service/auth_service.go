package service

import (
	"context"
	"errors"
	"strings"
	"techlift_backend/internal/config"
	"techlift_backend/internal/model"
	"techlift_backend/internal/repository"
	"techlift_backend/internal/util"
	"techlift_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Progress *ProgressService
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, progressService *ProgressService, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Progress: progressService,
		Cfg:      cfg,
	}
}

type RegisterRequest struct {
	DisplayName    string `json:"displayName" binding:"required,max=100"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6,max=72"`
	Specialization string `json:"specialization" binding:"max=100"`
	Experience     string `json:"experience" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token         string      `json:"token"`
	User          *model.User `json:"user"`
	CurrentStreak int         `json:"currentStreak"`
}

func (s *AuthService) Register(req RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	_, err := s.UserRepo.FindByEmail(email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		DisplayName:    req.DisplayName,
		Email:          email,
		Password:       string(hashedPassword),
		Specialization: req.Specialization,
		Experience:     req.Experience,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials, issues a token and records the login for the streak.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, util.ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredential
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	streak := user.StreakDays
	if s.Progress != nil {
		if current, err := s.Progress.RecordLogin(ctx, user.ID); err != nil {
			logger.Log.Warn("Failed to record login streak", zap.String("userID", user.ID), zap.Error(err))
		} else {
			streak = current
			user.StreakDays = current
		}
	}

	return &LoginResponse{Token: token, User: user, CurrentStreak: streak}, nil
}
