package util

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailRegistered   = errors.New("email is already registered")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrPostNotFound      = errors.New("post not found")
	ErrSessionNotFound   = errors.New("no active quiz session")
	ErrInvalidFileType   = errors.New("invalid file type")
)
