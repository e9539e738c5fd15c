package util

import "errors"

var (
	ErrNotAuthorized      = errors.New("not authorized")
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadySubmitted   = errors.New("already submitted")
	ErrValidation         = errors.New("validation failed")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrSectionExists      = errors.New("section name already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
