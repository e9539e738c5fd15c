package service

import (
	"context"
	"errors"
	"strings"
	"survey_backend/internal/config"
	"survey_backend/internal/model"
	"survey_backend/internal/repository"
	"survey_backend/internal/util"
	"survey_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	UserRepo    *repository.UserRepository
	SectionRepo *repository.SectionRepository
	Cfg         *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, sectionRepo *repository.SectionRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		SectionRepo: sectionRepo,
		Cfg:         cfg,
	}
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	FirstName       string `json:"firstName" validate:"max=150"`
	LastName        string `json:"lastName" validate:"max=150"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"user_role"`
	SectionID       *uint  `json:"sectionId"`
}

// Register creates the user together with its profile. Students must pick a
// section; teachers never carry one.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = string(model.Student)
	}
	if err := util.ValidateStruct(req); err != nil {
		return nil, err
	}

	role := model.UserRole(req.Role)
	var sectionID *uint
	if role == model.Student {
		if req.SectionID == nil {
			return nil, validationError("section is required for students")
		}
		if _, err := s.SectionRepo.FindByID(ctx, *req.SectionID); err != nil {
			if errors.Is(err, util.ErrSectionNotFound) {
				return nil, validationError("unknown section")
			}
			return nil, err
		}
		sectionID = req.SectionID
	}

	taken, err := s.UserRepo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrUsernameTaken
	}
	registered, err := s.UserRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, util.ErrEmailRegistered
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Password:  string(hashedPassword),
		IsActive:  true,
	}
	profile := &model.Profile{Role: role, SectionID: sectionID}
	if err := s.UserRepo.CreateWithProfile(ctx, user, profile); err != nil {
		// lost a race with another registration
		if repository.IsDuplicateKey(err) {
			return nil, util.ErrUsernameTaken
		}
		return nil, err
	}

	logger.Log.Info("User registered",
		zap.Uint("userID", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(role)))
	return user, nil
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.UserRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	role := model.Student
	if user.Profile != nil {
		role = user.Profile.Role
	}
	token, err := util.GenerateJWT(user, role, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) GetCurrentUser(c *gin.Context) (*model.User, error) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil, util.ErrNotAuthorized
	}
	return s.UserRepo.FindByID(c.Request.Context(), claims.UserID)
}

// RepairProfiles backfills a default student profile for users without one.
func (s *AuthService) RepairProfiles(ctx context.Context) (int, error) {
	n, err := s.UserRepo.CreateMissingProfiles(ctx)
	if err != nil {
		return 0, err
	}
	logger.Log.Info("Missing profiles created", zap.Int("count", n))
	return n, nil
}
