package repository

import (
	"context"
	"survey_backend/internal/model"
	"survey_backend/internal/util"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// CreateWithProfile inserts the user and its profile in one transaction.
func (r *UserRepository) CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		if err := tx.Omit("Section").Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Preload("Profile.Section").First(&user, id).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Preload("Profile.Section").Where("username = ?", username).First(&user).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) SetActive(ctx context.Context, userID uint, active bool) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("is_active", active).Error
}

// CreateMissingProfiles gives every user without a profile a default student profile.
func (r *UserRepository) CreateMissingProfiles(ctx context.Context) (int, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("NOT EXISTS (SELECT 1 FROM profiles p WHERE p.user_id = users.id)").
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	profiles := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		profiles = append(profiles, model.Profile{UserID: id, Role: model.Student})
	}
	if err := r.DB.WithContext(ctx).Create(&profiles).Error; err != nil {
		return 0, err
	}
	return len(profiles), nil
}
