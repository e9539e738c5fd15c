package repository

import (
	"context"
	"survey_backend/internal/model"
	"survey_backend/internal/util"

	"gorm.io/gorm"
)

type SectionRepository struct {
	DB *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{DB: db}
}

func (r *SectionRepository) List(ctx context.Context) ([]model.Section, error) {
	var sections []model.Section
	err := r.DB.WithContext(ctx).Order("name asc").Find(&sections).Error
	return sections, err
}

func (r *SectionRepository) FindByID(ctx context.Context, id uint) (*model.Section, error) {
	var section model.Section
	if err := r.DB.WithContext(ctx).First(&section, id).Error; err != nil {
		if IsNotFound(err) {
			return nil, util.ErrSectionNotFound
		}
		return nil, err
	}
	return &section, nil
}

// FindByIDs silently drops ids that do not exist.
func (r *SectionRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Section, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var sections []model.Section
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("name asc").Find(&sections).Error
	return sections, err
}

func (r *SectionRepository) Create(ctx context.Context, section *model.Section) error {
	if err := r.DB.WithContext(ctx).Create(section).Error; err != nil {
		if IsDuplicateKey(err) {
			return util.ErrSectionExists
		}
		return err
	}
	return nil
}
