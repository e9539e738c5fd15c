package repository

import (
	"context"
	"survey_backend/internal/model"
	"survey_backend/internal/util"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	unassignedSurveySQL  = "NOT EXISTS (SELECT 1 FROM survey_sections ss WHERE ss.survey_id = surveys.id)"
	assignedToSectionSQL = "EXISTS (SELECT 1 FROM survey_sections ss WHERE ss.survey_id = surveys.id AND ss.section_id = ?)"
)

type SurveyRepository struct {
	DB *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{DB: db}
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

func replaceSurveySections(tx *gorm.DB, surveyID uint, sectionIDs []uint) error {
	if err := tx.Where("survey_id = ?", surveyID).Delete(&model.SurveySection{}).Error; err != nil {
		return err
	}
	if len(sectionIDs) == 0 {
		return nil
	}
	rows := make([]model.SurveySection, 0, len(sectionIDs))
	for _, id := range sectionIDs {
		rows = append(rows, model.SurveySection{SurveyID: surveyID, SectionID: id})
	}
	return tx.Create(&rows).Error
}

// Create inserts the survey and links it to the given (existing) sections.
func (r *SurveyRepository) Create(ctx context.Context, survey *model.Survey) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("AssignedSections", "Questions", "CreatedBy").Create(survey).Error; err != nil {
			return err
		}
		return replaceSurveySections(tx, survey.ID, survey.SectionIDs())
	})
}

// Update saves the survey columns and replaces its section targets.
func (r *SurveyRepository) Update(ctx context.Context, survey *model.Survey) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("AssignedSections", "Questions", "CreatedBy").Save(survey).Error; err != nil {
			return err
		}
		return replaceSurveySections(tx, survey.ID, survey.SectionIDs())
	})
}

func (r *SurveyRepository) FindByID(ctx context.Context, id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.DB.WithContext(ctx).Preload("AssignedSections").First(&survey, id).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, util.ErrSurveyNotFound
		}
		return nil, err
	}
	return &survey, nil
}

// FindWithQuestions loads the survey with its questions and choices in definition order.
func (r *SurveyRepository) FindWithQuestions(ctx context.Context, id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.DB.WithContext(ctx).
		Preload("AssignedSections").
		Preload("Questions", orderByPosition).
		Preload("Questions.Choices", orderByPosition).
		First(&survey, id).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, util.ErrSurveyNotFound
		}
		return nil, err
	}
	return &survey, nil
}

// visibleTo narrows a survey query to active, not past-due surveys that are
// either unassigned or assigned to sectionID.
func visibleTo(db *gorm.DB, sectionID *uint, asOf time.Time) *gorm.DB {
	db = db.Where("surveys.is_active = ?", true).
		Where("(surveys.due_date IS NULL OR surveys.due_date >= ?)", datatypes.Date(asOf))
	if sectionID == nil {
		return db.Where(unassignedSurveySQL)
	}
	return db.Where("("+unassignedSurveySQL+" OR "+assignedToSectionSQL+")", *sectionID)
}

// ListVisible returns the surveys a student in sectionID may answer on asOf,
// newest first.
func (r *SurveyRepository) ListVisible(ctx context.Context, sectionID *uint, asOf time.Time) ([]model.Survey, error) {
	var surveys []model.Survey
	err := visibleTo(r.DB.WithContext(ctx).Model(&model.Survey{}), sectionID, asOf).
		Preload("AssignedSections").
		Order("surveys.created_at desc, surveys.id desc").
		Find(&surveys).Error
	return surveys, err
}

func (r *SurveyRepository) IsVisible(ctx context.Context, surveyID uint, sectionID *uint, asOf time.Time) (bool, error) {
	var count int64
	err := visibleTo(r.DB.WithContext(ctx).Model(&model.Survey{}), sectionID, asOf).
		Where("surveys.id = ?", surveyID).
		Count(&count).Error
	return count > 0, err
}

type SurveyCounts struct {
	Questions int64
	Responses int64
}

func (r *SurveyRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Survey, error) {
	var surveys []model.Survey
	err := r.DB.WithContext(ctx).
		Preload("AssignedSections").
		Where("created_by_id = ?", ownerID).
		Order("created_at desc, id desc").
		Find(&surveys).Error
	return surveys, err
}

// CountsByOwner returns question and response counts keyed by survey id.
func (r *SurveyRepository) CountsByOwner(ctx context.Context, ownerID uint) (map[uint]SurveyCounts, error) {
	var rows []struct {
		ID            uint
		QuestionCount int64
		ResponseCount int64
	}
	err := r.DB.WithContext(ctx).Table("surveys s").
		Select("s.id, " +
			"(SELECT COUNT(*) FROM questions q WHERE q.survey_id = s.id) as question_count, " +
			"(SELECT COUNT(*) FROM responses rs WHERE rs.survey_id = s.id) as response_count").
		Where("s.created_by_id = ?", ownerID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]SurveyCounts, len(rows))
	for _, row := range rows {
		counts[row.ID] = SurveyCounts{Questions: row.QuestionCount, Responses: row.ResponseCount}
	}
	return counts, nil
}

// Delete removes the survey with its section links, questions, choices,
// responses and answers.
func (r *SurveyRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		responseIDs := tx.Model(&model.Response{}).Select("id").Where("survey_id = ?", id)
		if err := tx.Where("response_id IN (?)", responseIDs).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("survey_id = ?", id).Delete(&model.Response{}).Error; err != nil {
			return err
		}
		questionIDs := tx.Model(&model.Question{}).Select("id").Where("survey_id = ?", id)
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("survey_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("survey_id = ?", id).Delete(&model.SurveySection{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Survey{}, id).Error
	})
}
