package repository

import (
	"context"
	"survey_backend/internal/model"
	"survey_backend/internal/util"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func numberChoices(questionID uint, choices []model.Choice) {
	for i := range choices {
		choices[i].ID = 0
		choices[i].QuestionID = questionID
		choices[i].Position = i
	}
}

// Create appends the question (and its choices) after the survey's last question.
func (r *QuestionRepository) Create(ctx context.Context, question *model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos int
		if err := tx.Model(&model.Question{}).
			Where("survey_id = ?", question.SurveyID).
			Select("COALESCE(MAX(position), -1)").
			Row().Scan(&maxPos); err != nil {
			return err
		}
		question.Position = maxPos + 1

		choices := question.Choices
		question.Choices = nil
		if err := tx.Create(question).Error; err != nil {
			return err
		}
		if len(choices) > 0 {
			numberChoices(question.ID, choices)
			if err := tx.Create(&choices).Error; err != nil {
				return err
			}
		}
		question.Choices = choices
		return nil
	})
}

func (r *QuestionRepository) FindInSurvey(ctx context.Context, surveyID, questionID uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).
		Preload("Choices", orderByPosition).
		Where("id = ? AND survey_id = ?", questionID, surveyID).
		First(&q).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

// Update saves the question. When choices is non-nil every existing choice
// is deleted and the new set created; answers that pointed at a deleted
// choice keep their row with selected_choice_id cleared.
func (r *QuestionRepository) Update(ctx context.Context, question *model.Question, choices []model.Choice) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Choices").Save(question).Error; err != nil {
			return err
		}
		if choices == nil {
			return nil
		}

		oldChoiceIDs := tx.Model(&model.Choice{}).Select("id").Where("question_id = ?", question.ID)
		if err := tx.Model(&model.Answer{}).
			Where("selected_choice_id IN (?)", oldChoiceIDs).
			Update("selected_choice_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.Choice{}).Error; err != nil {
			return err
		}

		question.Choices = nil
		if len(choices) > 0 {
			numberChoices(question.ID, choices)
			if err := tx.Create(&choices).Error; err != nil {
				return err
			}
			question.Choices = choices
		}
		return nil
	})
}

func (r *QuestionRepository) Delete(ctx context.Context, question *model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, question.ID).Error
	})
}
