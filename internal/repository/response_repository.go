package repository

import (
	"context"
	"strings"
	"survey_backend/internal/model"
	"survey_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type ResponseRepository struct {
	DB *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{DB: db}
}

func (r *ResponseRepository) Exists(ctx context.Context, surveyID, studentID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Response{}).
		Where("survey_id = ? AND student_id = ?", surveyID, studentID).
		Count(&count).Error
	return count > 0, err
}

// CreateWithAnswers persists the response and its answers atomically. A
// second response for the same (survey, student) fails on the unique index
// and is reported as util.ErrAlreadySubmitted.
func (r *ResponseRepository) CreateWithAnswers(ctx context.Context, response *model.Response, answers []model.Answer) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Survey", "Student", "Answers").Create(response).Error; err != nil {
			if IsDuplicateKey(err) {
				return util.ErrAlreadySubmitted
			}
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].ResponseID = response.ID
		}
		if err := tx.Omit("Question", "SelectedChoice").Create(&answers).Error; err != nil {
			return err
		}
		response.Answers = answers
		return nil
	})
}

func preloadAnswers(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("answers.id asc") }).
		Preload("Answers.Question").
		Preload("Answers.Question.Choices", orderByPosition).
		Preload("Answers.SelectedChoice")
}

func (r *ResponseRepository) FindByStudentAndSurvey(ctx context.Context, studentID, surveyID uint) (*model.Response, error) {
	var response model.Response
	err := preloadAnswers(r.DB.WithContext(ctx)).
		Where("survey_id = ? AND student_id = ?", surveyID, studentID).
		First(&response).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &response, nil
}

// ListByStudent returns the student's responses newest first with survey and answers.
func (r *ResponseRepository) ListByStudent(ctx context.Context, studentID uint) ([]model.Response, error) {
	var responses []model.Response
	err := preloadAnswers(r.DB.WithContext(ctx)).
		Preload("Survey").
		Where("student_id = ?", studentID).
		Order("submitted_at desc, id desc").
		Find(&responses).Error
	return responses, err
}

// SubmittedSurveyIDs returns the subset of surveyIDs the student has answered.
func (r *ResponseRepository) SubmittedSurveyIDs(ctx context.Context, studentID uint, surveyIDs []uint) (map[uint]bool, error) {
	submitted := make(map[uint]bool)
	if len(surveyIDs) == 0 {
		return submitted, nil
	}
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.Response{}).
		Where("student_id = ? AND survey_id IN ?", studentID, surveyIDs).
		Pluck("survey_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		submitted[id] = true
	}
	return submitted, nil
}

type ResponseFilter struct {
	Search string
	// From and To bound submitted_at as [From, To).
	From *time.Time
	To   *time.Time
}

// ListBySurvey pages through a survey's responses newest first.
func (r *ResponseRepository) ListBySurvey(ctx context.Context, surveyID uint, filter ResponseFilter, page, limit int) ([]model.Response, int64, error) {
	query := r.DB.WithContext(ctx).Model(&model.Response{}).
		Where("responses.survey_id = ?", surveyID)

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Joins("JOIN users ON users.id = responses.student_id").
			Where("(LOWER(users.username) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ?)",
				like, like, like, like)
	}
	if filter.From != nil {
		query = query.Where("responses.submitted_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("responses.submitted_at < ?", *filter.To)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var responses []model.Response
	err := preloadAnswers(query).
		Preload("Student").
		Order("responses.submitted_at desc, responses.id desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&responses).Error
	return responses, total, err
}

func (r *ResponseRepository) CountBySurvey(ctx context.Context, surveyID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Response{}).Where("survey_id = ?", surveyID).Count(&count).Error
	return count, err
}

type ChoiceTally struct {
	QuestionID uint
	ChoiceID   uint
	Count      int64
}

// ChoiceTallies counts selected choices per question for a survey.
func (r *ResponseRepository) ChoiceTallies(ctx context.Context, surveyID uint) ([]ChoiceTally, error) {
	var tallies []ChoiceTally
	err := r.DB.WithContext(ctx).Table("answers a").
		Select("a.question_id as question_id, a.selected_choice_id as choice_id, COUNT(*) as count").
		Joins("JOIN responses rs ON rs.id = a.response_id").
		Where("rs.survey_id = ? AND a.selected_choice_id IS NOT NULL", surveyID).
		Group("a.question_id, a.selected_choice_id").
		Scan(&tallies).Error
	return tallies, err
}

type TextCount struct {
	QuestionID uint
	Count      int64
}

func (r *ResponseRepository) TextAnswerCounts(ctx context.Context, surveyID uint) ([]TextCount, error) {
	var counts []TextCount
	err := r.DB.WithContext(ctx).Table("answers a").
		Select("a.question_id as question_id, COUNT(*) as count").
		Joins("JOIN responses rs ON rs.id = a.response_id").
		Where("rs.survey_id = ? AND a.text_answer IS NOT NULL", surveyID).
		Group("a.question_id").
		Scan(&counts).Error
	return counts, err
}
