package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"survey_backend/internal/model"
	"survey_backend/internal/repository"
	"survey_backend/internal/util"
	"survey_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type SurveyService struct {
	SurveyRepo   *repository.SurveyRepository
	QuestionRepo *repository.QuestionRepository
	SectionRepo  *repository.SectionRepository
	UserRepo     *repository.UserRepository
	Summary      *SummaryService
}

func NewSurveyService(surveyRepo *repository.SurveyRepository, questionRepo *repository.QuestionRepository, sectionRepo *repository.SectionRepository, userRepo *repository.UserRepository, summary *SummaryService) *SurveyService {
	return &SurveyService{
		SurveyRepo:   surveyRepo,
		QuestionRepo: questionRepo,
		SectionRepo:  sectionRepo,
		UserRepo:     userRepo,
		Summary:      summary,
	}
}

type SurveyInput struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description"`
	SurveyType  string  `json:"surveyType" validate:"survey_type"`
	DueDate     *string `json:"dueDate"`
	SectionIDs  []uint  `json:"sectionIds"`
}

// SurveyUpdate leaves a field untouched when it is nil.
type SurveyUpdate struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	SurveyType  *string `json:"surveyType"`
	DueDate     *string `json:"dueDate"`
	IsActive    *bool   `json:"isActive"`
	SectionIDs  *[]uint `json:"sectionIds"`
}

type ChoiceInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionInput struct {
	Text         string        `json:"text" validate:"required,max=500"`
	QuestionType string        `json:"questionType" validate:"question_type"`
	Required     bool          `json:"required"`
	Choices      []ChoiceInput `json:"choices"`
}

type QuestionUpdate struct {
	Text     *string `json:"text" validate:"omitempty,max=500"`
	Required *bool   `json:"required"`
	// Choices replaces every choice of an mcq/likert question when not nil.
	Choices *[]ChoiceInput `json:"choices"`
}

// requireTeacher loads the caller and checks the teacher role.
func (s *SurveyService) requireTeacher(ctx context.Context, userID uint) error {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return util.ErrNotAuthorized
		}
		return err
	}
	if !user.IsActive || !user.Profile.IsTeacher() {
		return util.ErrNotAuthorized
	}
	return nil
}

// OwnedSurvey loads a survey and checks it belongs to teacherID.
func (s *SurveyService) OwnedSurvey(ctx context.Context, teacherID, surveyID uint) (*model.Survey, error) {
	if err := s.requireTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	survey, err := s.SurveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.CreatedByID != teacherID {
		return nil, util.ErrNotAuthorized
	}
	return survey, nil
}

func parseSurveyType(raw string) *model.SurveyType {
	t := model.SurveyType(strings.TrimSpace(raw))
	if t == "" || !t.Valid() {
		return nil
	}
	return &t
}

func parseDueDate(raw *string) (*datatypes.Date, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, ok := util.ParseDate(*raw)
	if !ok {
		return nil, validationError("dueDate must be yyyy-mm-dd")
	}
	d := datatypes.Date(t)
	return &d, nil
}

// sections resolves the requested ids; unknown ids are dropped.
func (s *SurveyService) sections(ctx context.Context, ids []uint) ([]model.Section, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.SectionRepo.FindByIDs(ctx, ids)
}

func (s *SurveyService) CreateSurvey(ctx context.Context, teacherID uint, in SurveyInput) (*model.Survey, error) {
	if err := s.requireTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	due, err := parseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections(ctx, in.SectionIDs)
	if err != nil {
		return nil, err
	}

	survey := &model.Survey{
		Title:            in.Title,
		Description:      in.Description,
		SurveyType:       parseSurveyType(in.SurveyType),
		DueDate:          due,
		IsActive:         true,
		CreatedByID:      teacherID,
		AssignedSections: sections,
	}
	if err := s.SurveyRepo.Create(ctx, survey); err != nil {
		return nil, err
	}
	logger.Log.Info("Survey created",
		zap.Uint("surveyID", survey.ID),
		zap.Uint("teacherID", teacherID),
		zap.Int("sections", len(sections)))
	return survey, nil
}

func (s *SurveyService) UpdateSurvey(ctx context.Context, teacherID, surveyID uint, in SurveyUpdate) (*model.Survey, error) {
	survey, err := s.OwnedSurvey(ctx, teacherID, surveyID)
	if err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, validationError("title is required")
		}
		survey.Title = title
	}
	if in.Description != nil {
		survey.Description = *in.Description
	}
	if in.SurveyType != nil {
		raw := strings.TrimSpace(*in.SurveyType)
		if raw != "" && !model.SurveyType(raw).Valid() {
			return nil, validationError("unknown survey type " + raw)
		}
		survey.SurveyType = parseSurveyType(raw)
	}
	if in.DueDate != nil {
		due, err := parseDueDate(in.DueDate)
		if err != nil {
			return nil, err
		}
		survey.DueDate = due
	}
	if in.IsActive != nil {
		survey.IsActive = *in.IsActive
	}
	if in.SectionIDs != nil {
		sections, err := s.sections(ctx, *in.SectionIDs)
		if err != nil {
			return nil, err
		}
		survey.AssignedSections = sections
	}

	if err := s.SurveyRepo.Update(ctx, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

// GetSurvey returns the owner's view of a survey including choice correctness.
func (s *SurveyService) GetSurvey(ctx context.Context, teacherID, surveyID uint) (*model.Survey, error) {
	if _, err := s.OwnedSurvey(ctx, teacherID, surveyID); err != nil {
		return nil, err
	}
	return s.SurveyRepo.FindWithQuestions(ctx, surveyID)
}

func (s *SurveyService) ListOwnSurveys(ctx context.Context, teacherID uint) ([]model.Survey, error) {
	if err := s.requireTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	return s.SurveyRepo.ListByOwner(ctx, teacherID)
}

func (s *SurveyService) DeleteSurvey(ctx context.Context, teacherID, surveyID uint) error {
	if _, err := s.OwnedSurvey(ctx, teacherID, surveyID); err != nil {
		return err
	}
	if err := s.SurveyRepo.Delete(ctx, surveyID); err != nil {
		return err
	}
	if s.Summary != nil {
		s.Summary.Invalidate(ctx, surveyID)
	}
	logger.Log.Info("Survey deleted", zap.Uint("surveyID", surveyID), zap.Uint("teacherID", teacherID))
	return nil
}

// buildChoices keeps non-blank choices, and only for choice-based questions.
func buildChoices(qt model.QuestionType, in []ChoiceInput) []model.Choice {
	if !qt.RequiresChoice() {
		return []model.Choice{}
	}
	choices := make([]model.Choice, 0, len(in))
	for _, c := range in {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		choices = append(choices, model.Choice{Text: text, IsCorrect: c.IsCorrect})
	}
	return choices
}

func (s *SurveyService) AddQuestion(ctx context.Context, teacherID, surveyID uint, in QuestionInput) (*model.Question, error) {
	if _, err := s.OwnedSurvey(ctx, teacherID, surveyID); err != nil {
		return nil, err
	}
	in.Text = strings.TrimSpace(in.Text)
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}

	qt := model.QuestionType(in.QuestionType)
	if qt == "" {
		qt = model.QuestionText
	}
	question := &model.Question{
		SurveyID:     surveyID,
		Text:         in.Text,
		QuestionType: qt,
		Required:     in.Required,
		Choices:      buildChoices(qt, in.Choices),
	}
	if err := s.QuestionRepo.Create(ctx, question); err != nil {
		return nil, err
	}
	s.invalidate(ctx, surveyID)
	return question, nil
}

func (s *SurveyService) EditQuestion(ctx context.Context, teacherID, surveyID, questionID uint, in QuestionUpdate) (*model.Question, error) {
	if _, err := s.OwnedSurvey(ctx, teacherID, surveyID); err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	question, err := s.QuestionRepo.FindInSurvey(ctx, surveyID, questionID)
	if err != nil {
		return nil, err
	}

	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return nil, validationError("text is required")
		}
		question.Text = text
	}
	if in.Required != nil {
		question.Required = *in.Required
	}

	var choices []model.Choice
	if in.Choices != nil && question.QuestionType.RequiresChoice() {
		choices = buildChoices(question.QuestionType, *in.Choices)
	}
	if err := s.QuestionRepo.Update(ctx, question, choices); err != nil {
		return nil, err
	}
	if choices == nil {
		// choices untouched; reload them for the caller
		if question, err = s.QuestionRepo.FindInSurvey(ctx, surveyID, questionID); err != nil {
			return nil, err
		}
	}
	s.invalidate(ctx, surveyID)
	return question, nil
}

func (s *SurveyService) DeleteQuestion(ctx context.Context, teacherID, surveyID, questionID uint) error {
	if _, err := s.OwnedSurvey(ctx, teacherID, surveyID); err != nil {
		return err
	}
	question, err := s.QuestionRepo.FindInSurvey(ctx, surveyID, questionID)
	if err != nil {
		return err
	}
	if err := s.QuestionRepo.Delete(ctx, question); err != nil {
		return err
	}
	s.invalidate(ctx, surveyID)
	return nil
}

func (s *SurveyService) invalidate(ctx context.Context, surveyID uint) {
	if s.Summary != nil {
		s.Summary.Invalidate(ctx, surveyID)
	}
}

// TeacherSurvey is a row of the teacher dashboard.
type TeacherSurvey struct {
	model.Survey
	QuestionCount int64 `json:"questionCount"`
	ResponseCount int64 `json:"responseCount"`
}

type TeacherDashboard struct {
	Surveys        []TeacherSurvey `json:"surveys"`
	TotalSurveys   int             `json:"totalSurveys"`
	ActiveSurveys  int             `json:"activeSurveys"`
	TotalResponses int64           `json:"totalResponses"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

func (s *SurveyService) TeacherDashboard(ctx context.Context, teacherID uint) (*TeacherDashboard, error) {
	surveys, err := s.ListOwnSurveys(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	counts, err := s.SurveyRepo.CountsByOwner(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	d := &TeacherDashboard{
		Surveys:     make([]TeacherSurvey, 0, len(surveys)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, sv := range surveys {
		c := counts[sv.ID]
		d.Surveys = append(d.Surveys, TeacherSurvey{Survey: sv, QuestionCount: c.Questions, ResponseCount: c.Responses})
		d.TotalResponses += c.Responses
		if sv.IsActive {
			d.ActiveSurveys++
		}
	}
	d.TotalSurveys = len(surveys)
	return d, nil
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", util.ErrValidation, msg)
}
