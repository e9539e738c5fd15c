package service

import (
	"context"
	"survey_backend/internal/model"
	"survey_backend/internal/repository"
	"survey_backend/internal/util"
	"time"

	"gorm.io/datatypes"
)

type AssignmentService struct {
	SurveyRepo   *repository.SurveyRepository
	ResponseRepo *repository.ResponseRepository
	UserRepo     *repository.UserRepository
	Settings     *SurveySettings
	Now          func() time.Time
}

func NewAssignmentService(surveyRepo *repository.SurveyRepository, responseRepo *repository.ResponseRepository, userRepo *repository.UserRepository, settings *SurveySettings) *AssignmentService {
	return &AssignmentService{
		SurveyRepo:   surveyRepo,
		ResponseRepo: responseRepo,
		UserRepo:     userRepo,
		Settings:     settings,
		Now:          time.Now,
	}
}

// Today is the current calendar date in the configured timezone.
func (s *AssignmentService) Today() time.Time {
	return util.DateIn(s.Now(), s.Settings.Location())
}

// ResolveVisibleSurveys returns the active, not past-due surveys that are
// unassigned or assigned to sectionID. A nil sectionID only sees unassigned
// surveys. Read only.
func (s *AssignmentService) ResolveVisibleSurveys(ctx context.Context, sectionID *uint, asOf time.Time) ([]model.Survey, error) {
	return s.SurveyRepo.ListVisible(ctx, sectionID, asOf)
}

// IsVisible applies the same rule to a single survey.
func (s *AssignmentService) IsVisible(ctx context.Context, surveyID uint, sectionID *uint) (bool, error) {
	return s.SurveyRepo.IsVisible(ctx, surveyID, sectionID, s.Today())
}

type AssignedSurvey struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     *datatypes.Date `json:"dueDate"`
}

func toAssigned(surveys []model.Survey) []AssignedSurvey {
	out := make([]AssignedSurvey, 0, len(surveys))
	for _, sv := range surveys {
		out = append(out, AssignedSurvey{
			ID:          sv.ID,
			Title:       sv.Title,
			Description: sv.Description,
			DueDate:     sv.DueDate,
		})
	}
	return out
}

func (s *AssignmentService) studentSection(ctx context.Context, studentID uint) (*model.User, *uint, error) {
	user, err := s.UserRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	if user.Profile == nil {
		return user, nil, nil
	}
	return user, user.Profile.SectionID, nil
}

// AssignedSurveys lists the surveys currently open to the student.
func (s *AssignmentService) AssignedSurveys(ctx context.Context, studentID uint) ([]AssignedSurvey, error) {
	user, sectionID, err := s.studentSection(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return []AssignedSurvey{}, nil
	}
	surveys, err := s.ResolveVisibleSurveys(ctx, sectionID, s.Today())
	if err != nil {
		return nil, err
	}
	return toAssigned(surveys), nil
}

type StudentDashboard struct {
	Section        *model.Section `json:"section"`
	ActiveTab      string         `json:"activeTab"`
	Pending        []model.Survey `json:"pending,omitempty"`
	Completed      []model.Survey `json:"completed,omitempty"`
	TotalAssigned  int            `json:"totalAssigned"`
	TotalCompleted int            `json:"totalCompleted"`
}

func normalizeTab(tab string) string {
	switch tab {
	case util.TabPending, util.TabCompleted:
		return tab
	}
	return util.TabOverview
}

// StudentDashboard partitions the visible surveys into pending and completed.
func (s *AssignmentService) StudentDashboard(ctx context.Context, studentID uint, tab string) (*StudentDashboard, error) {
	user, sectionID, err := s.studentSection(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !user.Profile.IsStudent() {
		return nil, util.ErrNotAuthorized
	}

	surveys, err := s.ResolveVisibleSurveys(ctx, sectionID, s.Today())
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(surveys))
	for _, sv := range surveys {
		ids = append(ids, sv.ID)
	}
	submitted, err := s.ResponseRepo.SubmittedSurveyIDs(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}

	pending := []model.Survey{}
	completed := []model.Survey{}
	for _, sv := range surveys {
		if submitted[sv.ID] {
			completed = append(completed, sv)
		} else {
			pending = append(pending, sv)
		}
	}

	d := &StudentDashboard{
		Section:        user.Profile.Section,
		ActiveTab:      normalizeTab(tab),
		TotalAssigned:  len(surveys),
		TotalCompleted: len(completed),
	}
	if d.ActiveTab != util.TabCompleted {
		d.Pending = pending
	}
	if d.ActiveTab != util.TabPending {
		d.Completed = completed
	}
	return d, nil
}

type StudentChoice struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type StudentQuestion struct {
	ID           uint               `json:"id"`
	Text         string             `json:"text"`
	QuestionType model.QuestionType `json:"questionType"`
	Required     bool               `json:"required"`
	Choices      []StudentChoice    `json:"choices,omitempty"`
}

type StudentSurveyDetail struct {
	ID               uint              `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	DueDate          *datatypes.Date   `json:"dueDate"`
	Questions        []StudentQuestion `json:"questions"`
	AlreadySubmitted bool              `json:"alreadySubmitted"`
	SubmittedAt      *time.Time        `json:"submittedAt,omitempty"`
	Answers          []HistoryAnswer   `json:"answers,omitempty"`
}

// SurveyDetail is the fill-in view of a survey for a student. Choice
// correctness is left out; previous answers are included once submitted.
func (s *AssignmentService) SurveyDetail(ctx context.Context, studentID, surveyID uint) (*StudentSurveyDetail, error) {
	survey, err := s.SurveyRepo.FindWithQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	detail := &StudentSurveyDetail{
		ID:          survey.ID,
		Title:       survey.Title,
		Description: survey.Description,
		DueDate:     survey.DueDate,
		Questions:   make([]StudentQuestion, 0, len(survey.Questions)),
	}
	for _, q := range survey.Questions {
		sq := StudentQuestion{
			ID:           q.ID,
			Text:         q.Text,
			QuestionType: q.QuestionType,
			Required:     q.Required,
		}
		for _, c := range q.Choices {
			sq.Choices = append(sq.Choices, StudentChoice{ID: c.ID, Text: c.Text})
		}
		detail.Questions = append(detail.Questions, sq)
	}

	existing, err := s.ResponseRepo.FindByStudentAndSurvey(ctx, studentID, surveyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		detail.AlreadySubmitted = true
		submittedAt := existing.SubmittedAt
		detail.SubmittedAt = &submittedAt
		detail.Answers = historyAnswers(existing.Answers)
	}
	return detail, nil
}
