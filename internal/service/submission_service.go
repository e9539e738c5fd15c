package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"survey_backend/internal/model"
	"survey_backend/internal/repository"
	"survey_backend/internal/util"
	"survey_backend/pkg/logger"
	"survey_backend/pkg/monitoring"
	"survey_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type SubmissionService struct {
	SurveyRepo   *repository.SurveyRepository
	ResponseRepo *repository.ResponseRepository
	UserRepo     *repository.UserRepository
	Settings     *SurveySettings
	// Summary is optional; when set its cache entry is dropped after each submission.
	Summary *SummaryService
	Now     func() time.Time
}

func NewSubmissionService(surveyRepo *repository.SurveyRepository, responseRepo *repository.ResponseRepository, userRepo *repository.UserRepository, settings *SurveySettings, summary *SummaryService) *SubmissionService {
	return &SubmissionService{
		SurveyRepo:   surveyRepo,
		ResponseRepo: responseRepo,
		UserRepo:     userRepo,
		Settings:     settings,
		Summary:      summary,
		Now:          time.Now,
	}
}

// BuildAnswers turns the raw form values into answers, one per question in
// order. Choice values that are not a choice of that question and blank text
// values are skipped.
func BuildAnswers(questions []model.Question, raw map[uint]string) []model.Answer {
	answers := make([]model.Answer, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		value, ok := raw[q.ID]
		if !ok {
			continue
		}

		var (
			v   model.AnswerValue
			err error
		)
		if q.QuestionType.RequiresChoice() {
			choiceID, perr := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
			if perr != nil {
				continue
			}
			v, err = model.NewChoiceAnswer(q, uint(choiceID))
		} else {
			v, err = model.NewTextAnswer(q, value)
		}
		if err != nil {
			continue
		}
		answers = append(answers, model.NewAnswer(0, q.ID, v))
	}
	return answers
}

// Submit records the student's one response to a survey.
func (s *SubmissionService) Submit(ctx context.Context, studentID, surveyID uint, raw map[uint]string) (uint, error) {
	ctx, span := tracing.Tracer.Start(ctx, "SubmissionService.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int("survey.id", int(surveyID)),
		attribute.Int("student.id", int(studentID)),
	)

	responseID, err := s.submit(ctx, studentID, surveyID, raw)
	switch {
	case err == nil:
		monitoring.SubmissionCounter.WithLabelValues("accepted").Inc()
	case errors.Is(err, util.ErrAlreadySubmitted):
		monitoring.SubmissionCounter.WithLabelValues("duplicate").Inc()
		logger.Log.Info("Duplicate submission rejected",
			zap.Uint("surveyID", surveyID),
			zap.Uint("studentID", studentID))
	case errors.Is(err, util.ErrNotAuthorized), errors.Is(err, util.ErrSurveyNotFound), errors.Is(err, util.ErrUserNotFound):
		monitoring.SubmissionCounter.WithLabelValues("rejected").Inc()
	default:
		monitoring.SubmissionCounter.WithLabelValues("failed").Inc()
		span.RecordError(err)
	}
	return responseID, err
}

func (s *SubmissionService) submit(ctx context.Context, studentID, surveyID uint, raw map[uint]string) (uint, error) {
	student, err := s.UserRepo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return 0, util.ErrNotAuthorized
		}
		return 0, err
	}
	if !student.IsActive || !student.Profile.IsStudent() {
		return 0, util.ErrNotAuthorized
	}

	survey, err := s.SurveyRepo.FindWithQuestions(ctx, surveyID)
	if err != nil {
		return 0, err
	}

	if s.Settings.Get().EnforceVisibilityOnSubmit {
		today := util.DateIn(s.Now(), s.Settings.Location())
		visible, err := s.SurveyRepo.IsVisible(ctx, survey.ID, student.Profile.SectionID, today)
		if err != nil {
			return 0, err
		}
		if !visible {
			return 0, util.ErrNotAuthorized
		}
	}

	exists, err := s.ResponseRepo.Exists(ctx, survey.ID, student.ID)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, util.ErrAlreadySubmitted
	}

	response := &model.Response{
		SurveyID:    survey.ID,
		StudentID:   student.ID,
		SubmittedAt: s.Now().UTC(),
	}
	answers := BuildAnswers(survey.Questions, raw)
	if err := s.ResponseRepo.CreateWithAnswers(ctx, response, answers); err != nil {
		return 0, err
	}

	logger.Log.Info("Survey response submitted",
		zap.Uint("surveyID", survey.ID),
		zap.Uint("studentID", student.ID),
		zap.Uint("responseID", response.ID),
		zap.Int("answers", len(answers)))

	if s.Summary != nil {
		s.Summary.Invalidate(ctx, survey.ID)
	}
	return response.ID, nil
}
