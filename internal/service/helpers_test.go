package service

import (
	"survey_backend/internal/config"
	"survey_backend/internal/repository"
	"survey_backend/internal/testutil"
	"testing"
	"time"

	"gorm.io/gorm"
)

// now is the fixed clock of every service test: 10 March 2026, 15:00 UTC.
var now = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	db         *gorm.DB
	settings   *SurveySettings
	surveys    *SurveyService
	summary    *SummaryService
	assignment *AssignmentService
	submission *SubmissionService
	responses  *ResponseService
	auth       *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	sectionRepo := repository.NewSectionRepository(db)
	userRepo := repository.NewUserRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	responseRepo := repository.NewResponseRepository(db)

	settings := NewSurveySettings(config.SurveyConfig{
		Timezone:                  "UTC",
		ResponsesPageSize:         2,
		EnforceVisibilityOnSubmit: true,
	})

	f := &fixture{db: db, settings: settings}
	f.summary = NewSummaryService(surveyRepo, responseRepo, nil, settings)
	f.surveys = NewSurveyService(surveyRepo, questionRepo, sectionRepo, userRepo, f.summary)
	f.summary.Surveys = f.surveys

	f.assignment = NewAssignmentService(surveyRepo, responseRepo, userRepo, settings)
	f.assignment.Now = testutil.FixedClock(now)
	f.submission = NewSubmissionService(surveyRepo, responseRepo, userRepo, settings, f.summary)
	f.submission.Now = testutil.FixedClock(now)
	f.responses = NewResponseService(responseRepo, f.surveys, settings)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}
	f.auth = NewAuthService(userRepo, sectionRepo, cfg)
	return f
}

func ptr[T any](v T) *T {
	return &v
}
