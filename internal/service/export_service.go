package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"survey_backend/internal/model"
	"survey_backend/internal/repository"
	"survey_backend/internal/util"
	"survey_backend/pkg/logger"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// exportBatch is the page size used while walking all responses.
const exportBatch = 200

type ExportService struct {
	SurveyRepo   *repository.SurveyRepository
	ResponseRepo *repository.ResponseRepository
	Surveys      *SurveyService
	Storage      *StorageService
	Settings     *SurveySettings
}

func NewExportService(surveyRepo *repository.SurveyRepository, responseRepo *repository.ResponseRepository, surveys *SurveyService, storage *StorageService, settings *SurveySettings) *ExportService {
	return &ExportService{
		SurveyRepo:   surveyRepo,
		ResponseRepo: responseRepo,
		Surveys:      surveys,
		Storage:      storage,
		Settings:     settings,
	}
}

type ExportResult struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	Responses int    `json:"responses"`
}

// Export writes every response of the survey as one CSV row, one column per
// question, and uploads the file.
func (s *ExportService) Export(ctx context.Context, teacherID, surveyID uint) (*ExportResult, error) {
	if _, err := s.Surveys.OwnedSurvey(ctx, teacherID, surveyID); err != nil {
		return nil, err
	}
	survey, err := s.SurveyRepo.FindWithQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"response_id", "username", "full_name", "email", "submitted_at"}
	for _, q := range survey.Questions {
		header = append(header, q.Text)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	loc := s.Settings.Location()
	rows := 0
	for page := 1; ; page++ {
		responses, total, err := s.ResponseRepo.ListBySurvey(ctx, surveyID, repository.ResponseFilter{}, page, exportBatch)
		if err != nil {
			return nil, err
		}
		for i := range responses {
			if err := w.Write(exportRow(survey.Questions, &responses[i], loc)); err != nil {
				return nil, err
			}
			rows++
		}
		if len(responses) == 0 || int64(page*exportBatch) >= total {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("exports/survey-%d/%s.csv", surveyID, uuid.NewString())
	url, err := s.Storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()), int64(buf.Len()), util.MimeCSV)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Survey responses exported",
		zap.Uint("surveyID", surveyID),
		zap.Int("responses", rows),
		zap.String("object", name))
	return &ExportResult{URL: url, Name: name, Responses: rows}, nil
}

func exportRow(questions []model.Question, r *model.Response, loc *time.Location) []string {
	byQuestion := make(map[uint]*model.Answer, len(r.Answers))
	for i := range r.Answers {
		byQuestion[r.Answers[i].QuestionID] = &r.Answers[i]
	}

	row := []string{strconv.FormatUint(uint64(r.ID), 10), "", "", "", r.SubmittedAt.In(loc).Format(util.TimeFormat)}
	if r.Student != nil {
		row[1] = r.Student.Username
		row[2] = fullName(r.Student)
		row[3] = r.Student.Email
	}
	for i := range questions {
		if a, ok := byQuestion[questions[i].ID]; ok {
			row = append(row, AnswerDisplay(a, &questions[i]))
		} else {
			row = append(row, "")
		}
	}
	return row
}
