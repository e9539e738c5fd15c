package service

import (
	"context"
	"survey_backend/internal/model"
	"survey_backend/internal/repository"
	"survey_backend/internal/util"
	"time"
)

type ResponseService struct {
	ResponseRepo *repository.ResponseRepository
	Surveys      *SurveyService
	Settings     *SurveySettings
}

func NewResponseService(responseRepo *repository.ResponseRepository, surveys *SurveyService, settings *SurveySettings) *ResponseService {
	return &ResponseService{
		ResponseRepo: responseRepo,
		Surveys:      surveys,
		Settings:     settings,
	}
}

type HistoryAnswer struct {
	QuestionID    uint               `json:"questionId"`
	Question      string             `json:"question"`
	QuestionType  model.QuestionType `json:"questionType"`
	Answer        string             `json:"answer"`
	Orphaned      bool               `json:"orphaned,omitempty"`
	IsCorrect     *bool              `json:"isCorrect,omitempty"`
	CorrectAnswer *string            `json:"correctAnswer,omitempty"`
}

func historyAnswers(answers []model.Answer) []HistoryAnswer {
	out := make([]HistoryAnswer, 0, len(answers))
	for i := range answers {
		a := &answers[i]
		h := HistoryAnswer{
			QuestionID: a.QuestionID,
			Answer:     AnswerDisplay(a, a.Question),
			Orphaned:   a.Value().Kind() == model.AnswerOrphaned,
		}
		if a.Question != nil {
			h.Question = a.Question.Text
			h.QuestionType = a.Question.QuestionType
		}
		g := GradeAnswer(a, a.Question)
		h.IsCorrect = g.IsCorrect
		h.CorrectAnswer = g.CorrectAnswer
		out = append(out, h)
	}
	return out
}

type HistoryEntry struct {
	ResponseID  uint            `json:"responseId"`
	SurveyID    uint            `json:"surveyId"`
	SurveyTitle string          `json:"surveyTitle"`
	SubmittedAt time.Time       `json:"submittedAt"`
	Answers     []HistoryAnswer `json:"answers"`
}

// History lists the student's submissions newest first with graded answers.
func (s *ResponseService) History(ctx context.Context, studentID uint) ([]HistoryEntry, error) {
	responses, err := s.ResponseRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(responses))
	for _, r := range responses {
		e := HistoryEntry{
			ResponseID:  r.ID,
			SurveyID:    r.SurveyID,
			SubmittedAt: r.SubmittedAt,
			Answers:     historyAnswers(r.Answers),
		}
		if r.Survey != nil {
			e.SurveyTitle = r.Survey.Title
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type ResponseQuery struct {
	Search   string
	DateFrom string
	DateTo   string
	Page     int
}

type ResponseRow struct {
	ResponseID  uint            `json:"responseId"`
	StudentID   uint            `json:"studentId"`
	Username    string          `json:"username"`
	FullName    string          `json:"fullName"`
	Email       string          `json:"email"`
	SubmittedAt time.Time       `json:"submittedAt"`
	Answers     []HistoryAnswer `json:"answers"`
}

// filter converts the inclusive yyyy-mm-dd bounds into a UTC half-open range
// over submitted_at. Unparseable dates are ignored.
func (s *ResponseService) filter(q ResponseQuery) repository.ResponseFilter {
	f := repository.ResponseFilter{Search: q.Search}
	loc := s.Settings.Location()
	if d, ok := util.ParseDate(q.DateFrom); ok {
		from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc).UTC()
		f.From = &from
	}
	if d, ok := util.ParseDate(q.DateTo); ok {
		to := time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc).UTC()
		f.To = &to
	}
	return f
}

// SurveyResponses pages through the responses of a survey owned by teacherID.
func (s *ResponseService) SurveyResponses(ctx context.Context, teacherID, surveyID uint, q ResponseQuery) (*util.PageResponse, error) {
	if _, err := s.Surveys.OwnedSurvey(ctx, teacherID, surveyID); err != nil {
		return nil, err
	}
	limit := s.Settings.PageSize()
	page := q.Page
	if page < 1 {
		page = 1
	}

	responses, total, err := s.ResponseRepo.ListBySurvey(ctx, surveyID, s.filter(q), page, limit)
	if err != nil {
		return nil, err
	}

	rows := make([]ResponseRow, 0, len(responses))
	for _, r := range responses {
		row := ResponseRow{
			ResponseID:  r.ID,
			StudentID:   r.StudentID,
			SubmittedAt: r.SubmittedAt,
			Answers:     historyAnswers(r.Answers),
		}
		if r.Student != nil {
			row.Username = r.Student.Username
			row.FullName = fullName(r.Student)
			row.Email = r.Student.Email
		}
		rows = append(rows, row)
	}
	return &util.PageResponse{List: rows, Total: total, Page: page, Limit: limit}, nil
}

func fullName(u *model.User) string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
