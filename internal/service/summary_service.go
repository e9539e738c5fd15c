package service

import (
	"context"
	"encoding/json"
	"fmt"
	"survey_backend/internal/model"
	"survey_backend/internal/repository"
	"survey_backend/pkg/logger"
	"survey_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const summaryCacheKey = "survey:summary:%d"

type SummaryService struct {
	SurveyRepo   *repository.SurveyRepository
	ResponseRepo *repository.ResponseRepository
	// Redis may be nil, in which case every summary is computed.
	Redis    *redis.Client
	Settings *SurveySettings
	Surveys  *SurveyService
}

func NewSummaryService(surveyRepo *repository.SurveyRepository, responseRepo *repository.ResponseRepository, rdb *redis.Client, settings *SurveySettings) *SummaryService {
	return &SummaryService{
		SurveyRepo:   surveyRepo,
		ResponseRepo: responseRepo,
		Redis:        rdb,
		Settings:     settings,
	}
}

type ChoiceSummary struct {
	ChoiceID  uint   `json:"choiceId"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Count     int64  `json:"count"`
}

type QuestionSummary struct {
	QuestionID   uint               `json:"questionId"`
	Text         string             `json:"text"`
	QuestionType model.QuestionType `json:"questionType"`
	Answered     int64              `json:"answered"`
	Choices      []ChoiceSummary    `json:"choices,omitempty"`
}

type SurveySummary struct {
	SurveyID       uint              `json:"surveyId"`
	Title          string            `json:"title"`
	TotalResponses int64             `json:"totalResponses"`
	Questions      []QuestionSummary `json:"questions"`
	GeneratedAt    time.Time         `json:"generatedAt"`
}

// Summary returns per-question tallies for a survey owned by teacherID.
func (s *SummaryService) Summary(ctx context.Context, teacherID, surveyID uint) (*SurveySummary, error) {
	if _, err := s.Surveys.OwnedSurvey(ctx, teacherID, surveyID); err != nil {
		return nil, err
	}
	if cached := s.fromCache(ctx, surveyID); cached != nil {
		return cached, nil
	}

	summary, err := s.Compute(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, summary)
	return summary, nil
}

// Compute builds the summary from the store without touching the cache.
func (s *SummaryService) Compute(ctx context.Context, surveyID uint) (*SurveySummary, error) {
	survey, err := s.SurveyRepo.FindWithQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	total, err := s.ResponseRepo.CountBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	tallies, err := s.ResponseRepo.ChoiceTallies(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	textCounts, err := s.ResponseRepo.TextAnswerCounts(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	byChoice := make(map[uint]int64, len(tallies))
	answered := make(map[uint]int64)
	for _, t := range tallies {
		byChoice[t.ChoiceID] = t.Count
		answered[t.QuestionID] += t.Count
	}
	for _, t := range textCounts {
		answered[t.QuestionID] += t.Count
	}

	summary := &SurveySummary{
		SurveyID:       survey.ID,
		Title:          survey.Title,
		TotalResponses: total,
		Questions:      make([]QuestionSummary, 0, len(survey.Questions)),
		GeneratedAt:    time.Now().UTC(),
	}
	for _, q := range survey.Questions {
		qs := QuestionSummary{
			QuestionID:   q.ID,
			Text:         q.Text,
			QuestionType: q.QuestionType,
			Answered:     answered[q.ID],
		}
		for _, c := range q.Choices {
			qs.Choices = append(qs.Choices, ChoiceSummary{
				ChoiceID:  c.ID,
				Text:      c.Text,
				IsCorrect: c.IsCorrect,
				Count:     byChoice[c.ID],
			})
		}
		summary.Questions = append(summary.Questions, qs)
	}
	return summary, nil
}

func (s *SummaryService) fromCache(ctx context.Context, surveyID uint) *SurveySummary {
	if s.Redis == nil {
		return nil
	}
	val, err := s.Redis.Get(ctx, fmt.Sprintf(summaryCacheKey, surveyID)).Result()
	if err == redis.Nil {
		monitoring.SummaryCacheCounter.WithLabelValues("miss").Inc()
		return nil
	}
	if err != nil {
		monitoring.SummaryCacheCounter.WithLabelValues("error").Inc()
		logger.Log.Warn("Summary cache read failed", zap.Uint("surveyID", surveyID), zap.Error(err))
		return nil
	}

	var summary SurveySummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		monitoring.SummaryCacheCounter.WithLabelValues("error").Inc()
		return nil
	}
	monitoring.SummaryCacheCounter.WithLabelValues("hit").Inc()
	return &summary
}

func (s *SummaryService) store(ctx context.Context, summary *SurveySummary) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	ttl := s.Settings.Get().SummaryCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if err := s.Redis.Set(ctx, fmt.Sprintf(summaryCacheKey, summary.SurveyID), data, ttl).Err(); err != nil {
		logger.Log.Warn("Summary cache write failed", zap.Uint("surveyID", summary.SurveyID), zap.Error(err))
	}
}

// Invalidate drops the cached summary of a survey.
func (s *SummaryService) Invalidate(ctx context.Context, surveyID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, fmt.Sprintf(summaryCacheKey, surveyID)).Err(); err != nil {
		logger.Log.Warn("Summary cache invalidation failed", zap.Uint("surveyID", surveyID), zap.Error(err))
	}
}
