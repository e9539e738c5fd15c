package service

import (
	"survey_backend/internal/config"
	"sync"
	"time"
)

// SurveySettings holds the survey section of the config. It is shared by the
// services and swapped when the config file is reloaded.
type SurveySettings struct {
	mu  sync.RWMutex
	cfg config.SurveyConfig
	loc *time.Location
}

func NewSurveySettings(cfg config.SurveyConfig) *SurveySettings {
	s := &SurveySettings{}
	s.Set(cfg)
	return s
}

func (s *SurveySettings) Set(cfg config.SurveyConfig) {
	loc := cfg.Location()
	s.mu.Lock()
	s.cfg = cfg
	s.loc = loc
	s.mu.Unlock()
}

func (s *SurveySettings) Get() config.SurveyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *SurveySettings) Location() *time.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loc
}

func (s *SurveySettings) PageSize() int {
	if n := s.Get().ResponsesPageSize; n > 0 {
		return n
	}
	return 10
}
