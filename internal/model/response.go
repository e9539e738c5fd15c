package model

import (
	"time"
)

// Response is the single submission of a student for a survey. The
// (survey_id, student_id) unique index is what guarantees one response per
// student per survey, including under concurrent submissions.
// swagger:model Response
type Response struct {
	BaseModel
	SurveyID    uint      `gorm:"not null;uniqueIndex:idx_responses_survey_student" json:"surveyId"`
	Survey      *Survey   `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"survey,omitempty"`
	StudentID   uint      `gorm:"not null;uniqueIndex:idx_responses_survey_student;index" json:"studentId"`
	Student     *User     `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	SubmittedAt time.Time `gorm:"not null;index" json:"submittedAt"`
	Answers     []Answer  `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

func (Response) TableName() string {
	return "responses"
}
