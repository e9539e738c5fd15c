package model

import (
	"gorm.io/datatypes"
)

type SurveyType string

const (
	SurveyMultipleChoice SurveyType = "multiple_choice"
	SurveyShortAnswer    SurveyType = "short_answer"
	SurveyLikert         SurveyType = "likert"
)

var SurveyTypes = []SurveyType{SurveyMultipleChoice, SurveyShortAnswer, SurveyLikert}

func (t SurveyType) Valid() bool {
	for _, v := range SurveyTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Survey is authored by a teacher. An empty AssignedSections set means the
// survey is assigned to every section.
// swagger:model Survey
type Survey struct {
	BaseModel
	Title            string          `gorm:"size:255;not null" json:"title"`
	Description      string          `gorm:"type:text" json:"description"`
	SurveyType       *SurveyType     `gorm:"size:20" json:"surveyType"`
	DueDate          *datatypes.Date `json:"dueDate"`
	IsActive         bool            `gorm:"not null;index" json:"isActive"`
	CreatedByID      uint            `gorm:"index;not null" json:"createdById"`
	CreatedBy        *User           `gorm:"foreignKey:CreatedByID" json:"-"`
	AssignedSections []Section       `gorm:"many2many:survey_sections;" json:"assignedSections"`
	Questions        []Question      `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (Survey) TableName() string {
	return "surveys"
}

func (s *Survey) SectionIDs() []uint {
	ids := make([]uint, 0, len(s.AssignedSections))
	for _, sec := range s.AssignedSections {
		ids = append(ids, sec.ID)
	}
	return ids
}

// SurveySection is the join row behind Survey.AssignedSections.
type SurveySection struct {
	SurveyID  uint `gorm:"primaryKey"`
	SectionID uint `gorm:"primaryKey;index"`
}

func (SurveySection) TableName() string {
	return "survey_sections"
}
