package model

type QuestionType string

const (
	QuestionMCQ    QuestionType = "mcq"
	QuestionLikert QuestionType = "likert"
	QuestionText   QuestionType = "text"
)

func (t QuestionType) Valid() bool {
	return t == QuestionMCQ || t == QuestionLikert || t == QuestionText
}

// RequiresChoice reports whether answers to this type reference a Choice.
func (t QuestionType) RequiresChoice() bool {
	return t == QuestionMCQ || t == QuestionLikert
}

// swagger:model Question
type Question struct {
	BaseModel
	SurveyID     uint         `gorm:"index;not null" json:"surveyId"`
	Text         string       `gorm:"size:500;not null" json:"text"`
	QuestionType QuestionType `gorm:"size:10;not null" json:"questionType"`
	Required     bool         `gorm:"not null" json:"required"`
	Position     int          `gorm:"default:0" json:"position"`
	Choices      []Choice     `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"choices,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// FindChoice returns the choice with the given id if it belongs to q.
func (q *Question) FindChoice(id uint) *Choice {
	for i := range q.Choices {
		if q.Choices[i].ID == id {
			return &q.Choices[i]
		}
	}
	return nil
}

// swagger:model Choice
type Choice struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"size:200;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
	Position   int    `gorm:"default:0" json:"position"`
}

func (Choice) TableName() string {
	return "choices"
}
