package model

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrAnswerTypeMismatch  = errors.New("answer kind does not match question type")
	ErrChoiceNotInQuestion = errors.New("choice does not belong to question")
	ErrEmptyAnswer         = errors.New("answer text is empty")
	ErrInvalidAnswer       = errors.New("answer must carry exactly one of selected choice or text")
)

type AnswerKind uint8

const (
	// AnswerOrphaned is an answer whose selected choice was deleted after submission.
	AnswerOrphaned AnswerKind = iota
	AnswerChoice
	AnswerText
)

// AnswerValue is the payload of an answer: either a selected choice or free
// text, never both. Values are built with NewChoiceAnswer or NewTextAnswer.
type AnswerValue struct {
	kind     AnswerKind
	choiceID uint
	text     string
}

func NewChoiceAnswer(q *Question, choiceID uint) (AnswerValue, error) {
	if !q.QuestionType.RequiresChoice() {
		return AnswerValue{}, ErrAnswerTypeMismatch
	}
	if q.FindChoice(choiceID) == nil {
		return AnswerValue{}, ErrChoiceNotInQuestion
	}
	return AnswerValue{kind: AnswerChoice, choiceID: choiceID}, nil
}

// NewTextAnswer trims raw and rejects it when nothing is left.
func NewTextAnswer(q *Question, raw string) (AnswerValue, error) {
	if q.QuestionType != QuestionText {
		return AnswerValue{}, ErrAnswerTypeMismatch
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return AnswerValue{}, ErrEmptyAnswer
	}
	return AnswerValue{kind: AnswerText, text: text}, nil
}

func (v AnswerValue) Kind() AnswerKind {
	return v.kind
}

func (v AnswerValue) ChoiceID() (uint, bool) {
	return v.choiceID, v.kind == AnswerChoice
}

func (v AnswerValue) Text() (string, bool) {
	return v.text, v.kind == AnswerText
}

// swagger:model Answer
type Answer struct {
	BaseModel
	ResponseID       uint      `gorm:"index;not null" json:"responseId"`
	QuestionID       uint      `gorm:"index;not null" json:"questionId"`
	Question         *Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"question,omitempty"`
	SelectedChoiceID *uint     `gorm:"index" json:"selectedChoiceId"`
	SelectedChoice   *Choice   `gorm:"foreignKey:SelectedChoiceID;constraint:OnDelete:SET NULL" json:"selectedChoice,omitempty"`
	TextAnswer       *string   `gorm:"type:text" json:"textAnswer"`
}

func (Answer) TableName() string {
	return "answers"
}

func NewAnswer(responseID, questionID uint, v AnswerValue) Answer {
	a := Answer{ResponseID: responseID, QuestionID: questionID}
	switch v.kind {
	case AnswerChoice:
		id := v.choiceID
		a.SelectedChoiceID = &id
	case AnswerText:
		text := v.text
		a.TextAnswer = &text
	}
	return a
}

// Value rebuilds the payload of a stored answer.
func (a *Answer) Value() AnswerValue {
	switch {
	case a.SelectedChoiceID != nil:
		return AnswerValue{kind: AnswerChoice, choiceID: *a.SelectedChoiceID}
	case a.TextAnswer != nil:
		return AnswerValue{kind: AnswerText, text: *a.TextAnswer}
	}
	return AnswerValue{kind: AnswerOrphaned}
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if (a.SelectedChoiceID == nil) == (a.TextAnswer == nil) {
		return ErrInvalidAnswer
	}
	return nil
}
