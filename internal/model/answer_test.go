package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcq() *Question {
	q := &Question{QuestionType: QuestionMCQ}
	q.ID = 1
	for i, text := range []string{"A", "B"} {
		c := Choice{QuestionID: 1, Text: text}
		c.ID = uint(10 + i)
		q.Choices = append(q.Choices, c)
	}
	return q
}

func TestNewChoiceAnswer(t *testing.T) {
	q := mcq()

	v, err := NewChoiceAnswer(q, 11)
	require.NoError(t, err)
	assert.Equal(t, AnswerChoice, v.Kind())
	id, ok := v.ChoiceID()
	assert.True(t, ok)
	assert.Equal(t, uint(11), id)
	_, ok = v.Text()
	assert.False(t, ok)

	_, err = NewChoiceAnswer(q, 99)
	assert.ErrorIs(t, err, ErrChoiceNotInQuestion)

	_, err = NewChoiceAnswer(&Question{QuestionType: QuestionText}, 10)
	assert.ErrorIs(t, err, ErrAnswerTypeMismatch)
}

func TestNewTextAnswer(t *testing.T) {
	q := &Question{QuestionType: QuestionText}

	v, err := NewTextAnswer(q, "  more labs please \n")
	require.NoError(t, err)
	text, ok := v.Text()
	assert.True(t, ok)
	assert.Equal(t, "more labs please", text)

	_, err = NewTextAnswer(q, "   ")
	assert.ErrorIs(t, err, ErrEmptyAnswer)

	_, err = NewTextAnswer(mcq(), "A")
	assert.ErrorIs(t, err, ErrAnswerTypeMismatch)
}

func TestNewAnswerCarriesOnePayload(t *testing.T) {
	q := mcq()
	v, err := NewChoiceAnswer(q, 10)
	require.NoError(t, err)

	a := NewAnswer(5, q.ID, v)
	assert.Equal(t, uint(5), a.ResponseID)
	require.NotNil(t, a.SelectedChoiceID)
	assert.Equal(t, uint(10), *a.SelectedChoiceID)
	assert.Nil(t, a.TextAnswer)
	assert.NoError(t, a.BeforeCreate(nil))

	round := a.Value()
	id, ok := round.ChoiceID()
	assert.True(t, ok)
	assert.Equal(t, uint(10), id)
}

func TestAnswerBeforeCreateRejectsInvalidPayload(t *testing.T) {
	empty := &Answer{}
	assert.ErrorIs(t, empty.BeforeCreate(nil), ErrInvalidAnswer)

	choice := uint(1)
	text := "both"
	both := &Answer{SelectedChoiceID: &choice, TextAnswer: &text}
	assert.ErrorIs(t, both.BeforeCreate(nil), ErrInvalidAnswer)
}

func TestOrphanedAnswer(t *testing.T) {
	a := &Answer{}
	assert.Equal(t, AnswerOrphaned, a.Value().Kind())
}

func TestQuestionTypes(t *testing.T) {
	assert.True(t, QuestionMCQ.RequiresChoice())
	assert.True(t, QuestionLikert.RequiresChoice())
	assert.False(t, QuestionText.RequiresChoice())
	assert.False(t, QuestionType("essay").Valid())

	assert.True(t, SurveyLikert.Valid())
	assert.False(t, SurveyType("poll").Valid())
	assert.True(t, Teacher.Valid())
	assert.False(t, UserRole("admin").Valid())
}

func TestProfileRolesOnNil(t *testing.T) {
	var p *Profile
	assert.False(t, p.IsStudent())
	assert.False(t, p.IsTeacher())
}
