package repository

import (
	"context"
	"survey_backend/internal/model"
	"survey_backend/internal/testutil"
	"survey_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionCreateAppendsPosition(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	teacher := testutil.Teacher(t, db, "mrs_cruz")
	survey := testutil.Survey(t, db, teacher, testutil.SurveyOpts{})

	first := &model.Question{SurveyID: survey.ID, Text: "Q1", QuestionType: model.QuestionText}
	require.NoError(t, repo.Create(ctx, first))
	second := &model.Question{
		SurveyID:     survey.ID,
		Text:         "Q2",
		QuestionType: model.QuestionMCQ,
		Choices:      []model.Choice{{Text: "A"}, {Text: "B", IsCorrect: true}},
	}
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)

	loaded, err := repo.FindInSurvey(ctx, survey.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Choices, 2)
	assert.Equal(t, "A", loaded.Choices[0].Text)
	assert.True(t, loaded.Choices[1].IsCorrect)

	_, err = repo.FindInSurvey(ctx, survey.ID+1, second.ID)
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}

func TestQuestionUpdateReplacesChoicesAndOrphansAnswers(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewQuestionRepository(db)
	responses := NewResponseRepository(db)
	ctx := context.Background()

	teacher := testutil.Teacher(t, db, "mrs_cruz")
	student := testutil.Student(t, db, "ana", nil)
	survey := testutil.Survey(t, db, teacher, testutil.SurveyOpts{})
	q := testutil.Question(t, db, survey, model.QuestionMCQ, "Pick", []string{"A", "B"}, 1)

	v, err := model.NewChoiceAnswer(q, q.Choices[1].ID)
	require.NoError(t, err)
	resp := &model.Response{SurveyID: survey.ID, StudentID: student.ID, SubmittedAt: time.Now().UTC()}
	require.NoError(t, responses.CreateWithAnswers(ctx, resp, []model.Answer{model.NewAnswer(0, q.ID, v)}))

	q.Text = "Pick again"
	require.NoError(t, repo.Update(ctx, q, []model.Choice{{Text: "C"}, {Text: "D", IsCorrect: true}}))

	loaded, err := repo.FindInSurvey(ctx, survey.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pick again", loaded.Text)
	require.Len(t, loaded.Choices, 2)
	assert.Equal(t, "C", loaded.Choices[0].Text)

	stored, err := responses.FindByStudentAndSurvey(ctx, student.ID, survey.ID)
	require.NoError(t, err)
	require.Len(t, stored.Answers, 1)
	assert.Nil(t, stored.Answers[0].SelectedChoiceID)
	assert.Equal(t, model.AnswerOrphaned, stored.Answers[0].Value().Kind())
}

func TestQuestionUpdateWithoutChoicesKeepsThem(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	teacher := testutil.Teacher(t, db, "mrs_cruz")
	survey := testutil.Survey(t, db, teacher, testutil.SurveyOpts{})
	q := testutil.Question(t, db, survey, model.QuestionLikert, "Rate", []string{"1", "2", "3"})
	ids := []uint{q.Choices[0].ID, q.Choices[1].ID, q.Choices[2].ID}

	q.Required = true
	require.NoError(t, repo.Update(ctx, q, nil))

	loaded, err := repo.FindInSurvey(ctx, survey.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Required)
	require.Len(t, loaded.Choices, 3)
	for i, c := range loaded.Choices {
		assert.Equal(t, ids[i], c.ID)
	}
}

func TestQuestionDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	teacher := testutil.Teacher(t, db, "mrs_cruz")
	survey := testutil.Survey(t, db, teacher, testutil.SurveyOpts{})
	q := testutil.Question(t, db, survey, model.QuestionMCQ, "Pick", []string{"A", "B"})

	require.NoError(t, repo.Delete(ctx, q))

	var choices int64
	require.NoError(t, db.Model(&model.Choice{}).Where("question_id = ?", q.ID).Count(&choices).Error)
	assert.Zero(t, choices)
	_, err := repo.FindInSurvey(ctx, survey.ID, q.ID)
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}
