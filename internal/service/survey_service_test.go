package service

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

func TestCreateSurvey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := testutil.Teacher(t, f.db, "mrs_cruz")
	student := testutil.Student(t, f.db, "ana", nil)
	sec := testutil.Section(t, f.db, "10A")

	survey, err := f.surveys.CreateSurvey(ctx, teacher.ID, SurveyInput{
		Title:      "  Course feedback ",
		SurveyType: "likert",
		DueDate:    ptr("2026-03-20"),
		SectionIDs: []uint{sec.ID, 9999},
	})
	require.NoError(t, err)
	assert.Equal(t, "Course feedback", survey.Title)
	assert.True(t, survey.IsActive)
	require.NotNil(t, survey.SurveyType)
	assert.Equal(t, model.SurveyLikert, *survey.SurveyType)
	require.NotNil(t, survey.DueDate)
	assert.Equal(t, testutil.Date(2026, 3, 20), time.Time(*survey.DueDate))
	assert.Equal(t, []uint{sec.ID}, survey.SectionIDs())

	_, err = f.surveys.CreateSurvey(ctx, teacher.ID, SurveyInput{Title: "   "})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.surveys.CreateSurvey(ctx, teacher.ID, SurveyInput{Title: "T", SurveyType: "poll"})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.surveys.CreateSurvey(ctx, teacher.ID, SurveyInput{Title: "T", DueDate: ptr("20/03/2026")})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.surveys.CreateSurvey(ctx, student.ID, SurveyInput{Title: "T"})
	assert.ErrorIs(t, err, util.ErrNotAuthorized)
}

func TestUpdateSurvey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := testutil.Teacher(t, f.db, "mrs_cruz")
	other := testutil.Teacher(t, f.db, "mr_lee")
	sec := testutil.Section(t, f.db, "10A")
	due := testutil.Date(2026, 3, 20)
	survey := testutil.Survey(t, f.db, teacher, testutil.SurveyOpts{Title: "Old", DueDate: &due, Sections: []*model.Section{sec}})

	updated, err := f.surveys.UpdateSurvey(ctx, teacher.ID, survey.ID, SurveyUpdate{
		Title:    ptr("New"),
		IsActive: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.False(t, updated.IsActive)

	reloaded, err := f.surveys.GetSurvey(ctx, teacher.ID, survey.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.DueDate, "untouched fields are kept")
	assert.Equal(t, []uint{sec.ID}, reloaded.SectionIDs())

	_, err = f.surveys.UpdateSurvey(ctx, teacher.ID, survey.ID, SurveyUpdate{
		DueDate:    ptr(""),
		SectionIDs: &[]uint{},
	})
	require.NoError(t, err)
	reloaded, err = f.surveys.GetSurvey(ctx, teacher.ID, survey.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DueDate)
	assert.Empty(t, reloaded.SectionIDs())

	_, err = f.surveys.UpdateSurvey(ctx, teacher.ID, survey.ID, SurveyUpdate{Title: ptr(" ")})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.surveys.UpdateSurvey(ctx, other.ID, survey.ID, SurveyUpdate{Title: ptr("Mine")})
	assert.ErrorIs(t, err, util.ErrNotAuthorized)

	_, err = f.surveys.UpdateSurvey(ctx, teacher.ID, 9999, SurveyUpdate{})
	assert.ErrorIs(t, err, util.ErrSurveyNotFound)
}

func TestQuestionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := testutil.Teacher(t, f.db, "mrs_cruz")
	other := testutil.Teacher(t, f.db, "mr_lee")
	survey := testutil.Survey(t, f.db, teacher, testutil.SurveyOpts{})

	text, err := f.surveys.AddQuestion(ctx, teacher.ID, survey.ID, QuestionInput{
		Text:    "Anything else?",
		Choices: []ChoiceInput{{Text: "dropped"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.QuestionText, text.QuestionType)
	assert.Empty(t, text.Choices)

	mcq, err := f.surveys.AddQuestion(ctx, teacher.ID, survey.ID, QuestionInput{
		Text:         "Pick one",
		QuestionType: "mcq",
		Required:     true,
		Choices:      []ChoiceInput{{Text: "A"}, {Text: "  "}, {Text: "B", IsCorrect: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mcq.Position)
	require.Len(t, mcq.Choices, 2)
	assert.True(t, mcq.Choices[1].IsCorrect)

	_, err = f.surveys.AddQuestion(ctx, teacher.ID, survey.ID, QuestionInput{Text: "Bad", QuestionType: "essay"})
	assert.ErrorIs(t, err, util.ErrValidation)
	_, err = f.surveys.AddQuestion(ctx, other.ID, survey.ID, QuestionInput{Text: "Hijack"})
	assert.ErrorIs(t, err, util.ErrNotAuthorized)

	edited, err := f.surveys.EditQuestion(ctx, teacher.ID, survey.ID, mcq.ID, QuestionUpdate{Text: ptr("Pick wisely")})
	require.NoError(t, err)
	assert.Equal(t, "Pick wisely", edited.Text)
	assert.Len(t, edited.Choices, 2)

	edited, err = f.surveys.EditQuestion(ctx, teacher.ID, survey.ID, mcq.ID, QuestionUpdate{
		Choices: &[]ChoiceInput{{Text: "C", IsCorrect: true}},
	})
	require.NoError(t, err)
	require.Len(t, edited.Choices, 1)
	assert.Equal(t, "C", edited.Choices[0].Text)

	_, err = f.surveys.EditQuestion(ctx, teacher.ID, survey.ID, 9999, QuestionUpdate{Text: ptr("x")})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	require.NoError(t, f.surveys.DeleteQuestion(ctx, teacher.ID, survey.ID, text.ID))
	full, err := f.surveys.GetSurvey(ctx, teacher.ID, survey.ID)
	require.NoError(t, err)
	require.Len(t, full.Questions, 1)
	assert.Equal(t, mcq.ID, full.Questions[0].ID)
}

func TestTeacherDashboardAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := testutil.Teacher(t, f.db, "mrs_cruz")
	ana := testutil.Student(t, f.db, "ana", nil)

	active := testutil.Survey(t, f.db, teacher, testutil.SurveyOpts{Title: "Active"})
	testutil.Question(t, f.db, active, model.QuestionText, "Q", nil)
	testutil.Survey(t, f.db, teacher, testutil.SurveyOpts{Title: "Draft", Inactive: true})
	_, err := f.submission.Submit(ctx, ana.ID, active.ID, nil)
	require.NoError(t, err)

	d, err := f.surveys.TeacherDashboard(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, d.TotalSurveys)
	assert.Equal(t, 1, d.ActiveSurveys)
	assert.Equal(t, int64(1), d.TotalResponses)

	_, err = f.surveys.TeacherDashboard(ctx, ana.ID)
	assert.ErrorIs(t, err, util.ErrNotAuthorized)

	require.NoError(t, f.surveys.DeleteSurvey(ctx, teacher.ID, active.ID))
	_, err = f.surveys.GetSurvey(ctx, teacher.ID, active.ID)
	assert.ErrorIs(t, err, util.ErrSurveyNotFound)

	var responses int64
	require.NoError(t, f.db.Model(&model.Response{}).Count(&responses).Error)
	assert.Zero(t, responses)
}
