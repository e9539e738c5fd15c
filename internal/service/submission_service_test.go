package service

import (
	"context"
	"fmt"
	"survey_backend/internal/config"
	"survey_backend/internal/model"
	"survey_backend/internal/testutil"
	"survey_backend/internal/util"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAnswers(t *testing.T) {
	mcq := model.Question{QuestionType: model.QuestionMCQ, Choices: []model.Choice{{Text: "A"}, {Text: "B"}}}
	mcq.ID = 1
	mcq.Choices[0].ID = 11
	mcq.Choices[1].ID = 12
	other := model.Question{QuestionType: model.QuestionLikert, Choices: []model.Choice{{Text: "1"}}}
	other.ID = 2
	other.Choices[0].ID = 21
	text := model.Question{QuestionType: model.QuestionText}
	text.ID = 3
	blank := model.Question{QuestionType: model.QuestionText}
	blank.ID = 4
	skipped := model.Question{QuestionType: model.QuestionText}
	skipped.ID = 5

	answers := BuildAnswers([]model.Question{mcq, other, text, blank, skipped}, map[uint]string{
		1:  "12",
		2:  "11", // a choice of question 1
		3:  "  keep the labs ",
		4:  "   ",
		99: "ignored",
	})

	require.Len(t, answers, 2)
	assert.Equal(t, uint(1), answers[0].QuestionID)
	require.NotNil(t, answers[0].SelectedChoiceID)
	assert.Equal(t, uint(12), *answers[0].SelectedChoiceID)
	assert.Equal(t, uint(3), answers[1].QuestionID)
	require.NotNil(t, answers[1].TextAnswer)
	assert.Equal(t, "keep the labs", *answers[1].TextAnswer)

	assert.Empty(t, BuildAnswers([]model.Question{mcq}, map[uint]string{1: "abc"}))
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *model.User, *model.Survey, *model.Question, *model.Question) {
		f := newFixture(t)
		sec := testutil.Section(t, f.db, "10A")
		teacher := testutil.Teacher(t, f.db, "mrs_cruz")
		student := testutil.Student(t, f.db, "ana", sec)
		survey := testutil.Survey(t, f.db, teacher, testutil.SurveyOpts{Sections: []*model.Section{sec}})
		mcq := testutil.Question(t, f.db, survey, model.QuestionMCQ, "Best tool?", []string{"Go", "Make"}, 0)
		text := testutil.Question(t, f.db, survey, model.QuestionText, "Comments", nil)
		return f, student, survey, mcq, text
	}

	t.Run("stores one answer per valid value", func(t *testing.T) {
		f, student, survey, mcq, text := setup(t)
		id, err := f.submission.Submit(ctx, student.ID, survey.ID, map[uint]string{
			mcq.ID:  fmt.Sprint(mcq.Choices[0].ID),
			text.ID: "more pair work",
		})
		require.NoError(t, err)
		assert.NotZero(t, id)

		var resp model.Response
		require.NoError(t, f.db.Preload("Answers").First(&resp, id).Error)
		assert.True(t, now.Equal(resp.SubmittedAt))
		assert.Len(t, resp.Answers, 2)
	})

	t.Run("second submission is rejected", func(t *testing.T) {
		f, student, survey, _, text := setup(t)
		_, err := f.submission.Submit(ctx, student.ID, survey.ID, map[uint]string{text.ID: "first"})
		require.NoError(t, err)

		_, err = f.submission.Submit(ctx, student.ID, survey.ID, map[uint]string{text.ID: "second"})
		assert.ErrorIs(t, err, util.ErrAlreadySubmitted)

		var count int64
		require.NoError(t, f.db.Model(&model.Response{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("concurrent submissions store one response", func(t *testing.T) {
		f, student, survey, _, text := setup(t)

		const n = 5
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.submission.Submit(ctx, student.ID, survey.ID, map[uint]string{text.ID: "hi"})
			}(i)
		}
		wg.Wait()

		accepted := 0
		for _, err := range errs {
			if err == nil {
				accepted++
				continue
			}
			assert.ErrorIs(t, err, util.ErrAlreadySubmitted)
		}
		assert.Equal(t, 1, accepted)
	})

	t.Run("invalid values are skipped", func(t *testing.T) {
		f, student, survey, mcq, text := setup(t)
		other := testutil.Survey(t, f.db, testutil.Teacher(t, f.db, "mr_lee"), testutil.SurveyOpts{})
		foreign := testutil.Question(t, f.db, other, model.QuestionMCQ, "Elsewhere", []string{"X"})

		id, err := f.submission.Submit(ctx, student.ID, survey.ID, map[uint]string{
			mcq.ID:  fmt.Sprint(foreign.Choices[0].ID),
			text.ID: "   ",
		})
		require.NoError(t, err)

		var answers int64
		require.NoError(t, f.db.Model(&model.Answer{}).Where("response_id = ?", id).Count(&answers).Error)
		assert.Zero(t, answers)
	})

	t.Run("teachers cannot submit", func(t *testing.T) {
		f, _, survey, _, _ := setup(t)
		teacher := testutil.Teacher(t, f.db, "mr_lee")
		_, err := f.submission.Submit(ctx, teacher.ID, survey.ID, nil)
		assert.ErrorIs(t, err, util.ErrNotAuthorized)
	})

	t.Run("unknown user is not authorized", func(t *testing.T) {
		f, _, survey, _, _ := setup(t)
		_, err := f.submission.Submit(ctx, 9999, survey.ID, nil)
		assert.ErrorIs(t, err, util.ErrNotAuthorized)
	})

	t.Run("missing survey", func(t *testing.T) {
		f, student, _, _, _ := setup(t)
		_, err := f.submission.Submit(ctx, student.ID, 9999, nil)
		assert.ErrorIs(t, err, util.ErrSurveyNotFound)
	})

	t.Run("survey of another section", func(t *testing.T) {
		f, _, survey, _, _ := setup(t)
		outsider := testutil.Student(t, f.db, "ben", testutil.Section(t, f.db, "10B"))
		_, err := f.submission.Submit(ctx, outsider.ID, survey.ID, nil)
		assert.ErrorIs(t, err, util.ErrNotAuthorized)

		f.settings.Set(f.settingsWithoutVisibility())
		_, err = f.submission.Submit(ctx, outsider.ID, survey.ID, nil)
		assert.NoError(t, err)
	})

	t.Run("past due survey", func(t *testing.T) {
		f, student, _, _, _ := setup(t)
		teacher := testutil.Teacher(t, f.db, "mr_lee")
		yesterday := testutil.Date(2026, 3, 9)
		late := testutil.Survey(t, f.db, teacher, testutil.SurveyOpts{DueDate: &yesterday})
		_, err := f.submission.Submit(ctx, student.ID, late.ID, nil)
		assert.ErrorIs(t, err, util.ErrNotAuthorized)
	})
}

func (f *fixture) settingsWithoutVisibility() (cfg config.SurveyConfig) {
	cfg = f.settings.Get()
	cfg.EnforceVisibilityOnSubmit = false
	return cfg
}
