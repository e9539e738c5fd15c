package service

import (
	"context"
	"fmt"
	"survey_backend/internal/model"
	"survey_backend/internal/testutil"
	"survey_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := testutil.Teacher(t, f.db, "mrs_cruz")
	survey := testutil.Survey(t, f.db, teacher, testutil.SurveyOpts{Title: "Pulse"})
	likert := testutil.Question(t, f.db, survey, model.QuestionLikert, "How was it?", []string{"Bad", "OK", "Great"})
	text := testutil.Question(t, f.db, survey, model.QuestionText, "Why?", nil)

	picks := map[string]int{"ana": 2, "ben": 2, "carla": 1}
	for name, pick := range picks {
		s := testutil.Student(t, f.db, name, nil)
		raw := map[uint]string{likert.ID: fmt.Sprint(likert.Choices[pick].ID)}
		if name == "ana" {
			raw[text.ID] = "fun"
		}
		_, err := f.submission.Submit(ctx, s.ID, survey.ID, raw)
		require.NoError(t, err)
	}

	summary, err := f.summary.Summary(ctx, teacher.ID, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pulse", summary.Title)
	assert.Equal(t, int64(3), summary.TotalResponses)
	require.Len(t, summary.Questions, 2)

	lq := summary.Questions[0]
	assert.Equal(t, int64(3), lq.Answered)
	require.Len(t, lq.Choices, 3)
	assert.Equal(t, int64(0), lq.Choices[0].Count)
	assert.Equal(t, int64(1), lq.Choices[1].Count)
	assert.Equal(t, int64(2), lq.Choices[2].Count)

	tq := summary.Questions[1]
	assert.Equal(t, int64(1), tq.Answered)
	assert.Empty(t, tq.Choices)

	other := testutil.Teacher(t, f.db, "mr_lee")
	_, err = f.summary.Summary(ctx, other.ID, survey.ID)
	assert.ErrorIs(t, err, util.ErrNotAuthorized)

	// no cache configured: invalidation is a no-op
	f.summary.Invalidate(ctx, survey.ID)
}
