package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"survey_backend/internal/config"
	"survey_backend/internal/model"
	"survey_backend/internal/testutil"
	"survey_backend/internal/util"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "integration-test-secret-0123456789"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupApp(t *testing.T) (*App, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: "test"},
		JWT:       config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
		Storage:   config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
		Survey: config.SurveyConfig{
			Timezone:                  "UTC",
			ResponsesPageSize:         10,
			EnforceVisibilityOnSubmit: true,
		},
	}
	return New(cfg, db, nil), db
}

func token(t *testing.T, u *model.User) string {
	t.Helper()
	tok, err := util.GenerateJWT(u, u.Profile.Role, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, a *App, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestLoginAndAssignedSurveys(t *testing.T) {
	a, db := setupApp(t)
	sec := testutil.Section(t, db, "10A")
	teacher := testutil.Teacher(t, db, "mrs_cruz")
	testutil.Student(t, db, "ana", sec)
	assigned := testutil.Survey(t, db, teacher, testutil.SurveyOpts{Title: "Lab feedback", Sections: []*model.Section{sec}})
	testutil.Survey(t, db, teacher, testutil.SurveyOpts{Title: "Other", Sections: []*model.Section{testutil.Section(t, db, "10B")}})

	w, env := do(t, a, http.MethodPost, "/api/login", "", gin.H{"username": "ana", "password": testutil.Password})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	w, env = do(t, a, http.MethodGet, "/api/student/surveys", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		AssignedSurveys []struct {
			ID    uint   `json:"id"`
			Title string `json:"title"`
		} `json:"assignedSurveys"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.AssignedSurveys, 1)
	assert.Equal(t, assigned.ID, data.AssignedSurveys[0].ID)
	assert.Equal(t, "Lab feedback", data.AssignedSurveys[0].Title)

	w, _ = do(t, a, http.MethodPost, "/api/login", "", gin.H{"username": "ana", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitStatusCodes(t *testing.T) {
	a, db := setupApp(t)
	secA := testutil.Section(t, db, "10A")
	secB := testutil.Section(t, db, "10B")
	teacher := testutil.Teacher(t, db, "mrs_cruz")
	ana := testutil.Student(t, db, "ana", secA)
	ben := testutil.Student(t, db, "ben", secB)
	survey := testutil.Survey(t, db, teacher, testutil.SurveyOpts{Sections: []*model.Section{secA}})
	q := testutil.Question(t, db, survey, model.QuestionMCQ, "Pick", []string{"A", "B"})
	path := fmt.Sprintf("/api/surveys/%d/submit", survey.ID)
	body := gin.H{"answers": gin.H{fmt.Sprint(q.ID): q.Choices[0].ID}}

	w, env := do(t, a, http.MethodPost, path, token(t, ana), body)
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var created struct {
		ResponseID uint `json:"responseId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotZero(t, created.ResponseID)

	var stored model.Answer
	require.NoError(t, db.Where("response_id = ?", created.ResponseID).First(&stored).Error)
	require.NotNil(t, stored.SelectedChoiceID)
	assert.Equal(t, q.Choices[0].ID, *stored.SelectedChoiceID)

	w, _ = do(t, a, http.MethodPost, path, token(t, ana), body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, a, http.MethodPost, path, token(t, ben), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, a, http.MethodPost, path, token(t, teacher), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/surveys/9999/submit", token(t, ana), body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, a, http.MethodPost, path, "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTeacherRoutes(t *testing.T) {
	a, db := setupApp(t)
	sec := testutil.Section(t, db, "10A")
	teacher := testutil.Teacher(t, db, "mrs_cruz")
	ana := testutil.Student(t, db, "ana", sec)
	tok := token(t, teacher)

	w, env := do(t, a, http.MethodPost, "/api/teacher/surveys", tok, gin.H{
		"title":      "Unit 3 check-in",
		"surveyType": "multiple_choice",
		"sectionIds": []uint{sec.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var survey struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &survey))

	w, env = do(t, a, http.MethodPost, fmt.Sprintf("/api/teacher/surveys/%d/questions", survey.ID), tok, gin.H{
		"text":         "Which topic was hardest?",
		"questionType": "mcq",
		"choices":      []gin.H{{"text": "Recursion"}, {"text": "Closures", "isCorrect": true}},
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)

	w, _ = do(t, a, http.MethodPost, "/api/teacher/surveys", tok, gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a, http.MethodGet, "/api/teacher/surveys", token(t, ana), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = do(t, a, http.MethodGet, fmt.Sprintf("/api/teacher/surveys/%d/summary", survey.ID), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Questions []struct {
			Choices []struct {
				Text string `json:"text"`
			} `json:"choices"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	require.Len(t, summary.Questions, 1)
	assert.Len(t, summary.Questions[0].Choices, 2)

	w, _ = do(t, a, http.MethodGet, fmt.Sprintf("/api/surveys/%d", survey.ID), token(t, ana), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, a, http.MethodDelete, fmt.Sprintf("/api/teacher/surveys/%d", survey.ID), tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, a, http.MethodGet, fmt.Sprintf("/api/teacher/surveys/%d", survey.ID), tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicRoutes(t *testing.T) {
	a, db := setupApp(t)
	testutil.Section(t, db, "10A")

	w, _ := do(t, a, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, env := do(t, a, http.MethodGet, "/api/sections", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sections []model.Section
	require.NoError(t, json.Unmarshal(env.Data, &sections))
	require.Len(t, sections, 1)

	w, env = do(t, a, http.MethodPost, "/api/register", "", gin.H{
		"username":        "carla",
		"email":           "carla@school.test",
		"password":        "longenough",
		"confirmPassword": "longenough",
		"sectionId":       sections[0].ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)

	w, _ = do(t, a, http.MethodPost, "/api/register", "", gin.H{
		"username":        "carla",
		"email":           "carla2@school.test",
		"password":        "longenough",
		"confirmPassword": "longenough",
		"sectionId":       sections[0].ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}
