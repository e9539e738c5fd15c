// Package testutil sets up in-memory databases and fixtures for package tests.
package testutil

import (
	"survey_backend/internal/model"
	"survey_backend/pkg/database"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err, "Failed to open database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.Migrate(db), "Failed to migrate")

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

func Section(t *testing.T, db *gorm.DB, name string) *model.Section {
	t.Helper()
	s := &model.Section{Name: name, Description: "Section " + name}
	require.NoError(t, db.Create(s).Error)
	return s
}

// Password is the plain-text password of every fixture user.
const Password = "password123"

func user(t *testing.T, db *gorm.DB, username string, role model.UserRole, sectionID *uint) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &model.User{
		Username:  username,
		Email:     username + "@school.test",
		FirstName: username,
		LastName:  "Tester",
		Password:  string(hash),
		IsActive:  true,
	}
	require.NoError(t, db.Omit("Profile").Create(u).Error)
	p := &model.Profile{UserID: u.ID, Role: role, SectionID: sectionID}
	require.NoError(t, db.Omit("Section").Create(p).Error)
	u.Profile = p
	return u
}

// Student creates an active student. section may be nil.
func Student(t *testing.T, db *gorm.DB, username string, section *model.Section) *model.User {
	t.Helper()
	var sectionID *uint
	if section != nil {
		id := section.ID
		sectionID = &id
	}
	return user(t, db, username, model.Student, sectionID)
}

func Teacher(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	return user(t, db, username, model.Teacher, nil)
}

// SurveyOpts describes a fixture survey. The zero value is an active,
// unassigned survey without a due date.
type SurveyOpts struct {
	Title    string
	Inactive bool
	DueDate  *time.Time
	Sections []*model.Section
	// CreatedAt overrides the creation time, for ordering tests.
	CreatedAt time.Time
}

func Survey(t *testing.T, db *gorm.DB, owner *model.User, opts SurveyOpts) *model.Survey {
	t.Helper()
	title := opts.Title
	if title == "" {
		title = "Survey"
	}
	s := &model.Survey{
		Title:       title,
		IsActive:    !opts.Inactive,
		CreatedByID: owner.ID,
	}
	if !opts.CreatedAt.IsZero() {
		s.CreatedAt = opts.CreatedAt
	}
	if opts.DueDate != nil {
		d := datatypes.Date(*opts.DueDate)
		s.DueDate = &d
	}
	require.NoError(t, db.Omit("AssignedSections", "Questions", "CreatedBy").Create(s).Error)
	for _, sec := range opts.Sections {
		require.NoError(t, db.Create(&model.SurveySection{SurveyID: s.ID, SectionID: sec.ID}).Error)
		s.AssignedSections = append(s.AssignedSections, *sec)
	}
	return s
}

// Question adds a question with the given choice texts. correct holds the
// indexes of the choices flagged correct.
func Question(t *testing.T, db *gorm.DB, survey *model.Survey, qt model.QuestionType, text string, choices []string, correct ...int) *model.Question {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Question{}).Where("survey_id = ?", survey.ID).Count(&count).Error)

	q := &model.Question{
		SurveyID:     survey.ID,
		Text:         text,
		QuestionType: qt,
		Position:     int(count),
	}
	require.NoError(t, db.Omit("Choices").Create(q).Error)

	isCorrect := make(map[int]bool, len(correct))
	for _, i := range correct {
		isCorrect[i] = true
	}
	for i, c := range choices {
		choice := model.Choice{QuestionID: q.ID, Text: c, IsCorrect: isCorrect[i], Position: i}
		require.NoError(t, db.Create(&choice).Error)
		q.Choices = append(q.Choices, choice)
	}
	survey.Questions = append(survey.Questions, *q)
	return q
}

// Date returns midnight UTC of the given calendar day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
