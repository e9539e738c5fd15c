package service

import (
	"context"
	"survey_backend/internal/model"
	"survey_backend/internal/testutil"
	"survey_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registration(username string, sectionID *uint) RegisterRequest {
	return RegisterRequest{
		Username:        username,
		Email:           username + "@School.test",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
		SectionID:       sectionID,
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sec := testutil.Section(t, f.db, "10A")

	user, err := f.auth.Register(ctx, registration("ana", &sec.ID))
	require.NoError(t, err)
	assert.Equal(t, "ana@school.test", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.Password)
	require.True(t, user.Profile.IsStudent())
	assert.Equal(t, sec.ID, *user.Profile.SectionID)

	var profiles int64
	require.NoError(t, f.db.Model(&model.Profile{}).Where("user_id = ?", user.ID).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)

	teacherReq := registration("mrs_cruz", &sec.ID)
	teacherReq.Role = string(model.Teacher)
	teacher, err := f.auth.Register(ctx, teacherReq)
	require.NoError(t, err)
	assert.True(t, teacher.Profile.IsTeacher())
	assert.Nil(t, teacher.Profile.SectionID)

	t.Run("student needs a section", func(t *testing.T) {
		_, err := f.auth.Register(ctx, registration("ben", nil))
		assert.ErrorIs(t, err, util.ErrValidation)
		missing := uint(9999)
		_, err = f.auth.Register(ctx, registration("ben", &missing))
		assert.ErrorIs(t, err, util.ErrValidation)
	})

	t.Run("duplicates", func(t *testing.T) {
		_, err := f.auth.Register(ctx, registration("ana", &sec.ID))
		assert.ErrorIs(t, err, util.ErrUsernameTaken)

		req := registration("ana2", &sec.ID)
		req.Email = "ANA@school.test"
		_, err = f.auth.Register(ctx, req)
		assert.ErrorIs(t, err, util.ErrEmailRegistered)
	})

	t.Run("invalid input", func(t *testing.T) {
		req := registration("carla", &sec.ID)
		req.ConfirmPassword = "different"
		_, err := f.auth.Register(ctx, req)
		assert.ErrorIs(t, err, util.ErrValidation)

		req = registration("carla", &sec.ID)
		req.Role = "admin"
		_, err = f.auth.Register(ctx, req)
		assert.ErrorIs(t, err, util.ErrValidation)
	})
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := testutil.Student(t, f.db, "ana", nil)

	result, err := f.auth.Login(ctx, "ana", testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, result.User.ID)

	claims, err := util.ParseJWT(result.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, claims.UserID)
	assert.Equal(t, model.Student, claims.Role)

	_, err = f.auth.Login(ctx, "ana", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody", testutil.Password)
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", ana.ID).Update("is_active", false).Error)
	_, err = f.auth.Login(ctx, "ana", testutil.Password)
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestRepairProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	legacy := &model.User{Username: "legacy", Email: "legacy@school.test", Password: "x", IsActive: true}
	require.NoError(t, f.db.Omit("Profile").Create(legacy).Error)

	n, err := f.auth.RepairProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
