package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuserp/registry-api/internal/models"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
)

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	f.users[id].LastLogin = &ts
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	f.users[id].PasswordHash = passwordHash
	f.users[id].UpdatedAt = updatedAt
	return nil
}

func (f *fakeUserRepo) RecordFailedAttempt(ctx context.Context, id string) (int, error) {
	f.users[id].FailedAttempts++
	return f.users[id].FailedAttempts, nil
}

func (f *fakeUserRepo) ResetFailedAttempts(ctx context.Context, id string) error {
	f.users[id].FailedAttempts = 0
	f.users[id].LockedUntil = nil
	return nil
}

func (f *fakeUserRepo) LockUntil(ctx context.Context, id string, until time.Time) error {
	f.users[id].LockedUntil = &until
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeUserRepo{users: map[string]*models.User{
		"usr-1": {
			ID:           "usr-1",
			Email:        "student@univ.edu",
			PasswordHash: string(hash),
			FullName:     "Test Student",
			Role:         models.RoleStudent,
			Active:       true,
		},
	}}
	svc := NewAuthService(repo, openGate{}, nil, nil, AuthConfig{
		TokenSecret:       "test-secret",
		TokenExpiry:       time.Hour,
		Issuer:            "registry-api",
		MaxFailedAttempts: 3,
		LockoutDuration:   15 * time.Minute,
	})
	return svc, repo
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@univ.edu",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleStudent, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginWrongPasswordCountsAttempts(t *testing.T) {
	svc, repo := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@univ.edu",
		Password: "wrong",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "2 attempts remaining")
	assert.Equal(t, 1, repo.users["usr-1"].FailedAttempts)
}

func TestLoginLocksAfterMaxAttempts(t *testing.T) {
	svc, repo := newAuthFixture(t)

	for i := 0; i < 2; i++ {
		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email:    "student@univ.edu",
			Password: "wrong",
		})
		require.Error(t, err)
	}

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@univ.edu",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountLocked.Code, appErrors.FromError(err).Code)
	require.NotNil(t, repo.users["usr-1"].LockedUntil)

	// The right password is still rejected while the lock holds.
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@univ.edu",
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountLocked.Code, appErrors.FromError(err).Code)
}

func TestLoginSuccessResetsAttempts(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.users["usr-1"].FailedAttempts = 2

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@univ.edu",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.users["usr-1"].FailedAttempts)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@univ.edu",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.users["usr-1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@univ.edu",
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestChangePasswordVerifiesOldPassword(t *testing.T) {
	svc, repo := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "usr-1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "brand-new-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), "usr-1", models.ChangePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "brand-new-password",
	})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["usr-1"].PasswordHash), []byte("brand-new-password")))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
