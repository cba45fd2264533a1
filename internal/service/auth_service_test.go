package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/seatwise/exam-seating-api/internal/models"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
)

type userRepoStub struct {
	users     map[string]*models.User
	lastLogin map[string]time.Time
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	stub := &userRepoStub{users: map[string]*models.User{}, lastLogin: map[string]time.Time{}}
	for _, user := range users {
		stub.users[user.Email] = user
	}
	return stub
}

func (r *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *userRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	r.lastLogin[id] = ts
	return nil
}

func testUser(t *testing.T, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        email,
		FullName:     "Exam Admin",
		PasswordHash: string(hash),
		Active:       active,
	}
}

func newAuthServiceForTest(t *testing.T, users ...*models.User) (*AuthService, *userRepoStub) {
	t.Helper()
	repo := newUserRepoStub(users...)
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "exam-seating-api",
	})
	return svc, repo
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, repo := newAuthServiceForTest(t, testUser(t, "admin@school.edu", "correct-horse", true))

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.edu", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "admin@school.edu", resp.User.Email)
	assert.Contains(t, repo.lastLogin, "user-1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin@school.edu", claims.Email)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, testUser(t, "admin@school.edu", "correct-horse", true))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.edu", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@school.edu", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, testUser(t, "admin@school.edu", "correct-horse", false))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.edu", Password: "correct-horse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInvalidPayload(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
