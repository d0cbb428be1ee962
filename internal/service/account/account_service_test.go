package account

import (
	"context"
	"testing"
	"time"

	"github.com/FikranSE/bookingapp/internal/auth"
	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePushToken(ctx context.Context, id int64, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUserRepository) GetPushToken(ctx context.Context, id int64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Admin), args.Error(1)
}

func (m *MockAdminRepository) ListEmails(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAdminRepository) Ensure(ctx context.Context, admin *domain.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

func newService() (*AccountService, *MockUserRepository, *MockAdminRepository, *auth.Issuer) {
	users := &MockUserRepository{}
	admins := &MockAdminRepository{}
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return NewAccountService(users, admins, issuer, logger.Discard()), users, admins, issuer
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAccountService_Register(t *testing.T) {
	svc, users, _, issuer := newService()
	ctx := context.Background()

	users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "jane@example.com" && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = 5
	}).Return(nil).Once()

	session, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: " Jane@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), session.User.ID)

	p, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.Principal{ID: 5, Role: domain.RoleUser}, p)
	users.AssertExpectations(t)
}

func TestAccountService_Register_Validation(t *testing.T) {
	svc, _, _, _ := newService()
	ctx := context.Background()

	testCases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "longenough"}},
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "longenough"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "short"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestAccountService_Login(t *testing.T) {
	svc, users, _, _ := newService()
	ctx := context.Background()

	users.On("GetByEmail", ctx, "jane@example.com").Return(&domain.User{ID: 5, PasswordHash: hash(t, "correct horse")}, nil)
	users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrUserNotFound)

	session, err := svc.Login(ctx, "jane@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = svc.Login(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAccountService_AdminLogin(t *testing.T) {
	svc, _, admins, issuer := newService()
	ctx := context.Background()

	admins.On("GetByUsername", ctx, "root").Return(&domain.Admin{ID: 1, Username: "root", PasswordHash: hash(t, "adminpass")}, nil)

	session, err := svc.AdminLogin(ctx, "root", "adminpass")
	require.NoError(t, err)
	p, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())

	_, err = svc.AdminLogin(ctx, "root", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAccountService_UpdatePushToken(t *testing.T) {
	svc, users, _, _ := newService()
	ctx := context.Background()

	users.On("UpdatePushToken", ctx, int64(5), "ExponentPushToken[abc]").Return(nil).Once()
	users.On("UpdatePushToken", ctx, int64(5), "").Return(nil).Once()

	require.NoError(t, svc.UpdatePushToken(ctx, 5, "ExponentPushToken[abc]"))
	require.NoError(t, svc.UpdatePushToken(ctx, 5, ""))
	assert.ErrorIs(t, svc.UpdatePushToken(ctx, 5, "garbage"), domain.ErrValidation)
	users.AssertExpectations(t)
}

func TestAccountService_EnsureAdmin(t *testing.T) {
	svc, _, admins, _ := newService()
	ctx := context.Background()

	admins.On("Ensure", ctx, mock.MatchedBy(func(a *domain.Admin) bool {
		return a.Username == "admin" && a.Email == "admin@example.com"
	})).Return(nil).Once()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "adminpass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "", "", ""))
	admins.AssertExpectations(t)
}
