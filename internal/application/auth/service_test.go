package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/memphis-pe/oc-api/internal/domain"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	args := m.Called(ctx, sessionID, newToken, newExpiry)
	return args.Error(0)
}

func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	args := m.Called(ctx, sessionID, updates)
	return args.Error(0)
}

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) Sign(userID, email, role, sessionID string) (string, error) {
	args := m.Called(userID, email, role, sessionID)
	return args.String(0), args.Error(1)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister_NewUser(t *testing.T) {
	users := new(mockUserStore)
	users.On("GetByEmail", mock.Anything, "maria@memphis.pe").Return(nil, domain.ErrNotFound)
	users.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "maria@memphis.pe" && u.Role == domain.RoleUser && u.Enable &&
			u.PasswordHash != "" && u.PasswordHash != "secreta123"
	})).Return(nil)

	svc := NewService(users, new(mockSessionStore), new(mockSigner))
	u, err := svc.Register(context.Background(), domain.RegisterUserRequest{
		Email:    "maria@memphis.pe",
		Nombre:   "María",
		Password: "secreta123",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	users.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(mockUserStore)
	users.On("GetByEmail", mock.Anything, "maria@memphis.pe").
		Return(&domain.User{UserID: "u1"}, nil)

	svc := NewService(users, new(mockSessionStore), new(mockSigner))
	_, err := svc.Register(context.Background(), domain.RegisterUserRequest{
		Email:    "maria@memphis.pe",
		Nombre:   "María",
		Password: "secreta123",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLogin_Success(t *testing.T) {
	users := new(mockUserStore)
	users.On("GetByEmail", mock.Anything, "maria@memphis.pe").Return(&domain.User{
		UserID:       "u1",
		Email:        "maria@memphis.pe",
		Role:         domain.RoleUser,
		Enable:       true,
		PasswordHash: hashOf(t, "secreta123"),
	}, nil)

	sessions := new(mockSessionStore)
	sessions.On("Put", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool {
		return s.UserID == "u1" && s.Enable && s.RefreshToken != ""
	})).Return(nil)

	signer := new(mockSigner)
	signer.On("Sign", "u1", "maria@memphis.pe", domain.RoleUser, mock.Anything).
		Return("bearer-token", nil)

	svc := NewService(users, sessions, signer)
	res, err := svc.Login(context.Background(), LoginRequest{Email: "maria@memphis.pe", Password: "secreta123"})

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", res.Bearer)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "u1", res.Session.User.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(mockUserStore)
	users.On("GetByEmail", mock.Anything, "maria@memphis.pe").Return(&domain.User{
		UserID:       "u1",
		Enable:       true,
		PasswordHash: hashOf(t, "secreta123"),
	}, nil)

	svc := NewService(users, new(mockSessionStore), new(mockSigner))
	_, err := svc.Login(context.Background(), LoginRequest{Email: "maria@memphis.pe", Password: "otra"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_DisabledAccount(t *testing.T) {
	users := new(mockUserStore)
	users.On("GetByEmail", mock.Anything, "maria@memphis.pe").Return(&domain.User{
		UserID:       "u1",
		Enable:       false,
		PasswordHash: hashOf(t, "secreta123"),
	}, nil)

	svc := NewService(users, new(mockSessionStore), new(mockSigner))
	_, err := svc.Login(context.Background(), LoginRequest{Email: "maria@memphis.pe", Password: "secreta123"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_RotatesToken(t *testing.T) {
	sessions := new(mockSessionStore)
	sessions.On("GetByRefreshToken", mock.Anything, "old-token").Return(&domain.Session{
		SessionID:        "s1",
		UserID:           "u1",
		Enable:           true,
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	sessions.On("RotateRefreshToken", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil)

	users := new(mockUserStore)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", Email: "maria@memphis.pe", Role: domain.RoleUser,
	}, nil)

	signer := new(mockSigner)
	signer.On("Sign", "u1", "maria@memphis.pe", domain.RoleUser, "s1").Return("new-bearer", nil)

	svc := NewService(users, sessions, signer)
	bearer, newToken, err := svc.Refresh(context.Background(), "old-token")

	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEqual(t, "old-token", newToken)
	sessions.AssertExpectations(t)
}

func TestRefresh_Expired(t *testing.T) {
	sessions := new(mockSessionStore)
	sessions.On("GetByRefreshToken", mock.Anything, "old-token").Return(&domain.Session{
		SessionID:        "s1",
		UserID:           "u1",
		Enable:           true,
		RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}, nil)

	svc := NewService(new(mockUserStore), sessions, new(mockSigner))
	_, _, err := svc.Refresh(context.Background(), "old-token")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	sessions.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
