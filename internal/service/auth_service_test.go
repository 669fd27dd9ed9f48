package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
)

type mockAuthRepo struct {
	mock.Mock
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = uuid.New()
		user.IsActive = true
	}
	return args.Error(0)
}

func (m *mockAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockAuthRepo) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockAuthRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockAuthRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *mockAuthRepo) DeleteSessionByID(ctx context.Context, sessionID, userID uuid.UUID) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *mockAuthRepo) List(ctx context.Context, role string, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, role, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

type mockEmailVerifier struct {
	mock.Mock
}

func (m *mockEmailVerifier) RequestEmailVerification(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func testTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func existingUser(email, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     "sam",
		PasswordHash: string(hash),
		Role:         models.RoleFreelancer,
		IsActive:     true,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	verifier := new(mockEmailVerifier)
	svc := NewAuthService(repo, testTokenManager(), verifier)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "new@example.com").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	verifier.On("RequestEmailVerification", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "new@example.com",
		Password: "Sup3rSecret!",
		Role:     models.RoleClient,
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.RoleClient, result.User.Role)
	assert.Equal(t, "new", result.User.Username)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
	verifier.AssertCalled(t, "RequestEmailVerification", ctx, mock.Anything)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager(), nil)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "taken@example.com").
		Return(existingUser("taken@example.com", "whatever1"), nil)

	_, err := svc.Register(ctx, RegisterInput{Email: "taken@example.com", Password: "Sup3rSecret!"}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_UnknownRoleDefaultsToFreelancer(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager(), nil)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "dev@example.com").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "dev@example.com",
		Password: "Sup3rSecret!",
		Role:     "admin",
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.RoleFreelancer, result.User.Role)
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager(), nil)
	ctx := context.Background()

	user := existingUser("sam@example.com", "Sup3rSecret!")
	repo.On("GetByEmail", ctx, "sam@example.com").Return(user, nil)
	repo.On("UpdateLastLoginAt", ctx, user.ID).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "Sup3rSecret!"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager(), nil)
	ctx := context.Background()

	user := existingUser("sam@example.com", "Sup3rSecret!")
	repo.On("GetByEmail", ctx, "sam@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "wrong-pass"}, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager(), nil)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound)

	_, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever1"}, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager(), nil)
	ctx := context.Background()

	user := existingUser("sam@example.com", "Sup3rSecret!")
	user.IsActive = false
	repo.On("GetByEmail", ctx, "sam@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "Sup3rSecret!"}, nil)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	repo := new(mockAuthRepo)
	manager := testTokenManager()
	svc := NewAuthService(repo, manager, nil)
	ctx := context.Background()

	user := existingUser("sam@example.com", "Sup3rSecret!")
	pair, _, _, err := manager.GeneratePair(user)
	assert.NoError(t, err)

	session := &models.Session{ID: uuid.New(), UserID: user.ID, RefreshToken: pair.RefreshToken}
	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(session, nil)
	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("DeleteSession", ctx, pair.RefreshToken).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken, nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, fresh.RefreshToken)
	repo.AssertCalled(t, "DeleteSession", ctx, pair.RefreshToken)
}

func TestAuthService_Refresh_UnknownSession(t *testing.T) {
	repo := new(mockAuthRepo)
	manager := testTokenManager()
	svc := NewAuthService(repo, manager, nil)
	ctx := context.Background()

	user := existingUser("sam@example.com", "Sup3rSecret!")
	pair, _, _, err := manager.GeneratePair(user)
	assert.NoError(t, err)

	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(nil, repository.ErrUserNotFound)

	_, err = svc.Refresh(ctx, pair.RefreshToken, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestAuthService_ListUsers_ClampsLimit(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager(), nil)
	ctx := context.Background()

	repo.On("List", ctx, models.RoleFreelancer, 20, 0).
		Return([]models.User{{ID: uuid.New()}}, nil)

	users, err := svc.ListUsers(ctx, models.RoleFreelancer, 500, 0)
	assert.NoError(t, err)
	assert.Len(t, users, 1)
	repo.AssertCalled(t, "List", ctx, models.RoleFreelancer, 20, 0)
}
