package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/pkg/jwt"
	"tourrental/internal/pkg/logger"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(dbc dbctx.Context, u *domain.User) error {
	args := m.Called(dbc, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(dbc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(dbc dbctx.Context, email string) (*domain.User, error) {
	args := m.Called(dbc, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLogin_Success(t *testing.T) {
	repo := new(mockUserRepo)
	tokens := jwt.New("test-secret", time.Hour)
	svc := NewService(repo, tokens, logger.Nop())

	user := &domain.User{ID: uuid.New(), Email: "manager@example.com", PasswordHash: hashed(t, "secret123"), Role: domain.RoleManager}
	repo.On("GetByEmail", mock.Anything, "manager@example.com").Return(user, nil)

	res, err := svc.Login(context.Background(), LoginRequest{Email: "manager@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	claims, err := tokens.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	repo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, jwt.New("test-secret", time.Hour), logger.Nop())

	user := &domain.User{ID: uuid.New(), Email: "a@example.com", PasswordHash: hashed(t, "right-password")}
	repo.On("GetByEmail", mock.Anything, "a@example.com").Return(user, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_NonStaffRole(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, jwt.New("test-secret", time.Hour), logger.Nop())

	user := &domain.User{ID: uuid.New(), Email: "c@example.com", PasswordHash: hashed(t, "secret123"), Role: domain.RoleClient}
	repo.On("GetByEmail", mock.Anything, "c@example.com").Return(user, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "c@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, jwt.New("test-secret", time.Hour), logger.Nop())
	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperr.NotFound("user.get_by_email", "not found"))

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "x"})
	assert.True(t, IsCredentialsError(err))
}

func TestCreateStaff_HashesPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, jwt.New("test-secret", time.Hour), logger.Nop())

	var stored *domain.User
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.User) }).
		Return(nil)

	summary, err := svc.CreateStaff(context.Background(), CreateStaffRequest{
		Name: "Agent Smith", Email: " Agent@Example.com ", Password: "longenough", Role: "agent",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, summary.Role)
	assert.Equal(t, "agent@example.com", stored.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("longenough")))
}

func TestCreateStaff_DuplicateEmail(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, jwt.New("test-secret", time.Hour), logger.Nop())
	repo.On("Create", mock.Anything, mock.Anything).Return(apperr.New(apperr.CodeConflict, "user.create", "duplicate", nil))

	_, err := svc.CreateStaff(context.Background(), CreateStaffRequest{Name: "Dup", Email: "d@example.com", Password: "longenough", Role: "manager"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}
