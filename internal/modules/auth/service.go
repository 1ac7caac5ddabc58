package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
	jwtsvc "tourrental/internal/pkg/jwt"
	"tourrental/internal/pkg/logger"
)

type Service struct {
	users UserRepository
	jwt   TokenIssuer
	log   *logger.Logger
}

type LoginResult struct {
	User        *domain.UserSummary `json:"user"`
	AccessToken string              `json:"access_token"`
}

func NewService(users UserRepository, jwt TokenIssuer, log *logger.Logger) *Service {
	return &Service{users: users, jwt: jwt, log: log.With("service", "Auth")}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(dbctx.New(ctx), req.Email)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.Warn("failed login", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if errors.Is(err, jwtsvc.ErrUnknownRole) {
		s.log.Warn("login refused for non-staff role", "user_id", user.ID, "role", user.Role)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user.Summary(), AccessToken: token}, nil
}

// CreateStaff registers a back-office user. Only admins reach it.
func (s *Service) CreateStaff(ctx context.Context, req CreateStaffRequest) (*domain.UserSummary, error) {
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Role:         domain.UserRole(req.Role),
	}
	if err := s.users.Create(dbctx.New(ctx), user); err != nil {
		if apperr.IsCode(err, apperr.CodeConflict) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	s.log.Info("staff user created", "user_id", user.ID, "role", user.Role)
	return user.Summary(), nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*domain.UserSummary, error) {
	user, err := s.users.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		return nil, err
	}
	return user.Summary(), nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsCredentialsError reports whether err should be answered with 401.
func IsCredentialsError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}
