package auth

import (
	"github.com/google/uuid"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/dbctx"
)

type UserRepository interface {
	Create(dbc dbctx.Context, u *domain.User) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*domain.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, role string) (string, error)
}
