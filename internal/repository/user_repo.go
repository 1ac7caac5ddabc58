package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(dbc dbctx.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := dbc.DB(r.db).Create(u).Error; err != nil {
		return apperr.MapError("user.create", err)
	}
	return nil
}

func (r *UserRepository) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := dbc.DB(r.db).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, apperr.MapError("user.get", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(dbc dbctx.Context, email string) (*domain.User, error) {
	var u domain.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := dbc.DB(r.db).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, apperr.MapError("user.get_by_email", err)
	}
	return &u, nil
}
