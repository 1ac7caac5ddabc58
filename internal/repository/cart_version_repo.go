package repository

import (
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
)

type CartVersionRepository struct {
	db *gorm.DB
}

func NewCartVersionRepository(db *gorm.DB) *CartVersionRepository {
	return &CartVersionRepository{db: db}
}

// MaxVersion returns the highest version stored for the booking, 0 when none.
func (r *CartVersionRepository) MaxVersion(dbc dbctx.Context, bookingID uuid.UUID) (int, error) {
	var max sql.NullInt64
	err := dbc.DB(r.db).Model(&domain.CartVersion{}).
		Select("MAX(version)").
		Where("booking_id = ?", bookingID).
		Row().
		Scan(&max)
	if err != nil {
		return 0, apperr.MapError("cart_version.max", err)
	}
	return int(max.Int64), nil
}

func (r *CartVersionRepository) Create(dbc dbctx.Context, v *domain.CartVersion) error {
	if err := dbc.DB(r.db).Create(v).Error; err != nil {
		return apperr.MapError("cart_version.create", err)
	}
	return nil
}

func (r *CartVersionRepository) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.CartVersion, error) {
	var v domain.CartVersion
	if err := dbc.DB(r.db).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, apperr.MapError("cart_version.get", err)
	}
	return &v, nil
}

func (r *CartVersionRepository) ListByBooking(dbc dbctx.Context, bookingID uuid.UUID) ([]domain.CartVersion, error) {
	var versions []domain.CartVersion
	err := dbc.DB(r.db).Where("booking_id = ?", bookingID).Order("version asc").Find(&versions).Error
	if err != nil {
		return nil, apperr.MapError("cart_version.list", err)
	}
	return versions, nil
}
