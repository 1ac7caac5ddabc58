package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(dbc dbctx.Context, b *domain.Booking) error {
	if err := dbc.DB(r.db).Omit(clause.Associations).Create(b).Error; err != nil {
		return apperr.MapError("booking.create", err)
	}
	return nil
}

// GetByID loads the booking with its active cart version.
func (r *BookingRepository) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking
	err := dbc.DB(r.db).Preload("ActiveCartVersion").Where("id = ?", id).First(&b).Error
	if err != nil {
		return nil, apperr.MapError("booking.get", err)
	}
	return &b, nil
}

// GetForUpdate row-locks the booking so concurrent cart edits of one booking serialize.
func (r *BookingRepository) GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&b).Error
	if err != nil {
		return nil, apperr.MapError("booking.get_for_update", err)
	}
	return &b, nil
}

func (r *BookingRepository) GetByNumber(dbc dbctx.Context, number string) (*domain.Booking, error) {
	var b domain.Booking
	if err := dbc.DB(r.db).Where("booking_number = ?", number).First(&b).Error; err != nil {
		return nil, apperr.MapError("booking.get_by_number", err)
	}
	return &b, nil
}

func (r *BookingRepository) SetActiveVersion(dbc dbctx.Context, id, versionID uuid.UUID) error {
	res := dbc.DB(r.db).Model(&domain.Booking{}).Where("id = ?", id).Update("active_cart_version_id", versionID)
	if res.Error != nil {
		return apperr.MapError("booking.set_active_version", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("booking.set_active_version", "booking not found")
	}
	return nil
}

// ListLegacy returns bookings that still only carry the pre-versioning cart string.
func (r *BookingRepository) ListLegacy(dbc dbctx.Context) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := dbc.DB(r.db).
		Where("active_cart_version_id IS NULL AND cart IS NOT NULL AND cart <> ''").
		Order("created_at asc").
		Find(&bookings).Error
	if err != nil {
		return nil, apperr.MapError("booking.list_legacy", err)
	}
	return bookings, nil
}
