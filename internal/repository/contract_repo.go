package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
)

type ContractFilter struct {
	BookingNumber   string
	StatusID        *uuid.UUID
	ReservingUserID *uuid.UUID
	CreatedByUserID *uuid.UUID
	Limit           int
	Offset          int
}

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(dbc dbctx.Context, c *domain.Contract) error {
	if err := dbc.DB(r.db).Omit(clause.Associations).Create(c).Error; err != nil {
		return apperr.MapError("contract.create", err)
	}
	return nil
}

func (r *ContractRepository) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Contract, error) {
	var c domain.Contract
	if err := dbc.DB(r.db).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, apperr.MapError("contract.get", err)
	}
	return &c, nil
}

// GetPopulated loads the contract with booking (and its active cart version) and both users.
func (r *ContractRepository) GetPopulated(dbc dbctx.Context, id uuid.UUID) (*domain.Contract, error) {
	var c domain.Contract
	err := populate(dbc.DB(r.db)).Where("contracts.id = ?", id).First(&c).Error
	if err != nil {
		return nil, apperr.MapError("contract.get_populated", err)
	}
	return &c, nil
}

func (r *ContractRepository) GetByBookingID(dbc dbctx.Context, bookingID uuid.UUID) (*domain.Contract, error) {
	var c domain.Contract
	err := dbc.DB(r.db).Where("booking_id = ?", bookingID).Order("created_at asc").First(&c).Error
	if err != nil {
		return nil, apperr.MapError("contract.get_by_booking", err)
	}
	return &c, nil
}

// UpdateFields writes the given columns. Columns absent from fields are left untouched.
func (r *ContractRepository) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&domain.Contract{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return apperr.MapError("contract.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("contract.update", "contract not found")
	}
	return nil
}

func (r *ContractRepository) List(dbc dbctx.Context, f ContractFilter) ([]domain.Contract, int64, error) {
	q := dbc.DB(r.db).Model(&domain.Contract{})
	if number := strings.TrimSpace(f.BookingNumber); number != "" {
		q = q.Joins("JOIN bookings ON bookings.id = contracts.booking_id").
			Where("LOWER(bookings.booking_number) LIKE ?", "%"+strings.ToLower(number)+"%")
	}
	if f.StatusID != nil {
		q = q.Where("contracts.status_id = ?", *f.StatusID)
	}
	if f.ReservingUserID != nil {
		q = q.Where("contracts.reserving_user_id = ?", *f.ReservingUserID)
	}
	if f.CreatedByUserID != nil {
		q = q.Where("contracts.created_by_user_id = ?", *f.CreatedByUserID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.MapError("contract.list", err)
	}

	var contracts []domain.Contract
	err := populate(q).
		Order("contracts.created_at desc").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&contracts).Error
	if err != nil {
		return nil, 0, apperr.MapError("contract.list", err)
	}
	return contracts, total, nil
}

func populate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Booking").
		Preload("Booking.ActiveCartVersion").
		Preload("ReservingUser").
		Preload("CreatedByUser")
}
