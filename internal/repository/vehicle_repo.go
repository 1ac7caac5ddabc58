package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) Create(dbc dbctx.Context, v *domain.Vehicle) error {
	return dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(v).Error; err != nil {
			return apperr.MapError("vehicle.create", err)
		}
		for i := range v.Reservations {
			v.Reservations[i].VehicleID = v.ID
			if err := tx.Create(&v.Reservations[i]).Error; err != nil {
				return apperr.MapError("vehicle.create_reservation", err)
			}
		}
		return nil
	})
}

// FindByID loads the vehicle with its reservation calendar ordered by start.
func (r *VehicleRepository) FindByID(dbc dbctx.Context, id uuid.UUID) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := dbc.DB(r.db).
		Preload("Reservations", func(db *gorm.DB) *gorm.DB { return db.Order("start_at asc") }).
		Where("id = ?", id).
		First(&v).Error
	if err != nil {
		return nil, apperr.MapError("vehicle.find", err)
	}
	return &v, nil
}

func (r *VehicleRepository) UpdateReservationEnd(dbc dbctx.Context, reservationID uuid.UUID, end time.Time) error {
	res := dbc.DB(r.db).Model(&domain.VehicleReservation{}).
		Where("id = ?", reservationID).
		Update("end_at", end)
	if res.Error != nil {
		return apperr.MapError("vehicle.update_reservation_end", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("vehicle.update_reservation_end", "reservation not found")
	}
	return nil
}
