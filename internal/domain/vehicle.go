package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Vehicle struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Plate     string    `json:"plate,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reservations []VehicleReservation `json:"reservations" gorm:"foreignKey:VehicleID"`
}

func (v *Vehicle) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VehicleReservation is one entry of a vehicle's reservation calendar.
type VehicleReservation struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	VehicleID uuid.UUID  `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	BookingID *uuid.UUID `json:"booking_id,omitempty" gorm:"type:uuid;index"`
	StartAt   time.Time  `json:"start" gorm:"not null"`
	EndAt     time.Time  `json:"end" gorm:"not null"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *VehicleReservation) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
