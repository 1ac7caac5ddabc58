package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementDirection string

const (
	DirectionIn  MovementDirection = "IN"
	DirectionOut MovementDirection = "OUT"
)

func (d MovementDirection) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Movement is a financial ledger row.
type Movement struct {
	ID                     uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Type                   string            `json:"type" gorm:"type:varchar(64);not null;index"`
	Direction              MovementDirection `json:"direction" gorm:"type:varchar(3);not null"`
	Amount                 decimal.Decimal   `json:"amount" gorm:"type:decimal(12,2);not null"`
	Date                   time.Time         `json:"date" gorm:"not null;index"`
	VehicleID              *uuid.UUID        `json:"vehicle,omitempty" gorm:"type:uuid;index"`
	BeneficiaryID          *uuid.UUID        `json:"beneficiary,omitempty" gorm:"type:uuid;index"`
	ContractHistoryEntryID *uuid.UUID        `json:"contract_history_entry,omitempty" gorm:"type:uuid;index"`
	Detail                 string            `json:"detail" gorm:"type:text"`
	CreatedBy              uuid.UUID         `json:"created_by" gorm:"type:uuid"`
	SoftDelete
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Movement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.ensureStatus()
	return nil
}
