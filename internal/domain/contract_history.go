package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type HistoryAction string

const (
	ActionContractCreated  HistoryAction = "CONTRACT_CREATED"
	ActionStatusUpdated    HistoryAction = "STATUS_UPDATED"
	ActionExtensionAdded   HistoryAction = "EXTENSION_ADDED"
	ActionExtensionUpdated HistoryAction = "EXTENSION_UPDATED"
	ActionBookingModified  HistoryAction = "BOOKING_MODIFIED"
	ActionNoteAdded        HistoryAction = "NOTE_ADDED"
)

func (a HistoryAction) Valid() bool {
	switch a {
	case ActionContractCreated, ActionStatusUpdated, ActionExtensionAdded,
		ActionExtensionUpdated, ActionBookingModified, ActionNoteAdded:
		return true
	}
	return false
}

type FieldChange struct {
	Field       string `json:"field"`
	OldValue    any    `json:"oldValue"`
	NewValue    any    `json:"newValue"`
	OldSnapshot any    `json:"oldSnapshot,omitempty"`
	NewSnapshot any    `json:"newSnapshot,omitempty"`
}

// EventMetadata carries the financial facts of an event. Reconciliation builds its join keys from it.
type EventMetadata struct {
	Amount        decimal.NullDecimal `json:"amount" gorm:"type:decimal(12,2)"`
	Date          *time.Time          `json:"date,omitempty"`
	VehicleID     *uuid.UUID          `json:"vehicle,omitempty" gorm:"type:uuid"`
	BeneficiaryID *uuid.UUID          `json:"beneficiary,omitempty" gorm:"type:uuid"`
	PaymentMedium *string             `json:"payment_medium,omitempty" gorm:"type:varchar(64)"`
}

func (m EventMetadata) HasAmount() bool {
	return m.Amount.Valid
}

type ContractHistoryEntry struct {
	ID                uuid.UUID                        `json:"id" gorm:"type:uuid;primaryKey"`
	ContractID        uuid.UUID                        `json:"contract_id" gorm:"type:uuid;not null;index"`
	Action            HistoryAction                    `json:"action" gorm:"type:varchar(32);not null"`
	EventTypeID       *uuid.UUID                       `json:"event_type_id,omitempty" gorm:"type:uuid"`
	PerformedBy       uuid.UUID                        `json:"performed_by" gorm:"type:uuid;not null"`
	Changes           datatypes.JSONSlice[FieldChange] `json:"changes"`
	Details           string                           `json:"details" gorm:"type:text"`
	Metadata          EventMetadata                    `json:"event_metadata" gorm:"embedded;embeddedPrefix:meta_"`
	RelatedMovementID *uuid.UUID                       `json:"related_movement,omitempty" gorm:"type:uuid;index"`
	SoftDelete
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	PerformedByUser *User `json:"-" gorm:"foreignKey:PerformedBy"`
}

func (ContractHistoryEntry) TableName() string {
	return "contract_history"
}

func (e *ContractHistoryEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.ensureStatus()
	return nil
}
