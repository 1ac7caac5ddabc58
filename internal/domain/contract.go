package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractSource string

const (
	SourceWeb       ContractSource = "Web"
	SourceDashboard ContractSource = "Dashboard"
)

func (s ContractSource) Valid() bool {
	return s == SourceWeb || s == SourceDashboard
}

// ContractExtension captures an extension negotiation. The zero value means "no extension".
type ContractExtension struct {
	NewEndDateTime       *time.Time          `json:"new_end_date_time,omitempty"`
	PaymentMethodID      *uuid.UUID          `json:"payment_method_id,omitempty" gorm:"type:uuid"`
	Amount               decimal.NullDecimal `json:"extension_amount" gorm:"type:decimal(12,2)"`
	CommissionPercentage *float64            `json:"commission_percentage,omitempty"`
	StatusID             *uuid.UUID          `json:"extension_status_id,omitempty" gorm:"type:uuid"`
}

func (e ContractExtension) IsZero() bool {
	return e.NewEndDateTime == nil &&
		e.PaymentMethodID == nil &&
		!e.Amount.Valid &&
		e.CommissionPercentage == nil &&
		e.StatusID == nil
}

// Equal compares field by field; amounts are compared numerically and times by instant.
func (e ContractExtension) Equal(o ContractExtension) bool {
	if !equalTimePtr(e.NewEndDateTime, o.NewEndDateTime) {
		return false
	}
	if !equalUUIDPtr(e.PaymentMethodID, o.PaymentMethodID) || !equalUUIDPtr(e.StatusID, o.StatusID) {
		return false
	}
	if e.Amount.Valid != o.Amount.Valid || (e.Amount.Valid && !e.Amount.Decimal.Equal(o.Amount.Decimal)) {
		return false
	}
	switch {
	case e.CommissionPercentage == nil && o.CommissionPercentage == nil:
		return true
	case e.CommissionPercentage == nil || o.CommissionPercentage == nil:
		return false
	default:
		return *e.CommissionPercentage == *o.CommissionPercentage
	}
}

type Contract struct {
	ID              uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID       uuid.UUID         `json:"booking_id" gorm:"type:uuid;not null;index"`
	ReservingUserID uuid.UUID         `json:"reserving_user_id" gorm:"type:uuid;not null;index"`
	CreatedByUserID uuid.UUID         `json:"created_by_user_id" gorm:"type:uuid;not null;index"`
	StatusID        uuid.UUID         `json:"status_id" gorm:"type:uuid;not null;index"`
	ConciergeID     *uuid.UUID        `json:"concierge_id,omitempty" gorm:"type:uuid"`
	Extension       ContractExtension `json:"extension" gorm:"embedded;embeddedPrefix:extension_"`
	Source          ContractSource    `json:"source" gorm:"type:varchar(16);not null"`
	CreatedAt       time.Time         `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time         `json:"updated_at"`

	Booking       *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
	ReservingUser *User    `json:"-" gorm:"foreignKey:ReservingUserID"`
	CreatedByUser *User    `json:"-" gorm:"foreignKey:CreatedByUserID"`
}

func (c *Contract) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalUUIDPtr(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
