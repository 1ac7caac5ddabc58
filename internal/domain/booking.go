package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Booking struct {
	ID                  uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	BookingNumber       string     `json:"booking_number" gorm:"not null;uniqueIndex"`
	CustomerUserID      *uuid.UUID `json:"customer_user_id,omitempty" gorm:"type:uuid;index"`
	ActiveCartVersionID *uuid.UUID `json:"active_cart_version_id,omitempty" gorm:"type:uuid"`
	// LegacyCart holds carts written before versioning existed. Only the backfill reads it.
	LegacyCart *string   `json:"-" gorm:"column:cart;type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	ActiveCartVersion *CartVersion `json:"active_cart_version,omitempty" gorm:"foreignKey:ActiveCartVersionID"`
}

func (b *Booking) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BookingView is the API shape: the cart string is rendered from the active version.
type BookingView struct {
	ID                  uuid.UUID    `json:"id"`
	BookingNumber       string       `json:"booking_number"`
	ActiveCartVersionID *uuid.UUID   `json:"active_cart_version_id,omitempty"`
	Cart                string       `json:"cart"`
	ActiveCartVersion   *CartVersion `json:"active_cart_version,omitempty"`
}

func (b *Booking) View() (*BookingView, error) {
	if b == nil {
		return nil, nil
	}
	view := &BookingView{
		ID:                  b.ID,
		BookingNumber:       b.BookingNumber,
		ActiveCartVersionID: b.ActiveCartVersionID,
		ActiveCartVersion:   b.ActiveCartVersion,
	}
	if b.ActiveCartVersion != nil {
		raw, err := b.ActiveCartVersion.Cart().JSON()
		if err != nil {
			return nil, err
		}
		view.Cart = raw
	}
	return view, nil
}
