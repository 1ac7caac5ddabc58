package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CartVehicle struct {
	VehicleID uuid.UUID `json:"vehicleId"`
	Name      string    `json:"name"`
	Dates     DateRange `json:"dates"`
	Quantity  int       `json:"quantity"`
	Total     float64   `json:"total"`
}

type CartTour struct {
	TourID uuid.UUID `json:"tourId"`
	Name   string    `json:"name"`
	Date   time.Time `json:"date"`
	People int       `json:"people"`
	Total  float64   `json:"total"`
}

type CartTransfer struct {
	TransferID uuid.UUID `json:"transferId"`
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	Passengers int       `json:"passengers"`
	Total      float64   `json:"total"`
}

type CartTicket struct {
	TicketID uuid.UUID `json:"ticketId"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Quantity int       `json:"quantity"`
	Total    float64   `json:"total"`
}

// Cart is the typed cart graph. Its JSON string form only exists at the API boundary.
type Cart struct {
	Vehicles  []CartVehicle  `json:"vehicles"`
	Tours     []CartTour     `json:"tours"`
	Transfers []CartTransfer `json:"transfers"`
	Tickets   []CartTicket   `json:"tickets"`
	Total     float64        `json:"total"`
}

// PreviousLine finds the line in c that line replaces. A vehicle may appear on several
// lines with different date ranges, so lines pair on vehicle and start date. When the start
// moved, the vehicle's only line is used; with several candidates there is no pairing.
func (c Cart) PreviousLine(line CartVehicle) (CartVehicle, bool) {
	var (
		only  CartVehicle
		count int
	)
	for _, v := range c.Vehicles {
		if v.VehicleID != line.VehicleID {
			continue
		}
		if v.Dates.Start.Equal(line.Dates.Start) {
			return v, true
		}
		only = v
		count++
	}
	return only, count == 1
}

func (c Cart) JSON() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ParseCart decodes a serialized cart (legacy booking.cart column, API payloads).
func ParseCart(raw string) (*Cart, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty cart")
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("malformed cart: %w", err)
	}
	return &c, nil
}

// CartVersion is an immutable, numbered snapshot of a booking's cart.
type CartVersion struct {
	ID               uuid.UUID                `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID        uuid.UUID                `json:"booking_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_versions_booking_version"`
	Version          int                      `json:"version" gorm:"not null;uniqueIndex:idx_cart_versions_booking_version"`
	Data             datatypes.JSONType[Cart] `json:"data"`
	CreatedByEventID *uuid.UUID               `json:"created_by_event,omitempty" gorm:"type:uuid;index"`
	CreatedAt        time.Time                `json:"created_at"`
}

func (CartVersion) TableName() string {
	return "cart_versions"
}

func (v *CartVersion) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (v *CartVersion) Cart() Cart {
	return v.Data.Data()
}
