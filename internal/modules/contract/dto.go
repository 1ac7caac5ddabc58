package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tourrental/internal/domain"
)

type ExtensionRequest struct {
	NewEndDateTime       *time.Time       `json:"newEndDateTime"`
	PaymentMethodID      *uuid.UUID       `json:"paymentMethod"`
	Amount               *decimal.Decimal `json:"extensionAmount"`
	CommissionPercentage *float64         `json:"commissionPercentage" validate:"omitempty,gte=0,lte=100"`
	StatusID             *uuid.UUID       `json:"extensionStatus"`
}

func (r *ExtensionRequest) ToDomain() *domain.ContractExtension {
	if r == nil {
		return nil
	}
	ext := &domain.ContractExtension{
		PaymentMethodID:      r.PaymentMethodID,
		CommissionPercentage: r.CommissionPercentage,
		StatusID:             r.StatusID,
	}
	if r.NewEndDateTime != nil {
		end := r.NewEndDateTime.UTC()
		ext.NewEndDateTime = &end
	}
	if r.Amount != nil {
		ext.Amount = decimal.NewNullDecimal(*r.Amount)
	}
	return ext
}

type CreateContractRequest struct {
	BookingID       uuid.UUID         `json:"booking" validate:"required"`
	ReservingUserID uuid.UUID         `json:"reservingUser" validate:"required"`
	StatusID        uuid.UUID         `json:"status" validate:"required"`
	ConciergeID     *uuid.UUID        `json:"concierge"`
	Source          string            `json:"source" validate:"omitempty,oneof=Web Dashboard"`
	Extension       *ExtensionRequest `json:"extension"`
}

func (r CreateContractRequest) ToInput() CreateInput {
	in := CreateInput{
		BookingID:       r.BookingID,
		ReservingUserID: r.ReservingUserID,
		StatusID:        r.StatusID,
		ConciergeID:     r.ConciergeID,
		Source:          domain.ContractSource(r.Source),
	}
	if ext := r.Extension.ToDomain(); ext != nil {
		in.Extension = *ext
	}
	return in
}

type UpdateContractRequest struct {
	StatusID        *uuid.UUID        `json:"status"`
	ReservingUserID *uuid.UUID        `json:"reservingUser"`
	ConciergeID     *uuid.UUID        `json:"concierge"`
	Extension       *ExtensionRequest `json:"extension"`
	NewCart         *domain.Cart      `json:"newCart"`
	ReasonForChange *string           `json:"reasonForChange"`
}

func (r UpdateContractRequest) ToInput() UpdateInput {
	return UpdateInput{
		StatusID:        r.StatusID,
		ReservingUserID: r.ReservingUserID,
		ConciergeID:     r.ConciergeID,
		Extension:       r.Extension.ToDomain(),
		NewCart:         r.NewCart,
		ReasonForChange: r.ReasonForChange,
	}
}

// ContractView is the API shape of a contract: references populated, users reduced
// to their public fields, and the booking cart rendered from its active version.
type ContractView struct {
	domain.Contract
	Booking       *domain.BookingView `json:"booking,omitempty"`
	ReservingUser *domain.UserSummary `json:"reserving_user,omitempty"`
	CreatedByUser *domain.UserSummary `json:"created_by_user,omitempty"`
}

func NewContractView(c *domain.Contract) (*ContractView, error) {
	booking, err := c.Booking.View()
	if err != nil {
		return nil, err
	}
	return &ContractView{
		Contract:      *c,
		Booking:       booking,
		ReservingUser: c.ReservingUser.Summary(),
		CreatedByUser: c.CreatedByUser.Summary(),
	}, nil
}
