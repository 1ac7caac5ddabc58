package movement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tourrental/internal/domain"
)

type CreateMovementRequest struct {
	Type          string          `json:"type" validate:"required"`
	Direction     string          `json:"direction" validate:"required,oneof=IN OUT"`
	Amount        decimal.Decimal `json:"amount"`
	Date          *time.Time      `json:"date"`
	VehicleID     *uuid.UUID      `json:"vehicle"`
	BeneficiaryID *uuid.UUID      `json:"beneficiary"`
	Detail        string          `json:"detail" validate:"max=2000"`
	PaymentMedium *string         `json:"paymentMedium"`
	ContractID    *uuid.UUID      `json:"contract"`
	EventTypeID   *uuid.UUID      `json:"eventType"`
	Extension     bool            `json:"extension"`
}

func (r CreateMovementRequest) ToInput() CreateInput {
	in := CreateInput{
		Type:          r.Type,
		Direction:     domain.MovementDirection(r.Direction),
		Amount:        r.Amount,
		VehicleID:     r.VehicleID,
		BeneficiaryID: r.BeneficiaryID,
		Detail:        r.Detail,
		PaymentMedium: r.PaymentMedium,
		ContractID:    r.ContractID,
		EventTypeID:   r.EventTypeID,
		Extension:     r.Extension,
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	return in
}

type DeleteRequest struct {
	Reason *string `json:"reason"`
}
