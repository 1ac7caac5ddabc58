package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tourrental/internal/domain"
)

type MetadataRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	Date          *time.Time       `json:"date"`
	VehicleID     *uuid.UUID       `json:"vehicle"`
	BeneficiaryID *uuid.UUID       `json:"beneficiary"`
	PaymentMedium *string          `json:"paymentMedium"`
}

func (m *MetadataRequest) ToDomain() *domain.EventMetadata {
	if m == nil {
		return nil
	}
	meta := &domain.EventMetadata{
		VehicleID:     m.VehicleID,
		BeneficiaryID: m.BeneficiaryID,
		PaymentMedium: m.PaymentMedium,
	}
	if m.Amount != nil {
		meta.Amount = decimal.NewNullDecimal(*m.Amount)
	}
	if m.Date != nil {
		d := m.Date.UTC()
		meta.Date = &d
	}
	return meta
}

type AddNoteRequest struct {
	Details     string           `json:"details" validate:"required"`
	EventTypeID *uuid.UUID       `json:"eventType"`
	Metadata    *MetadataRequest `json:"eventMetadata"`
}

type DeleteRequest struct {
	Reason *string `json:"reason"`
}
