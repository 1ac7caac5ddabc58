package cartversion

import (
	"github.com/google/uuid"

	"tourrental/internal/domain"
	"tourrental/internal/modules/history"
	"tourrental/internal/pkg/dbctx"
)

type VersionRepository interface {
	MaxVersion(dbc dbctx.Context, bookingID uuid.UUID) (int, error)
	Create(dbc dbctx.Context, v *domain.CartVersion) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.CartVersion, error)
	ListByBooking(dbc dbctx.Context, bookingID uuid.UUID) ([]domain.CartVersion, error)
}

type BookingRepository interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Booking, error)
	GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*domain.Booking, error)
	SetActiveVersion(dbc dbctx.Context, id, versionID uuid.UUID) error
	ListLegacy(dbc dbctx.Context) ([]domain.Booking, error)
}

type ContractRepository interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Contract, error)
	GetByBookingID(dbc dbctx.Context, bookingID uuid.UUID) (*domain.Contract, error)
}

type HistoryLogger interface {
	Log(dbc dbctx.Context, in history.Entry) (*domain.ContractHistoryEntry, error)
}
