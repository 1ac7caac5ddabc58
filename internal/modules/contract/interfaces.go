package contract

import (
	"github.com/google/uuid"

	"tourrental/internal/domain"
	"tourrental/internal/modules/cartversion"
	"tourrental/internal/modules/history"
	"tourrental/internal/modules/reservation"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/repository"
)

type ContractRepository interface {
	Create(dbc dbctx.Context, c *domain.Contract) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Contract, error)
	GetPopulated(dbc dbctx.Context, id uuid.UUID) (*domain.Contract, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	List(dbc dbctx.Context, f repository.ContractFilter) ([]domain.Contract, int64, error)
}

type BookingLookup interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Booking, error)
}

type HistoryLogger interface {
	Log(dbc dbctx.Context, in history.Entry) (*domain.ContractHistoryEntry, error)
}

type CartApplier interface {
	ApplyChanges(dbc dbctx.Context, contractID uuid.UUID, newCart domain.Cart, userID uuid.UUID, details string) (*cartversion.Applied, error)
}

type ReservationSyncer interface {
	ReconcileReservations(dbc dbctx.Context, oldCart, newCart *domain.Cart) (*reservation.Report, error)
}
