package movement

import (
	"time"

	"github.com/google/uuid"

	"tourrental/internal/domain"
	"tourrental/internal/modules/history"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/repository"
)

type MovementRepository interface {
	Create(dbc dbctx.Context, m *domain.Movement) error
	GetByIDIncludingDeleted(dbc dbctx.Context, id uuid.UUID) (*domain.Movement, error)
	List(dbc dbctx.Context, f repository.MovementFilter) ([]domain.Movement, int64, error)
	MarkDeleted(dbc dbctx.Context, id, by uuid.UUID, at time.Time, reason *string) error
	MarkActive(dbc dbctx.Context, id uuid.UUID) error
}

type ContractLookup interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Contract, error)
}

// HistoryWriter is the part of the history ledger a movement cascades into.
type HistoryWriter interface {
	Log(dbc dbctx.Context, in history.Entry) (*domain.ContractHistoryEntry, error)
	SoftDeleteInTx(dbc dbctx.Context, entryID, userID uuid.UUID, reason *string) (*domain.ContractHistoryEntry, error)
	RestoreInTx(dbc dbctx.Context, entryID uuid.UUID) (*domain.ContractHistoryEntry, error)
}
