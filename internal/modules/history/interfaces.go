package history

import (
	"time"

	"github.com/google/uuid"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/dbctx"
)

type EntryRepository interface {
	Create(dbc dbctx.Context, e *domain.ContractHistoryEntry) error
	GetByIDIncludingDeleted(dbc dbctx.Context, id uuid.UUID) (*domain.ContractHistoryEntry, error)
	ListByContract(dbc dbctx.Context, contractID uuid.UUID) ([]domain.ContractHistoryEntry, error)
	MarkDeleted(dbc dbctx.Context, id, by uuid.UUID, at time.Time, reason *string) error
	MarkActive(dbc dbctx.Context, id uuid.UUID) error
}

type ContractLookup interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Contract, error)
}
