package reconciliation

import (
	"github.com/google/uuid"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/dbctx"
)

type MovementRepository interface {
	ListUnlinked(dbc dbctx.Context) ([]domain.Movement, error)
	ListLinked(dbc dbctx.Context) ([]domain.Movement, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Movement, error)
	SetHistoryEntry(dbc dbctx.Context, id uuid.UUID, entryID *uuid.UUID) error
	CountLinks(dbc dbctx.Context) (linked, unlinked int64, err error)
	ClearAllLinks(dbc dbctx.Context) (int64, error)
}

type EntryRepository interface {
	ListUnlinkedWithAmount(dbc dbctx.Context) ([]domain.ContractHistoryEntry, error)
	ListLinked(dbc dbctx.Context) ([]domain.ContractHistoryEntry, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]domain.ContractHistoryEntry, error)
	SetRelatedMovement(dbc dbctx.Context, id uuid.UUID, movementID *uuid.UUID) error
	CountLinks(dbc dbctx.Context) (linked, unlinked int64, err error)
	ClearAllLinks(dbc dbctx.Context) (int64, error)
}
