package history

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourrental/internal/database"
	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/pkg/logger"
)

// Entry describes one append to the ledger. ID may be preset when the caller
// needs to reference the entry before it is written.
type Entry struct {
	ID                uuid.UUID
	ContractID        uuid.UUID
	UserID            uuid.UUID
	Action            domain.HistoryAction
	EventTypeID       *uuid.UUID
	Changes           []domain.FieldChange
	Details           string
	Metadata          *domain.EventMetadata
	RelatedMovementID *uuid.UUID
}

// TimelineEntry is a ledger row with the performing user reduced to its public fields.
type TimelineEntry struct {
	domain.ContractHistoryEntry
	PerformedBy *domain.UserSummary `json:"performed_by"`
}

type Service struct {
	entries   EntryRepository
	contracts ContractLookup
	tx        database.TxRunner
	log       *logger.Logger
	now       func() time.Time
}

func NewService(entries EntryRepository, contracts ContractLookup, tx database.TxRunner, log *logger.Logger) *Service {
	return &Service{
		entries:   entries,
		contracts: contracts,
		tx:        tx,
		log:       log.With("service", "HistoryLedger"),
		now:       time.Now,
	}
}

// Log appends one entry inside the caller's scope. Existing entries are never touched.
func (s *Service) Log(dbc dbctx.Context, in Entry) (*domain.ContractHistoryEntry, error) {
	const op = "history.log"
	if !in.Action.Valid() {
		return nil, apperr.Validation(op, "unknown history action "+string(in.Action))
	}
	if in.ContractID == uuid.Nil || in.UserID == uuid.Nil {
		return nil, apperr.Validation(op, "contract and user are required")
	}

	entry := &domain.ContractHistoryEntry{
		ID:                in.ID,
		ContractID:        in.ContractID,
		Action:            in.Action,
		EventTypeID:       in.EventTypeID,
		PerformedBy:       in.UserID,
		Changes:           in.Changes,
		Details:           strings.TrimSpace(in.Details),
		RelatedMovementID: in.RelatedMovementID,
	}
	if entry.Changes == nil {
		entry.Changes = []domain.FieldChange{}
	}
	if in.Metadata != nil {
		entry.Metadata = *in.Metadata
	}
	if err := s.entries.Create(dbc, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AddNote appends a NOTE_ADDED entry to an existing contract.
func (s *Service) AddNote(ctx context.Context, in Entry) (*domain.ContractHistoryEntry, error) {
	const op = "history.add_note"
	in.Action = domain.ActionNoteAdded
	if strings.TrimSpace(in.Details) == "" {
		return nil, apperr.Validation(op, "details are required")
	}

	var entry *domain.ContractHistoryEntry
	err := s.tx.InTx(ctx, op, func(dbc dbctx.Context) error {
		if _, err := s.contracts.GetByID(dbc, in.ContractID); err != nil {
			return err
		}
		var err error
		entry, err = s.Log(dbc, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) SoftDelete(ctx context.Context, entryID, userID uuid.UUID, reason *string) (*domain.ContractHistoryEntry, error) {
	var entry *domain.ContractHistoryEntry
	err := s.tx.InTx(ctx, "history.soft_delete", func(dbc dbctx.Context) error {
		var err error
		entry, err = s.SoftDeleteInTx(dbc, entryID, userID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SoftDeleteInTx marks the entry deleted. An already deleted entry is returned unchanged.
func (s *Service) SoftDeleteInTx(dbc dbctx.Context, entryID, userID uuid.UUID, reason *string) (*domain.ContractHistoryEntry, error) {
	entry, err := s.entries.GetByIDIncludingDeleted(dbc, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsDeleted() {
		return entry, nil
	}

	at := s.now().UTC()
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		reason = &trimmed
	}
	if err := s.entries.MarkDeleted(dbc, entryID, userID, at, reason); err != nil {
		return nil, err
	}
	entry.RecordStatus = domain.RecordDeleted
	entry.DeletedBy = &userID
	entry.DeletedAt = &at
	entry.DeletionReason = reason
	s.log.Info("history entry deleted", "entry_id", entryID, "contract_id", entry.ContractID)
	return entry, nil
}

func (s *Service) Restore(ctx context.Context, entryID uuid.UUID) (*domain.ContractHistoryEntry, error) {
	var entry *domain.ContractHistoryEntry
	err := s.tx.InTx(ctx, "history.restore", func(dbc dbctx.Context) error {
		var err error
		entry, err = s.RestoreInTx(dbc, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RestoreInTx reactivates the entry. An active entry is returned unchanged.
func (s *Service) RestoreInTx(dbc dbctx.Context, entryID uuid.UUID) (*domain.ContractHistoryEntry, error) {
	entry, err := s.entries.GetByIDIncludingDeleted(dbc, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsDeleted() {
		return entry, nil
	}
	if err := s.entries.MarkActive(dbc, entryID); err != nil {
		return nil, err
	}
	entry.SoftDelete = domain.SoftDelete{RecordStatus: domain.RecordActive}
	s.log.Info("history entry restored", "entry_id", entryID, "contract_id", entry.ContractID)
	return entry, nil
}

// GetTimeline returns the contract's active entries oldest first.
func (s *Service) GetTimeline(ctx context.Context, contractID uuid.UUID) ([]TimelineEntry, error) {
	dbc := dbctx.New(ctx)
	if _, err := s.contracts.GetByID(dbc, contractID); err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByContract(dbc, contractID)
	if err != nil {
		return nil, err
	}
	timeline := make([]TimelineEntry, 0, len(entries))
	for _, e := range entries {
		timeline = append(timeline, TimelineEntry{
			ContractHistoryEntry: e,
			PerformedBy:          e.PerformedByUser.Summary(),
		})
	}
	return timeline, nil
}
