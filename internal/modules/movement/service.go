package movement

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tourrental/internal/database"
	"tourrental/internal/domain"
	"tourrental/internal/modules/events"
	"tourrental/internal/modules/history"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/pkg/logger"
	"tourrental/internal/pkg/response"
	"tourrental/internal/repository"
)

type CreateInput struct {
	Type          string
	Direction     domain.MovementDirection
	Amount        decimal.Decimal
	Date          time.Time
	VehicleID     *uuid.UUID
	BeneficiaryID *uuid.UUID
	Detail        string
	PaymentMedium *string

	// ContractID ties the movement to a contract event. Extension picks EXTENSION_ADDED over NOTE_ADDED.
	ContractID  *uuid.UUID
	EventTypeID *uuid.UUID
	Extension   bool
}

type ListFilter struct {
	Page           int
	Limit          int
	Type           string
	Direction      domain.MovementDirection
	VehicleID      *uuid.UUID
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
}

// Created is a new movement and, for contract movements, its linked history entry.
type Created struct {
	Movement *domain.Movement             `json:"movement"`
	Entry    *domain.ContractHistoryEntry `json:"history_entry,omitempty"`
}

type Service struct {
	movements MovementRepository
	contracts ContractLookup
	history   HistoryWriter
	tx        database.TxRunner
	events    events.Emitter
	log       *logger.Logger
	now       func() time.Time
}

func NewService(
	movements MovementRepository,
	contracts ContractLookup,
	history HistoryWriter,
	tx database.TxRunner,
	emitter events.Emitter,
	log *logger.Logger,
) *Service {
	if emitter == nil {
		emitter = events.Nop()
	}
	return &Service{
		movements: movements,
		contracts: contracts,
		history:   history,
		tx:        tx,
		events:    emitter,
		log:       log.With("service", "MovementService"),
		now:       time.Now,
	}
}

// Create records a ledger row. With a ContractID the movement and its history entry are
// written in one transaction, each already pointing at the other.
func (s *Service) Create(ctx context.Context, in CreateInput, userID uuid.UUID) (*Created, error) {
	const op = "movement.create"
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		return nil, apperr.Validation(op, "type is required")
	}
	if !in.Direction.Valid() {
		return nil, apperr.Validation(op, "direction must be IN or OUT")
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation(op, "amount must be positive")
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	in.Date = in.Date.UTC()

	m := &domain.Movement{
		ID:            uuid.New(),
		Type:          in.Type,
		Direction:     in.Direction,
		Amount:        in.Amount,
		Date:          in.Date,
		VehicleID:     in.VehicleID,
		BeneficiaryID: in.BeneficiaryID,
		Detail:        strings.TrimSpace(in.Detail),
		CreatedBy:     userID,
	}
	out := &Created{Movement: m}

	err := s.tx.InTx(ctx, op, func(dbc dbctx.Context) error {
		if in.ContractID == nil {
			return s.movements.Create(dbc, m)
		}
		if _, err := s.contracts.GetByID(dbc, *in.ContractID); err != nil {
			return err
		}

		entryID := uuid.New()
		m.ContractHistoryEntryID = &entryID
		if err := s.movements.Create(dbc, m); err != nil {
			return err
		}

		action := domain.ActionNoteAdded
		if in.Extension {
			action = domain.ActionExtensionAdded
		}
		date := m.Date
		entry, err := s.history.Log(dbc, history.Entry{
			ID:          entryID,
			ContractID:  *in.ContractID,
			UserID:      userID,
			Action:      action,
			EventTypeID: in.EventTypeID,
			Details:     m.Detail,
			Metadata: &domain.EventMetadata{
				Amount:        decimal.NewNullDecimal(m.Amount),
				Date:          &date,
				VehicleID:     m.VehicleID,
				BeneficiaryID: m.BeneficiaryID,
				PaymentMedium: in.PaymentMedium,
			},
			RelatedMovementID: &m.ID,
		})
		out.Entry = entry
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("movement created", "movement_id", m.ID, "linked", out.Entry != nil)
	e := events.New(events.MovementCreated, userID, nil).ForMovement(m.ID)
	if in.ContractID != nil {
		e = e.ForContract(*in.ContractID)
	}
	s.events.Emit(e)
	return out, nil
}

// DeleteMovement soft-deletes the movement and its linked history entry.
// Deleting an already deleted movement changes nothing.
func (s *Service) DeleteMovement(ctx context.Context, id, userID uuid.UUID, reason *string) (*domain.Movement, error) {
	const op = "movement.delete"
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		reason = &trimmed
	}

	var (
		m       *domain.Movement
		changed bool
	)
	err := s.tx.InTx(ctx, op, func(dbc dbctx.Context) error {
		var err error
		m, err = s.movements.GetByIDIncludingDeleted(dbc, id)
		if err != nil {
			return err
		}
		if m.IsDeleted() {
			return nil
		}

		at := s.now().UTC()
		if err := s.movements.MarkDeleted(dbc, id, userID, at, reason); err != nil {
			return err
		}
		m.RecordStatus = domain.RecordDeleted
		m.DeletedBy = &userID
		m.DeletedAt = &at
		m.DeletionReason = reason
		changed = true

		if m.ContractHistoryEntryID == nil {
			return nil
		}
		_, err = s.history.SoftDeleteInTx(dbc, *m.ContractHistoryEntryID, userID, reason)
		return s.skipBrokenLink(err, m)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info("movement deleted", "movement_id", id)
		s.events.Emit(events.New(events.MovementDeleted, userID, nil).ForMovement(id))
	}
	return m, nil
}

// RestoreMovement reactivates the movement and its linked history entry.
func (s *Service) RestoreMovement(ctx context.Context, id, userID uuid.UUID) (*domain.Movement, error) {
	const op = "movement.restore"

	var (
		m       *domain.Movement
		changed bool
	)
	err := s.tx.InTx(ctx, op, func(dbc dbctx.Context) error {
		var err error
		m, err = s.movements.GetByIDIncludingDeleted(dbc, id)
		if err != nil {
			return err
		}
		if !m.IsDeleted() {
			return nil
		}

		if err := s.movements.MarkActive(dbc, id); err != nil {
			return err
		}
		m.SoftDelete = domain.SoftDelete{RecordStatus: domain.RecordActive}
		changed = true

		if m.ContractHistoryEntryID == nil {
			return nil
		}
		_, err = s.history.RestoreInTx(dbc, *m.ContractHistoryEntryID)
		return s.skipBrokenLink(err, m)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info("movement restored", "movement_id", id)
		s.events.Emit(events.New(events.MovementRestored, userID, nil).ForMovement(id))
	}
	return m, nil
}

// skipBrokenLink lets the cascade continue past a link to a missing entry; reconciliation validation reports those.
func (s *Service) skipBrokenLink(err error, m *domain.Movement) error {
	if apperr.IsCode(err, apperr.CodeNotFound) {
		s.log.Warn("linked history entry missing", "movement_id", m.ID, "entry_id", m.ContractHistoryEntryID)
		return nil
	}
	return err
}

func (s *Service) List(ctx context.Context, f ListFilter) (*response.Page[domain.Movement], error) {
	if f.Direction != "" && !f.Direction.Valid() {
		return nil, apperr.Validation("movement.list", "direction must be IN or OUT")
	}
	page, limit := response.Normalize(f.Page, f.Limit)
	movements, total, err := s.movements.List(dbctx.New(ctx), repository.MovementFilter{
		Type:           f.Type,
		Direction:      f.Direction,
		VehicleID:      f.VehicleID,
		From:           f.From,
		To:             f.To,
		IncludeDeleted: f.IncludeDeleted,
		Limit:          limit,
		Offset:         response.Offset(page, limit),
	})
	if err != nil {
		return nil, err
	}
	result := response.NewPage(movements, page, limit, total)
	return &result, nil
}
