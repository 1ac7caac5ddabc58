package contract

import (
	"context"
	"strings"

	"github.com/google/uuid"

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
	BookingID       uuid.UUID
	ReservingUserID uuid.UUID
	StatusID        uuid.UUID
	ConciergeID     *uuid.UUID
	Extension       domain.ContractExtension
	Source          domain.ContractSource
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	StatusID        *uuid.UUID
	ReservingUserID *uuid.UUID
	ConciergeID     *uuid.UUID
	Extension       *domain.ContractExtension
	NewCart         *domain.Cart
	ReasonForChange *string
}

type ListFilter struct {
	Page            int
	Limit           int
	BookingNumber   string
	StatusID        *uuid.UUID
	ReservingUserID *uuid.UUID
	CreatedByUserID *uuid.UUID
}

type Service struct {
	contracts    ContractRepository
	bookings     BookingLookup
	history      HistoryLogger
	carts        CartApplier
	reservations ReservationSyncer
	tx           database.TxRunner
	events       events.Emitter
	log          *logger.Logger
}

func NewService(
	contracts ContractRepository,
	bookings BookingLookup,
	history HistoryLogger,
	carts CartApplier,
	reservations ReservationSyncer,
	tx database.TxRunner,
	emitter events.Emitter,
	log *logger.Logger,
) *Service {
	if emitter == nil {
		emitter = events.Nop()
	}
	return &Service{
		contracts:    contracts,
		bookings:     bookings,
		history:      history,
		carts:        carts,
		reservations: reservations,
		tx:           tx,
		events:       emitter,
		log:          log.With("service", "ContractStore"),
	}
}

// Create inserts the contract and its CONTRACT_CREATED entry in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput, userID uuid.UUID) (*ContractView, error) {
	const op = "contract.create"
	if in.Source == "" {
		in.Source = domain.SourceDashboard
	}
	if !in.Source.Valid() {
		return nil, apperr.Validation(op, "source must be Web or Dashboard")
	}
	if in.BookingID == uuid.Nil || in.ReservingUserID == uuid.Nil || in.StatusID == uuid.Nil {
		return nil, apperr.Validation(op, "booking, reserving user and status are required")
	}

	c := &domain.Contract{
		BookingID:       in.BookingID,
		ReservingUserID: in.ReservingUserID,
		CreatedByUserID: userID,
		StatusID:        in.StatusID,
		ConciergeID:     in.ConciergeID,
		Extension:       in.Extension,
		Source:          in.Source,
	}
	err := s.tx.InTx(ctx, op, func(dbc dbctx.Context) error {
		if _, err := s.bookings.GetByID(dbc, in.BookingID); err != nil {
			return err
		}
		if err := s.contracts.Create(dbc, c); err != nil {
			return err
		}
		_, err := s.history.Log(dbc, history.Entry{
			ContractID: c.ID,
			UserID:     userID,
			Action:     domain.ActionContractCreated,
			Details:    "Contract created",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("contract created", "contract_id", c.ID, "booking_id", c.BookingID)
	s.events.Emit(events.New(events.ContractCreated, userID, nil).ForContract(c.ID).ForBooking(c.BookingID))
	return s.FindByID(ctx, c.ID)
}

// Update applies a partial update. Every write happens in one transaction: a failure at any
// step leaves the contract, its history, its cart versions and the booking untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, userID uuid.UUID) (*ContractView, error) {
	const op = "contract.update"
	reason := ""
	if in.ReasonForChange != nil {
		reason = strings.TrimSpace(*in.ReasonForChange)
	}
	if in.NewCart != nil && reason == "" {
		return nil, apperr.Validation(op, "reasonForChange is required when newCart is provided")
	}

	var (
		current     *domain.Contract
		changes     []domain.FieldChange
		cartVersion *domain.CartVersion
	)
	err := s.tx.InTx(ctx, op, func(dbc dbctx.Context) error {
		var err error
		current, err = s.contracts.GetByID(dbc, id)
		if err != nil {
			return err
		}

		changes = diff(current, in)
		if len(changes) > 0 {
			details := reason
			if details == "" {
				details = "Contract updated"
			}
			if _, err := s.history.Log(dbc, history.Entry{
				ContractID: id,
				UserID:     userID,
				Action:     domain.ActionExtensionUpdated,
				Changes:    changes,
				Details:    details,
			}); err != nil {
				return err
			}
		}

		if in.NewCart != nil {
			applied, err := s.carts.ApplyChanges(dbc, id, *in.NewCart, userID, reason)
			if err != nil {
				return err
			}
			cartVersion = applied.Version
			if _, err := s.reservations.ReconcileReservations(dbc, applied.Previous, in.NewCart); err != nil {
				return err
			}
		}

		return s.contracts.UpdateFields(dbc, id, updateColumns(in))
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 || len(updateColumns(in)) > 0 {
		s.events.Emit(events.New(events.ContractUpdated, userID, changes).ForContract(id).ForBooking(current.BookingID))
	}
	if cartVersion != nil {
		s.log.Info("booking cart modified", "contract_id", id, "booking_id", current.BookingID, "version", cartVersion.Version)
		s.events.Emit(events.New(events.BookingCartChanged, userID, map[string]any{
			"cart_version_id": cartVersion.ID,
			"version":         cartVersion.Version,
		}).ForContract(id).ForBooking(current.BookingID))
	}
	return s.FindByID(ctx, id)
}

func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*ContractView, error) {
	c, err := s.contracts.GetPopulated(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	view, err := NewContractView(c)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "contract.find", err)
	}
	return view, nil
}

// FindAll lists contracts newest first.
func (s *Service) FindAll(ctx context.Context, f ListFilter) (*response.Page[ContractView], error) {
	page, limit := response.Normalize(f.Page, f.Limit)
	contracts, total, err := s.contracts.List(dbctx.New(ctx), repository.ContractFilter{
		BookingNumber:   f.BookingNumber,
		StatusID:        f.StatusID,
		ReservingUserID: f.ReservingUserID,
		CreatedByUserID: f.CreatedByUserID,
		Limit:           limit,
		Offset:          response.Offset(page, limit),
	})
	if err != nil {
		return nil, err
	}

	views := make([]ContractView, 0, len(contracts))
	for i := range contracts {
		view, err := NewContractView(&contracts[i])
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "contract.find_all", err)
		}
		views = append(views, *view)
	}
	result := response.NewPage(views, page, limit, total)
	return &result, nil
}
