package cartversion

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"tourrental/internal/database"
	"tourrental/internal/domain"
	"tourrental/internal/modules/history"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/pkg/logger"
)

const activeVersionField = "activeCartVersion"

// Applied is the outcome of one cart edit. Previous is the cart that was active
// before the edit, nil when the booking had none.
type Applied struct {
	BookingID uuid.UUID
	Previous  *domain.Cart
	Version   *domain.CartVersion
	Entry     *domain.ContractHistoryEntry
}

type BackfillSkip struct {
	BookingID uuid.UUID `json:"booking_id"`
	Reason    string    `json:"reason"`
}

type BackfillReport struct {
	Migrated int            `json:"migrated"`
	Skipped  []BackfillSkip `json:"skipped"`
}

type Service struct {
	versions  VersionRepository
	bookings  BookingRepository
	contracts ContractRepository
	history   HistoryLogger
	tx        database.TxRunner
	log       *logger.Logger
}

func NewService(
	versions VersionRepository,
	bookings BookingRepository,
	contracts ContractRepository,
	history HistoryLogger,
	tx database.TxRunner,
	log *logger.Logger,
) *Service {
	return &Service{
		versions:  versions,
		bookings:  bookings,
		contracts: contracts,
		history:   history,
		tx:        tx,
		log:       log.With("service", "CartVersionStore"),
	}
}

// ApplyChanges stores newCart as the next version of the contract's booking and makes it active.
// It must run inside the caller's transaction: the booking row is locked and the max version is
// read in the same scope, so concurrent edits of one booking cannot produce duplicate numbers.
func (s *Service) ApplyChanges(dbc dbctx.Context, contractID uuid.UUID, newCart domain.Cart, userID uuid.UUID, details string) (*Applied, error) {
	const op = "cartversion.apply_changes"
	if !dbc.InTx() {
		return nil, apperr.New(apperr.CodeInternal, op, "must run inside a transaction", nil)
	}

	contract, err := s.contracts.GetByID(dbc, contractID)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetForUpdate(dbc, contract.BookingID)
	if err != nil {
		return nil, err
	}
	previous, err := s.activeCart(dbc, booking)
	if err != nil {
		return nil, err
	}
	applied, err := s.appendVersion(dbc, booking, contract.ID, newCart, userID, details)
	if err != nil {
		return nil, err
	}
	applied.Previous = previous
	return applied, nil
}

func (s *Service) appendVersion(dbc dbctx.Context, booking *domain.Booking, contractID uuid.UUID, cart domain.Cart, userID uuid.UUID, details string) (*Applied, error) {
	max, err := s.versions.MaxVersion(dbc, booking.ID)
	if err != nil {
		return nil, err
	}

	entryID := uuid.New()
	version := &domain.CartVersion{
		ID:               uuid.New(),
		BookingID:        booking.ID,
		Version:          max + 1,
		CreatedByEventID: &entryID,
	}
	version.Data = datatypes.NewJSONType(cart)
	if err := s.versions.Create(dbc, version); err != nil {
		return nil, err
	}

	var oldValue any
	if booking.ActiveCartVersionID != nil {
		oldValue = booking.ActiveCartVersionID.String()
	}
	entry, err := s.history.Log(dbc, history.Entry{
		ID:         entryID,
		ContractID: contractID,
		UserID:     userID,
		Action:     domain.ActionBookingModified,
		Details:    details,
		Changes: []domain.FieldChange{{
			Field:    activeVersionField,
			OldValue: oldValue,
			NewValue: version.ID.String(),
		}},
	})
	if err != nil {
		return nil, err
	}

	if err := s.bookings.SetActiveVersion(dbc, booking.ID, version.ID); err != nil {
		return nil, err
	}
	return &Applied{BookingID: booking.ID, Version: version, Entry: entry}, nil
}

// activeCart resolves the cart the booking currently shows: the active version, or the
// legacy string for bookings that were never versioned.
func (s *Service) activeCart(dbc dbctx.Context, booking *domain.Booking) (*domain.Cart, error) {
	if booking.ActiveCartVersionID != nil {
		v, err := s.versions.GetByID(dbc, *booking.ActiveCartVersionID)
		if err != nil {
			return nil, err
		}
		cart := v.Cart()
		return &cart, nil
	}
	if booking.LegacyCart == nil {
		return nil, nil
	}
	cart, err := domain.ParseCart(*booking.LegacyCart)
	if err != nil {
		s.log.Warn("ignoring unreadable legacy cart", "booking_id", booking.ID, "error", err)
		return nil, nil
	}
	return cart, nil
}

// BackfillLegacyCarts gives every booking that only has a legacy cart string its first version.
// Each booking is migrated in its own transaction; unreadable carts are reported and skipped.
func (s *Service) BackfillLegacyCarts(ctx context.Context, actorID uuid.UUID) (*BackfillReport, error) {
	bookings, err := s.bookings.ListLegacy(dbctx.New(ctx))
	if err != nil {
		return nil, err
	}

	report := &BackfillReport{Skipped: []BackfillSkip{}}
	for _, b := range bookings {
		cart, err := domain.ParseCart(*b.LegacyCart)
		if err != nil {
			s.log.Warn("legacy cart skipped", "booking_id", b.ID, "error", err)
			report.Skipped = append(report.Skipped, BackfillSkip{BookingID: b.ID, Reason: err.Error()})
			continue
		}

		err = s.tx.InTx(ctx, "cartversion.backfill", func(dbc dbctx.Context) error {
			locked, err := s.bookings.GetForUpdate(dbc, b.ID)
			if err != nil {
				return err
			}
			if locked.ActiveCartVersionID != nil {
				return nil
			}
			contract, err := s.contracts.GetByBookingID(dbc, b.ID)
			if err != nil {
				if apperr.IsCode(err, apperr.CodeNotFound) {
					return s.appendOrphanVersion(dbc, locked, *cart)
				}
				return err
			}
			_, err = s.appendVersion(dbc, locked, contract.ID, *cart, actorID, "legacy cart migrated")
			return err
		})
		if err != nil {
			report.Skipped = append(report.Skipped, BackfillSkip{BookingID: b.ID, Reason: err.Error()})
			continue
		}
		report.Migrated++
	}
	s.log.Info("legacy cart backfill finished", "migrated", report.Migrated, "skipped", len(report.Skipped))
	return report, nil
}

// appendOrphanVersion versions a booking that has no contract yet, so no history entry is written.
func (s *Service) appendOrphanVersion(dbc dbctx.Context, booking *domain.Booking, cart domain.Cart) error {
	max, err := s.versions.MaxVersion(dbc, booking.ID)
	if err != nil {
		return err
	}
	version := &domain.CartVersion{BookingID: booking.ID, Version: max + 1}
	version.Data = datatypes.NewJSONType(cart)
	if err := s.versions.Create(dbc, version); err != nil {
		return err
	}
	return s.bookings.SetActiveVersion(dbc, booking.ID, version.ID)
}

func (s *Service) ListVersions(ctx context.Context, bookingID uuid.UUID) ([]domain.CartVersion, error) {
	dbc := dbctx.New(ctx)
	if _, err := s.bookings.GetByID(dbc, bookingID); err != nil {
		return nil, err
	}
	return s.versions.ListByBooking(dbc, bookingID)
}

func (s *Service) GetVersion(ctx context.Context, id uuid.UUID) (*domain.CartVersion, error) {
	return s.versions.GetByID(dbctx.New(ctx), id)
}

// GetBookingView renders the booking with its cart string taken from the active version.
func (s *Service) GetBookingView(ctx context.Context, bookingID uuid.UUID) (*domain.BookingView, error) {
	booking, err := s.bookings.GetByID(dbctx.New(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	view, err := booking.View()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "cartversion.booking_view", err)
	}
	return view, nil
}
