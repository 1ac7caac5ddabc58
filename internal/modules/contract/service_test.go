package contract

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tourrental/internal/database"
	"tourrental/internal/domain"
	"tourrental/internal/modules/cartversion"
	"tourrental/internal/modules/events"
	"tourrental/internal/modules/history"
	"tourrental/internal/modules/reservation"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/pkg/testutil"
	"tourrental/internal/repository"
)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	emitter *testutil.Recorder
	user    *domain.User
	booking *domain.Booking
	vehicle *domain.Vehicle
	cart    domain.Cart
}

var (
	start  = time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC)
	oldEnd = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	newEnd = time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger()
	tx := database.NewTxRunner(db)

	contracts := repository.NewContractRepository(db)
	bookings := repository.NewBookingRepository(db)
	ledger := history.NewService(repository.NewContractHistoryRepository(db), contracts, tx, log)
	carts := cartversion.NewService(repository.NewCartVersionRepository(db), bookings, contracts, ledger, tx, log)
	syncer := reservation.NewService(repository.NewVehicleRepository(db), reservation.DefaultEndTolerance, log)
	emitter := &testutil.Recorder{}

	vehicle := testutil.CreateVehicle(t, db, domain.VehicleReservation{StartAt: start, EndAt: oldEnd.Add(30 * time.Second)})
	cart := testutil.VehicleCart(vehicle.ID, start, oldEnd)

	return fixture{
		db:      db,
		svc:     NewService(contracts, bookings, ledger, carts, syncer, tx, emitter, log),
		emitter: emitter,
		user:    testutil.CreateUser(t, db, domain.RoleManager),
		booking: testutil.CreateBooking(t, db, &cart),
		vehicle: vehicle,
		cart:    cart,
	}
}

func (f fixture) create(t *testing.T) *ContractView {
	t.Helper()
	view, err := f.svc.Create(context.Background(), CreateInput{
		BookingID:       f.booking.ID,
		ReservingUserID: f.user.ID,
		StatusID:        uuid.New(),
		Source:          domain.SourceWeb,
	}, f.user.ID)
	require.NoError(t, err)
	return view
}

func (f fixture) timeline(t *testing.T, contractID uuid.UUID) []domain.ContractHistoryEntry {
	t.Helper()
	entries, err := repository.NewContractHistoryRepository(f.db).ListByContract(dbctx.New(context.Background()), contractID)
	require.NoError(t, err)
	return entries
}

func TestCreatePopulatesAndLogs(t *testing.T) {
	f := setup(t)

	view := f.create(t)
	require.NotNil(t, view.Booking)
	assert.Equal(t, f.booking.BookingNumber, view.Booking.BookingNumber)
	require.NotNil(t, view.ReservingUser)
	assert.Equal(t, f.user.Email, view.ReservingUser.Email)
	assert.Equal(t, f.user.ID, view.CreatedByUser.ID)

	parsed, err := domain.ParseCart(view.Booking.Cart)
	require.NoError(t, err)
	assert.Equal(t, f.cart, *parsed)

	entries := f.timeline(t, view.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionContractCreated, entries[0].Action)
	assert.Equal(t, []events.Type{events.ContractCreated}, f.emitter.Types())
}

func TestCreateUnknownBooking(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		BookingID:       uuid.New(),
		ReservingUserID: f.user.ID,
		StatusID:        uuid.New(),
	}, f.user.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &domain.Contract{}))
}

func TestCreateRollsBackWhenHistoryFails(t *testing.T) {
	f := setup(t)
	testutil.FailOn(t, f.db, "create", "contract_history")

	_, err := f.svc.Create(context.Background(), CreateInput{
		BookingID:       f.booking.ID,
		ReservingUserID: f.user.ID,
		StatusID:        uuid.New(),
	}, f.user.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeTransactionAborted))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &domain.Contract{}))
	assert.Empty(t, f.emitter.Types())
}

func TestCreateRejectsUnknownSource(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		BookingID:       f.booking.ID,
		ReservingUserID: f.user.ID,
		StatusID:        uuid.New(),
		Source:          "Phone",
	}, f.user.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestUpdateLogsFieldDiffs(t *testing.T) {
	f := setup(t)
	view := f.create(t)
	newStatus := uuid.New()
	other := testutil.CreateUser(t, f.db, domain.RoleAgent)

	updated, err := f.svc.Update(context.Background(), view.ID, UpdateInput{
		StatusID:        &newStatus,
		ReservingUserID: &other.ID,
	}, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, newStatus, updated.StatusID)
	assert.Equal(t, other.ID, updated.ReservingUser.ID)

	entries := f.timeline(t, view.ID)
	require.Len(t, entries, 2)
	logged := entries[1]
	assert.Equal(t, domain.ActionExtensionUpdated, logged.Action)
	require.Len(t, logged.Changes, 2)
	assert.Equal(t, "status", logged.Changes[0].Field)
	assert.Equal(t, view.StatusID.String(), logged.Changes[0].OldValue)
	assert.Equal(t, newStatus.String(), logged.Changes[0].NewValue)
	assert.Equal(t, "reservingUser", logged.Changes[1].Field)
}

func TestUpdateLogsConciergeChanges(t *testing.T) {
	f := setup(t)
	view := f.create(t)
	concierge := uuid.New()

	updated, err := f.svc.Update(context.Background(), view.ID, UpdateInput{ConciergeID: &concierge}, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.ConciergeID)
	assert.Equal(t, concierge, *updated.ConciergeID)

	entries := f.timeline(t, view.ID)
	require.Len(t, entries, 2)
	require.Len(t, entries[1].Changes, 1)
	assert.Equal(t, "concierge", entries[1].Changes[0].Field)
	assert.Nil(t, entries[1].Changes[0].OldValue)
	assert.Equal(t, concierge.String(), entries[1].Changes[0].NewValue)

	// Same concierge again: nothing to log.
	_, err = f.svc.Update(context.Background(), view.ID, UpdateInput{ConciergeID: &concierge}, f.user.ID)
	require.NoError(t, err)
	require.Len(t, f.timeline(t, view.ID), 2)

	none := uuid.Nil
	updated, err = f.svc.Update(context.Background(), view.ID, UpdateInput{ConciergeID: &none}, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.ConciergeID)

	entries = f.timeline(t, view.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, concierge.String(), entries[2].Changes[0].OldValue)
	assert.Nil(t, entries[2].Changes[0].NewValue)
}

func TestUpdateWithoutDifferencesWritesNoHistory(t *testing.T) {
	f := setup(t)
	view := f.create(t)
	status := view.StatusID

	_, err := f.svc.Update(context.Background(), view.ID, UpdateInput{StatusID: &status}, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, f.timeline(t, view.ID), 1)
}

func TestUpdateExtensionComparesAmountsNumerically(t *testing.T) {
	f := setup(t)
	view := f.create(t)
	end := newEnd
	ext := domain.ContractExtension{
		NewEndDateTime: &end,
		Amount:         decimal.NewNullDecimal(decimal.RequireFromString("150")),
	}

	_, err := f.svc.Update(context.Background(), view.ID, UpdateInput{Extension: &ext}, f.user.ID)
	require.NoError(t, err)
	require.Len(t, f.timeline(t, view.ID), 2)

	same := domain.ContractExtension{
		NewEndDateTime: &end,
		Amount:         decimal.NewNullDecimal(decimal.RequireFromString("150.00")),
	}
	updated, err := f.svc.Update(context.Background(), view.ID, UpdateInput{Extension: &same}, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, f.timeline(t, view.ID), 2)
	assert.True(t, updated.Extension.Amount.Decimal.Equal(decimal.NewFromInt(150)))
}

func TestUpdateCartRequiresReason(t *testing.T) {
	f := setup(t)
	view := f.create(t)
	next := testutil.VehicleCart(f.vehicle.ID, start, newEnd)

	_, err := f.svc.Update(context.Background(), view.ID, UpdateInput{NewCart: &next}, f.user.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &domain.CartVersion{}))
}

func TestUpdateCartKeepsBookingInSyncAndMovesReservation(t *testing.T) {
	f := setup(t)
	view := f.create(t)
	next := testutil.VehicleCart(f.vehicle.ID, start, newEnd)
	reason := "extended two days"

	updated, err := f.svc.Update(context.Background(), view.ID, UpdateInput{NewCart: &next, ReasonForChange: &reason}, f.user.ID)
	require.NoError(t, err)

	parsed, err := domain.ParseCart(updated.Booking.Cart)
	require.NoError(t, err)
	assert.Equal(t, next, *parsed)
	require.NotNil(t, updated.Booking.ActiveCartVersion)
	assert.Equal(t, 2, updated.Booking.ActiveCartVersion.Version)
	assert.Equal(t, next, updated.Booking.ActiveCartVersion.Cart())

	vehicle, err := repository.NewVehicleRepository(f.db).FindByID(dbctx.New(context.Background()), f.vehicle.ID)
	require.NoError(t, err)
	assert.True(t, newEnd.Equal(vehicle.Reservations[0].EndAt))

	entries := f.timeline(t, view.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionBookingModified, entries[1].Action)
	assert.Equal(t, reason, entries[1].Details)
	assert.Contains(t, f.emitter.Types(), events.BookingCartChanged)
}

func TestUpdateIsAtomic(t *testing.T) {
	tests := []struct {
		name  string
		op    string
		table string
	}{
		{"history write", "create", "contract_history"},
		{"cart version write", "create", "cart_versions"},
		{"booking pointer update", "update", "bookings"},
		{"contract field update", "update", "contracts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			view := f.create(t)
			before := f.snapshot(t, view.ID)

			newStatus := uuid.New()
			next := testutil.VehicleCart(f.vehicle.ID, start, newEnd)
			reason := "customer request"
			testutil.FailOn(t, f.db, tt.op, tt.table)

			_, err := f.svc.Update(context.Background(), view.ID, UpdateInput{
				StatusID:        &newStatus,
				NewCart:         &next,
				ReasonForChange: &reason,
			}, f.user.ID)
			require.Error(t, err)
			assert.True(t, apperr.IsCode(err, apperr.CodeTransactionAborted))
			assert.Equal(t, before, f.snapshot(t, view.ID))
		})
	}
}

type state struct {
	contracts     int64
	history       int64
	versions      int64
	status        uuid.UUID
	activeVersion uuid.UUID
	reservation   time.Time
}

func (f fixture) snapshot(t *testing.T, contractID uuid.UUID) state {
	t.Helper()
	dbc := dbctx.New(context.Background())
	c, err := repository.NewContractRepository(f.db).GetByID(dbc, contractID)
	require.NoError(t, err)
	b, err := repository.NewBookingRepository(f.db).GetByID(dbc, f.booking.ID)
	require.NoError(t, err)
	v, err := repository.NewVehicleRepository(f.db).FindByID(dbc, f.vehicle.ID)
	require.NoError(t, err)
	return state{
		contracts:     testutil.Count(t, f.db, &domain.Contract{}),
		history:       testutil.Count(t, f.db, &domain.ContractHistoryEntry{}),
		versions:      testutil.Count(t, f.db, &domain.CartVersion{}),
		status:        c.StatusID,
		activeVersion: *b.ActiveCartVersionID,
		reservation:   v.Reservations[0].EndAt.UTC(),
	}
}

func TestUpdateUnknownContract(t *testing.T) {
	f := setup(t)
	status := uuid.New()

	_, err := f.svc.Update(context.Background(), uuid.New(), UpdateInput{StatusID: &status}, f.user.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestFindAllPaginatesNewestFirst(t *testing.T) {
	f := setup(t)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		booking := testutil.CreateBooking(t, f.db, nil)
		view, err := f.svc.Create(context.Background(), CreateInput{
			BookingID:       booking.ID,
			ReservingUserID: f.user.ID,
			StatusID:        uuid.New(),
		}, f.user.ID)
		require.NoError(t, err)
		ids = append(ids, view.ID)
	}

	page, err := f.svc.FindAll(context.Background(), ListFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPreviousPage)
	require.Len(t, page.Data, 2)
	assert.Equal(t, ids[2], page.Data[0].ID)

	second, err := f.svc.FindAll(context.Background(), ListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, second.Data, 1)
	assert.Equal(t, ids[0], second.Data[0].ID)
	assert.True(t, second.Pagination.HasPreviousPage)
}

func TestFindAllFiltersByBookingNumber(t *testing.T) {
	f := setup(t)
	f.create(t)
	other := testutil.CreateBooking(t, f.db, nil)
	_, err := f.svc.Create(context.Background(), CreateInput{
		BookingID:       other.ID,
		ReservingUserID: f.user.ID,
		StatusID:        uuid.New(),
	}, f.user.ID)
	require.NoError(t, err)

	page, err := f.svc.FindAll(context.Background(), ListFilter{BookingNumber: f.booking.BookingNumber})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, f.booking.ID, page.Data[0].BookingID)
	assert.Equal(t, 10, page.Pagination.Limit)
}
