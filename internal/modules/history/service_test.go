package history

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tourrental/internal/database"
	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/pkg/testutil"
	"tourrental/internal/repository"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	user     *domain.User
	contract *domain.Contract
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.DB(t)
	svc := NewService(
		repository.NewContractHistoryRepository(db),
		repository.NewContractRepository(db),
		database.NewTxRunner(db),
		testutil.Logger(),
	)
	user := testutil.CreateUser(t, db, domain.RoleManager)
	booking := testutil.CreateBooking(t, db, nil)
	return fixture{db: db, svc: svc, user: user, contract: testutil.CreateContract(t, db, booking, user)}
}

func (f fixture) log(t *testing.T, action domain.HistoryAction, details string) *domain.ContractHistoryEntry {
	t.Helper()
	entry, err := f.svc.Log(dbctx.New(context.Background()), Entry{
		ContractID: f.contract.ID,
		UserID:     f.user.ID,
		Action:     action,
		Details:    details,
	})
	require.NoError(t, err)
	return entry
}

func TestLogRejectsUnknownAction(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Log(dbctx.New(context.Background()), Entry{
		ContractID: f.contract.ID,
		UserID:     f.user.ID,
		Action:     "SOMETHING",
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestTimelineIsAscendingAndHidesDeleted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.log(t, domain.ActionContractCreated, "created")
	second := f.log(t, domain.ActionStatusUpdated, "status")
	third := f.log(t, domain.ActionNoteAdded, "note")

	_, err := f.svc.SoftDelete(ctx, second.ID, f.user.ID, nil)
	require.NoError(t, err)

	timeline, err := f.svc.GetTimeline(ctx, f.contract.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, first.ID, timeline[0].ID)
	assert.Equal(t, third.ID, timeline[1].ID)
	require.NotNil(t, timeline[0].PerformedBy)
	assert.Equal(t, f.user.Email, timeline[0].PerformedBy.Email)
}

func TestSoftDeleteAndRestoreAreIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	entry := f.log(t, domain.ActionNoteAdded, "manual report")
	reason := "duplicate"

	deleted, err := f.svc.SoftDelete(ctx, entry.ID, f.user.ID, &reason)
	require.NoError(t, err)
	require.True(t, deleted.IsDeleted())
	firstDeletedAt := *deleted.DeletedAt

	other := testutil.CreateUser(t, f.db, domain.RoleAdmin)
	again, err := f.svc.SoftDelete(ctx, entry.ID, other.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, *again.DeletedBy)
	assert.True(t, firstDeletedAt.Equal(*again.DeletedAt))
	assert.Equal(t, "duplicate", *again.DeletionReason)

	restored, err := f.svc.Restore(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())

	restoredAgain, err := f.svc.Restore(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, restoredAgain.IsDeleted())
	assert.Nil(t, restoredAgain.DeletedBy)
	assert.Nil(t, restoredAgain.DeletedAt)
}

func TestAddNoteStoresMetadata(t *testing.T) {
	f := setup(t)
	vehicle := uuid.New()

	entry, err := f.svc.AddNote(context.Background(), Entry{
		ContractID: f.contract.ID,
		UserID:     f.user.ID,
		Details:    "fuel paid by client",
		Metadata: &domain.EventMetadata{
			Amount:    decimal.NewNullDecimal(decimal.RequireFromString("45.50")),
			VehicleID: &vehicle,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionNoteAdded, entry.Action)

	stored, err := repository.NewContractHistoryRepository(f.db).GetByID(dbctx.New(context.Background()), entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.Metadata.Amount.Decimal.Equal(decimal.RequireFromString("45.5")))
	assert.Equal(t, vehicle, *stored.Metadata.VehicleID)
}

func TestAddNoteUnknownContract(t *testing.T) {
	f := setup(t)

	_, err := f.svc.AddNote(context.Background(), Entry{
		ContractID: uuid.New(),
		UserID:     f.user.ID,
		Details:    "x",
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &domain.ContractHistoryEntry{}))
}

func TestAddNoteRequiresDetails(t *testing.T) {
	f := setup(t)

	_, err := f.svc.AddNote(context.Background(), Entry{ContractID: f.contract.ID, UserID: f.user.ID})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}
