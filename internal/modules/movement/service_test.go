package movement

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
	"tourrental/internal/modules/events"
	"tourrental/internal/modules/history"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/pkg/testutil"
	"tourrental/internal/repository"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	emitter  *testutil.Recorder
	user     *domain.User
	contract *domain.Contract
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger()
	tx := database.NewTxRunner(db)
	contracts := repository.NewContractRepository(db)
	ledger := history.NewService(repository.NewContractHistoryRepository(db), contracts, tx, log)
	emitter := &testutil.Recorder{}

	user := testutil.CreateUser(t, db, domain.RoleManager)
	booking := testutil.CreateBooking(t, db, nil)
	return fixture{
		db:       db,
		svc:      NewService(repository.NewMovementRepository(db), contracts, ledger, tx, emitter, log),
		emitter:  emitter,
		user:     user,
		contract: testutil.CreateContract(t, db, booking, user),
	}
}

func expense(amount string) CreateInput {
	return CreateInput{
		Type:      "fuel",
		Direction: domain.DirectionOut,
		Amount:    decimal.RequireFromString(amount),
		Date:      time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
		Detail:    "refuel before handover",
	}
}

func (f fixture) entry(t *testing.T, id uuid.UUID) *domain.ContractHistoryEntry {
	t.Helper()
	e, err := repository.NewContractHistoryRepository(f.db).GetByIDIncludingDeleted(dbctx.New(context.Background()), id)
	require.NoError(t, err)
	return e
}

func (f fixture) movement(t *testing.T, id uuid.UUID) *domain.Movement {
	t.Helper()
	m, err := repository.NewMovementRepository(f.db).GetByIDIncludingDeleted(dbctx.New(context.Background()), id)
	require.NoError(t, err)
	return m
}

func TestCreateStandaloneMovement(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(context.Background(), expense("80.50"), f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, created.Entry)
	assert.Nil(t, created.Movement.ContractHistoryEntryID)
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &domain.ContractHistoryEntry{}))

	stored := f.movement(t, created.Movement.ID)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("80.5")))
	assert.Equal(t, domain.RecordActive, stored.RecordStatus)
	assert.Equal(t, []events.Type{events.MovementCreated}, f.emitter.Types())
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreateInput)
	}{
		{"missing type", func(in *CreateInput) { in.Type = "  " }},
		{"bad direction", func(in *CreateInput) { in.Direction = "SIDEWAYS" }},
		{"zero amount", func(in *CreateInput) { in.Amount = decimal.Zero }},
		{"negative amount", func(in *CreateInput) { in.Amount = decimal.NewFromInt(-5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			in := expense("10")
			tt.mutate(&in)

			_, err := f.svc.Create(context.Background(), in, f.user.ID)
			assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
			assert.Equal(t, int64(0), testutil.Count(t, f.db, &domain.Movement{}))
		})
	}
}

func TestCreateContractMovementLinksBothSides(t *testing.T) {
	f := setup(t)
	vehicle := uuid.New()
	medium := "card"
	in := expense("500")
	in.ContractID = &f.contract.ID
	in.VehicleID = &vehicle
	in.PaymentMedium = &medium
	in.Extension = true

	created, err := f.svc.Create(context.Background(), in, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, created.Entry)

	m := f.movement(t, created.Movement.ID)
	e := f.entry(t, created.Entry.ID)
	require.NotNil(t, m.ContractHistoryEntryID)
	require.NotNil(t, e.RelatedMovementID)
	assert.Equal(t, e.ID, *m.ContractHistoryEntryID)
	assert.Equal(t, m.ID, *e.RelatedMovementID)

	assert.Equal(t, domain.ActionExtensionAdded, e.Action)
	assert.True(t, e.Metadata.Amount.Decimal.Equal(decimal.NewFromInt(500)))
	assert.True(t, e.Metadata.Date.Equal(in.Date))
	assert.Equal(t, vehicle, *e.Metadata.VehicleID)
	assert.Equal(t, medium, *e.Metadata.PaymentMedium)

	evs := f.emitter.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, f.contract.ID, *evs[0].ContractID)
}

func TestCreateContractMovementDefaultsToNote(t *testing.T) {
	f := setup(t)
	in := expense("20")
	in.ContractID = &f.contract.ID

	created, err := f.svc.Create(context.Background(), in, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionNoteAdded, created.Entry.Action)
}

func TestCreateUnknownContract(t *testing.T) {
	f := setup(t)
	in := expense("20")
	missing := uuid.New()
	in.ContractID = &missing

	_, err := f.svc.Create(context.Background(), in, f.user.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &domain.Movement{}))
}

func TestCreateRollsBackMovementWhenEntryFails(t *testing.T) {
	f := setup(t)
	testutil.FailOn(t, f.db, "create", "contract_history")
	in := expense("20")
	in.ContractID = &f.contract.ID

	_, err := f.svc.Create(context.Background(), in, f.user.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeTransactionAborted))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &domain.Movement{}))
	assert.Empty(t, f.emitter.Types())
}

func TestDeleteAndRestoreCascade(t *testing.T) {
	f := setup(t)
	in := expense("75")
	in.ContractID = &f.contract.ID
	created, err := f.svc.Create(context.Background(), in, f.user.ID)
	require.NoError(t, err)
	reason := " duplicate entry "

	deleted, err := f.svc.DeleteMovement(context.Background(), created.Movement.ID, f.user.ID, &reason)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
	assert.Equal(t, "duplicate entry", *deleted.DeletionReason)

	e := f.entry(t, created.Entry.ID)
	assert.True(t, e.IsDeleted())
	assert.Equal(t, f.user.ID, *e.DeletedBy)
	assert.Equal(t, "duplicate entry", *e.DeletionReason)

	restored, err := f.svc.RestoreMovement(context.Background(), created.Movement.ID, f.user.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())
	assert.False(t, f.entry(t, created.Entry.ID).IsDeleted())
	assert.Nil(t, f.movement(t, created.Movement.ID).DeletedAt)

	assert.Equal(t, []events.Type{events.MovementCreated, events.MovementDeleted, events.MovementRestored}, f.emitter.Types())
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := setup(t)
	created, err := f.svc.Create(context.Background(), expense("30"), f.user.ID)
	require.NoError(t, err)

	first, err := f.svc.DeleteMovement(context.Background(), created.Movement.ID, f.user.ID, nil)
	require.NoError(t, err)
	second, err := f.svc.DeleteMovement(context.Background(), created.Movement.ID, uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, *first.DeletedBy, *second.DeletedBy)

	_, err = f.svc.RestoreMovement(context.Background(), created.Movement.ID, f.user.ID)
	require.NoError(t, err)
	_, err = f.svc.RestoreMovement(context.Background(), created.Movement.ID, f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, []events.Type{events.MovementCreated, events.MovementDeleted, events.MovementRestored}, f.emitter.Types())
}

func TestDeleteSurvivesBrokenLink(t *testing.T) {
	f := setup(t)
	dangling := uuid.New()
	m := &domain.Movement{
		Type:                   "fuel",
		Direction:              domain.DirectionOut,
		Amount:                 decimal.NewFromInt(10),
		Date:                   time.Now().UTC(),
		ContractHistoryEntryID: &dangling,
	}
	require.NoError(t, repository.NewMovementRepository(f.db).Create(dbctx.New(context.Background()), m))

	deleted, err := f.svc.DeleteMovement(context.Background(), m.ID, f.user.ID, nil)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
}

func TestDeleteRollsBackWhenEntryUpdateFails(t *testing.T) {
	f := setup(t)
	in := expense("75")
	in.ContractID = &f.contract.ID
	created, err := f.svc.Create(context.Background(), in, f.user.ID)
	require.NoError(t, err)
	testutil.FailOn(t, f.db, "update", "contract_history")

	_, err = f.svc.DeleteMovement(context.Background(), created.Movement.ID, f.user.ID, nil)
	require.Error(t, err)
	assert.False(t, f.movement(t, created.Movement.ID).IsDeleted())
}

func TestDeleteUnknownMovement(t *testing.T) {
	f := setup(t)

	_, err := f.svc.DeleteMovement(context.Background(), uuid.New(), f.user.ID, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestListHidesDeletedByDefault(t *testing.T) {
	f := setup(t)
	var ids []uuid.UUID
	for i, amount := range []string{"10", "20", "30"} {
		in := expense(amount)
		in.Date = in.Date.Add(time.Duration(i) * time.Hour)
		created, err := f.svc.Create(context.Background(), in, f.user.ID)
		require.NoError(t, err)
		ids = append(ids, created.Movement.ID)
	}
	_, err := f.svc.DeleteMovement(context.Background(), ids[0], f.user.ID, nil)
	require.NoError(t, err)

	page, err := f.svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.TotalItems)
	require.Len(t, page.Data, 2)
	assert.Equal(t, ids[2], page.Data[0].ID)

	all, err := f.svc.List(context.Background(), ListFilter{IncludeDeleted: true, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Pagination.TotalItems)
	assert.Len(t, all.Data, 1)

	_, err = f.svc.List(context.Background(), ListFilter{Direction: "UP"})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}
