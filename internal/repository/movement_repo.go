package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
)

type MovementFilter struct {
	Type           string
	Direction      domain.MovementDirection
	VehicleID      *uuid.UUID
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// MovementRepository reads only active movements unless a method says otherwise.
type MovementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) active(dbc dbctx.Context) *gorm.DB {
	return dbc.DB(r.db).Where("record_status = ?", domain.RecordActive)
}

func (r *MovementRepository) Create(dbc dbctx.Context, m *domain.Movement) error {
	if err := dbc.DB(r.db).Create(m).Error; err != nil {
		return apperr.MapError("movement.create", err)
	}
	return nil
}

func (r *MovementRepository) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Movement, error) {
	var m domain.Movement
	if err := r.active(dbc).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, apperr.MapError("movement.get", err)
	}
	return &m, nil
}

func (r *MovementRepository) GetByIDIncludingDeleted(dbc dbctx.Context, id uuid.UUID) (*domain.Movement, error) {
	var m domain.Movement
	if err := dbc.DB(r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, apperr.MapError("movement.get", err)
	}
	return &m, nil
}

func (r *MovementRepository) List(dbc dbctx.Context, f MovementFilter) ([]domain.Movement, int64, error) {
	q := dbc.DB(r.db).Model(&domain.Movement{})
	if !f.IncludeDeleted {
		q = q.Where("record_status = ?", domain.RecordActive)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Direction != "" {
		q = q.Where("direction = ?", f.Direction)
	}
	if f.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *f.VehicleID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.MapError("movement.list", err)
	}
	var movements []domain.Movement
	if err := q.Order("date desc").Limit(f.Limit).Offset(f.Offset).Find(&movements).Error; err != nil {
		return nil, 0, apperr.MapError("movement.list", err)
	}
	return movements, total, nil
}

func (r *MovementRepository) MarkDeleted(dbc dbctx.Context, id, by uuid.UUID, at time.Time, reason *string) error {
	return r.updateStatus(dbc, id, map[string]any{
		"record_status":   domain.RecordDeleted,
		"deleted_by":      by,
		"deleted_at":      at,
		"deletion_reason": reason,
	})
}

func (r *MovementRepository) MarkActive(dbc dbctx.Context, id uuid.UUID) error {
	return r.updateStatus(dbc, id, map[string]any{
		"record_status":   domain.RecordActive,
		"deleted_by":      nil,
		"deleted_at":      nil,
		"deletion_reason": nil,
	})
}

func (r *MovementRepository) updateStatus(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	res := dbc.DB(r.db).Model(&domain.Movement{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return apperr.MapError("movement.update_status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("movement.update_status", "movement not found")
	}
	return nil
}

func (r *MovementRepository) SetHistoryEntry(dbc dbctx.Context, id uuid.UUID, entryID *uuid.UUID) error {
	res := dbc.DB(r.db).Model(&domain.Movement{}).Where("id = ?", id).Update("contract_history_entry_id", entryID)
	if res.Error != nil {
		return apperr.MapError("movement.set_history_entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("movement.set_history_entry", "movement not found")
	}
	return nil
}

// ListUnlinked returns active movements without a history link, oldest first.
func (r *MovementRepository) ListUnlinked(dbc dbctx.Context) ([]domain.Movement, error) {
	var movements []domain.Movement
	err := r.active(dbc).
		Where("contract_history_entry_id IS NULL").
		Order("date asc").
		Find(&movements).Error
	if err != nil {
		return nil, apperr.MapError("movement.list_unlinked", err)
	}
	return movements, nil
}

// ListLinked returns every movement with a history link, deleted ones included.
func (r *MovementRepository) ListLinked(dbc dbctx.Context) ([]domain.Movement, error) {
	var movements []domain.Movement
	err := dbc.DB(r.db).Where("contract_history_entry_id IS NOT NULL").Order("date asc").Find(&movements).Error
	if err != nil {
		return nil, apperr.MapError("movement.list_linked", err)
	}
	return movements, nil
}

func (r *MovementRepository) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Movement, error) {
	out := make(map[uuid.UUID]domain.Movement, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var movements []domain.Movement
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&movements).Error; err != nil {
		return nil, apperr.MapError("movement.get_by_ids", err)
	}
	for _, m := range movements {
		out[m.ID] = m
	}
	return out, nil
}

func (r *MovementRepository) CountLinks(dbc dbctx.Context) (linked, unlinked int64, err error) {
	if err = r.active(dbc).Model(&domain.Movement{}).
		Where("contract_history_entry_id IS NOT NULL").Count(&linked).Error; err != nil {
		return 0, 0, apperr.MapError("movement.count_links", err)
	}
	if err = r.active(dbc).Model(&domain.Movement{}).
		Where("contract_history_entry_id IS NULL").Count(&unlinked).Error; err != nil {
		return 0, 0, apperr.MapError("movement.count_links", err)
	}
	return linked, unlinked, nil
}

func (r *MovementRepository) ClearAllLinks(dbc dbctx.Context) (int64, error) {
	res := dbc.DB(r.db).Model(&domain.Movement{}).
		Where("contract_history_entry_id IS NOT NULL").
		Update("contract_history_entry_id", nil)
	if res.Error != nil {
		return 0, apperr.MapError("movement.clear_links", res.Error)
	}
	return res.RowsAffected, nil
}
