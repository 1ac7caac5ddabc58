package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
)

// ContractHistoryRepository reads only active entries unless a method says otherwise.
type ContractHistoryRepository struct {
	db *gorm.DB
}

func NewContractHistoryRepository(db *gorm.DB) *ContractHistoryRepository {
	return &ContractHistoryRepository{db: db}
}

func (r *ContractHistoryRepository) active(dbc dbctx.Context) *gorm.DB {
	return dbc.DB(r.db).Where("contract_history.record_status = ?", domain.RecordActive)
}

func (r *ContractHistoryRepository) Create(dbc dbctx.Context, e *domain.ContractHistoryEntry) error {
	if err := dbc.DB(r.db).Omit(clause.Associations).Create(e).Error; err != nil {
		return apperr.MapError("history.create", err)
	}
	return nil
}

func (r *ContractHistoryRepository) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ContractHistoryEntry, error) {
	var e domain.ContractHistoryEntry
	if err := r.active(dbc).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, apperr.MapError("history.get", err)
	}
	return &e, nil
}

func (r *ContractHistoryRepository) GetByIDIncludingDeleted(dbc dbctx.Context, id uuid.UUID) (*domain.ContractHistoryEntry, error) {
	var e domain.ContractHistoryEntry
	if err := dbc.DB(r.db).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, apperr.MapError("history.get", err)
	}
	return &e, nil
}

// ListByContract returns the active timeline in creation order with the performing user loaded.
func (r *ContractHistoryRepository) ListByContract(dbc dbctx.Context, contractID uuid.UUID) ([]domain.ContractHistoryEntry, error) {
	var entries []domain.ContractHistoryEntry
	err := r.active(dbc).
		Preload("PerformedByUser").
		Where("contract_id = ?", contractID).
		Order("created_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, apperr.MapError("history.list", err)
	}
	return entries, nil
}

func (r *ContractHistoryRepository) MarkDeleted(dbc dbctx.Context, id, by uuid.UUID, at time.Time, reason *string) error {
	return r.updateStatus(dbc, id, map[string]any{
		"record_status":   domain.RecordDeleted,
		"deleted_by":      by,
		"deleted_at":      at,
		"deletion_reason": reason,
	})
}

func (r *ContractHistoryRepository) MarkActive(dbc dbctx.Context, id uuid.UUID) error {
	return r.updateStatus(dbc, id, map[string]any{
		"record_status":   domain.RecordActive,
		"deleted_by":      nil,
		"deleted_at":      nil,
		"deletion_reason": nil,
	})
}

func (r *ContractHistoryRepository) updateStatus(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	res := dbc.DB(r.db).Model(&domain.ContractHistoryEntry{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return apperr.MapError("history.update_status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("history.update_status", "history entry not found")
	}
	return nil
}

func (r *ContractHistoryRepository) SetRelatedMovement(dbc dbctx.Context, id uuid.UUID, movementID *uuid.UUID) error {
	res := dbc.DB(r.db).Model(&domain.ContractHistoryEntry{}).Where("id = ?", id).Update("related_movement_id", movementID)
	if res.Error != nil {
		return apperr.MapError("history.set_related_movement", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("history.set_related_movement", "history entry not found")
	}
	return nil
}

// ListUnlinkedWithAmount returns active entries carrying an amount and no movement link, oldest first.
func (r *ContractHistoryRepository) ListUnlinkedWithAmount(dbc dbctx.Context) ([]domain.ContractHistoryEntry, error) {
	var entries []domain.ContractHistoryEntry
	err := r.active(dbc).
		Where("related_movement_id IS NULL AND meta_amount IS NOT NULL").
		Order("created_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, apperr.MapError("history.list_unlinked", err)
	}
	return entries, nil
}

// ListLinked returns every entry with a movement link, deleted ones included.
func (r *ContractHistoryRepository) ListLinked(dbc dbctx.Context) ([]domain.ContractHistoryEntry, error) {
	var entries []domain.ContractHistoryEntry
	err := dbc.DB(r.db).Where("related_movement_id IS NOT NULL").Order("created_at asc").Find(&entries).Error
	if err != nil {
		return nil, apperr.MapError("history.list_linked", err)
	}
	return entries, nil
}

func (r *ContractHistoryRepository) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]domain.ContractHistoryEntry, error) {
	out := make(map[uuid.UUID]domain.ContractHistoryEntry, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var entries []domain.ContractHistoryEntry
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&entries).Error; err != nil {
		return nil, apperr.MapError("history.get_by_ids", err)
	}
	for _, e := range entries {
		out[e.ID] = e
	}
	return out, nil
}

func (r *ContractHistoryRepository) CountLinks(dbc dbctx.Context) (linked, unlinked int64, err error) {
	if err = r.active(dbc).Model(&domain.ContractHistoryEntry{}).
		Where("related_movement_id IS NOT NULL").Count(&linked).Error; err != nil {
		return 0, 0, apperr.MapError("history.count_links", err)
	}
	if err = r.active(dbc).Model(&domain.ContractHistoryEntry{}).
		Where("related_movement_id IS NULL AND meta_amount IS NOT NULL").Count(&unlinked).Error; err != nil {
		return 0, 0, apperr.MapError("history.count_links", err)
	}
	return linked, unlinked, nil
}

func (r *ContractHistoryRepository) ClearAllLinks(dbc dbctx.Context) (int64, error) {
	res := dbc.DB(r.db).Model(&domain.ContractHistoryEntry{}).
		Where("related_movement_id IS NOT NULL").
		Update("related_movement_id", nil)
	if res.Error != nil {
		return 0, apperr.MapError("history.clear_links", res.Error)
	}
	return res.RowsAffected, nil
}
