package domain

import (
	"time"

	"github.com/google/uuid"
)

type RecordStatus string

const (
	RecordActive  RecordStatus = "active"
	RecordDeleted RecordStatus = "deleted"
)

// SoftDelete is embedded by rows that are never physically removed.
// Default reads filter on record_status explicitly at the repository boundary.
type SoftDelete struct {
	RecordStatus   RecordStatus `json:"record_status" gorm:"type:varchar(16);not null;index"`
	DeletedBy      *uuid.UUID   `json:"deleted_by,omitempty" gorm:"type:uuid"`
	DeletedAt      *time.Time   `json:"deleted_at,omitempty"`
	DeletionReason *string      `json:"deletion_reason,omitempty" gorm:"type:text"`
}

func (s SoftDelete) IsDeleted() bool {
	return s.RecordStatus == RecordDeleted
}

func (s *SoftDelete) ensureStatus() {
	if s.RecordStatus == "" {
		s.RecordStatus = RecordActive
	}
}
