package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/pkg/enums"
)

// DealReport records one user's abuse report against a deal. One row per (deal, reporter).
type DealReport struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealID     uuid.UUID          `gorm:"column:deal_id;type:uuid;not null;uniqueIndex:deal_reports_deal_reporter_key"`
	ReportedBy uuid.UUID          `gorm:"column:reported_by;type:uuid;not null;uniqueIndex:deal_reports_deal_reporter_key"`
	Reason     enums.ReportReason `gorm:"column:reason;type:report_reason;not null"`
	Details    *string            `gorm:"column:details"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (DealReport) TableName() string {
	return "deal_reports"
}

func (r *DealReport) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
