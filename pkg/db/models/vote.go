package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/pkg/enums"
)

// Vote is a single device's hot/cold reaction to a deal. One row per (deal, device).
type Vote struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealID    uuid.UUID      `gorm:"column:deal_id;type:uuid;not null;uniqueIndex:votes_deal_device_key"`
	DeviceID  string         `gorm:"column:device_id;not null;uniqueIndex:votes_deal_device_key"`
	VoteType  enums.VoteType `gorm:"column:vote_type;type:vote_type;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
