package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/pkg/enums"
)

// Deal is a time-limited promotional listing.
type Deal struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title             string              `gorm:"column:title;not null"`
	Description       *string             `gorm:"column:description"`
	ImageURL          string              `gorm:"column:image_url;not null"`
	Link              *string             `gorm:"column:link"`
	Location          *string             `gorm:"column:location"`
	Category          enums.DealCategory  `gorm:"column:category;type:deal_category;not null"`
	PromoCode         *string             `gorm:"column:promo_code"`
	OriginalPrice     decimal.NullDecimal `gorm:"column:original_price;type:numeric(12,2)"`
	DiscountedPrice   decimal.NullDecimal `gorm:"column:discounted_price;type:numeric(12,2)"`
	HotCount          int                 `gorm:"column:hot_count;not null;default:0"`
	ColdCount         int                 `gorm:"column:cold_count;not null;default:0"`
	SubmittedByUserID *uuid.UUID          `gorm:"column:submitted_by_user_id;type:uuid"`
	PostedBy          string              `gorm:"column:posted_by;not null"`
	Status            enums.DealStatus    `gorm:"column:status;type:deal_status;not null;default:pending"`
	IsArchived        bool                `gorm:"column:is_archived;not null;default:false"`
	RejectionReason   *string             `gorm:"column:rejection_reason"`
	ModeratedBy       *uuid.UUID          `gorm:"column:moderated_by;type:uuid"`
	ModeratedAt       *time.Time          `gorm:"column:moderated_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	ExpiresAt         time.Time           `gorm:"column:expires_at;not null"`
}

func (d *Deal) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// IsPublic reports whether anyone may see the deal without authenticating.
func (d Deal) IsPublic() bool {
	return d.Status == enums.DealStatusApproved && !d.IsArchived
}
