package deals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	"github.com/dealboard/dealboard-backend/pkg/pagination"
)

// DealDTO is the client-facing representation of a deal.
type DealDTO struct {
	ID              uuid.UUID           `json:"id"`
	Title           string              `json:"title"`
	Description     *string             `json:"description"`
	ImageURL        string              `json:"imageUrl"`
	Link            *string             `json:"link"`
	Location        *string             `json:"location"`
	Category        enums.DealCategory  `json:"category"`
	PromoCode       *string             `json:"promoCode"`
	OriginalPrice   decimal.NullDecimal `json:"originalPrice"`
	DiscountedPrice decimal.NullDecimal `json:"discountedPrice"`
	HotCount        int                 `json:"hotCount"`
	ColdCount       int                 `json:"coldCount"`
	SubmittedBy     *uuid.UUID          `json:"submittedBy"`
	PostedBy        string              `json:"postedBy"`
	Status          enums.DealStatus    `json:"status"`
	IsArchived      bool                `json:"isArchived"`
	RejectionReason *string             `json:"rejectionReason,omitempty"`
	ModeratedBy     *uuid.UUID          `json:"moderatedBy,omitempty"`
	ModeratedAt     *time.Time          `json:"moderatedAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	ExpiresAt       time.Time           `json:"expiresAt"`
}

func FromModel(d *models.Deal) *DealDTO {
	if d == nil {
		return nil
	}
	return &DealDTO{
		ID:              d.ID,
		Title:           d.Title,
		Description:     d.Description,
		ImageURL:        d.ImageURL,
		Link:            d.Link,
		Location:        d.Location,
		Category:        d.Category,
		PromoCode:       d.PromoCode,
		OriginalPrice:   d.OriginalPrice,
		DiscountedPrice: d.DiscountedPrice,
		HotCount:        d.HotCount,
		ColdCount:       d.ColdCount,
		SubmittedBy:     d.SubmittedByUserID,
		PostedBy:        d.PostedBy,
		Status:          d.Status,
		IsArchived:      d.IsArchived,
		RejectionReason: d.RejectionReason,
		ModeratedBy:     d.ModeratedBy,
		ModeratedAt:     d.ModeratedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ExpiresAt:       d.ExpiresAt,
	}
}

func fromModels(rows []models.Deal) []DealDTO {
	out := make([]DealDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// ListParams are the get-deals query inputs after parsing.
type ListParams struct {
	Page     pagination.Params
	Search   string
	Category *enums.DealCategory
	Archived bool
	Status   *enums.DealStatus
}

// public reports whether the request only touches the public feed.
func (p ListParams) public() bool {
	if p.Archived {
		return false
	}
	return p.Status == nil || *p.Status == enums.DealStatusApproved
}

// ListResult is one page of deals.
type ListResult struct {
	Deals   []DealDTO
	Total   int64
	Page    int
	Limit   int
	HasMore bool
}

// SubmitInput holds a new deal as entered by the submitter.
type SubmitInput struct {
	Title           string
	Description     string
	ImageURL        string
	Link            string
	Location        string
	Category        string
	PromoCode       string
	OriginalPrice   *decimal.Decimal
	DiscountedPrice *decimal.Decimal
	ExpiryDays      int
}

// SubmitResult reports the stored deal and whether it skipped the queue.
type SubmitResult struct {
	Deal         *DealDTO
	AutoApproved bool
}
