package votes

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
)

const uniqueDealDevice = "votes_deal_device_key"

// ErrAlreadyVoted is returned when the device already holds a vote on the deal.
var ErrAlreadyVoted = errors.New("device already voted on deal")

// Tally is the vote counters of a deal after a write.
type Tally struct {
	Hot  int
	Cold int
}

// Repository persists votes and the denormalized counters on deals.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Cast records the vote and bumps the matching counter in one transaction.
func (r *Repository) Cast(ctx context.Context, vote *models.Vote) (*Tally, error) {
	var tally Tally
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Vote{}).
			Where("deal_id = ? AND device_id = ?", vote.DealID, vote.DeviceID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyVoted
		}

		if err := tx.Create(vote).Error; err != nil {
			if db.IsUniqueViolation(err, uniqueDealDevice) {
				return ErrAlreadyVoted
			}
			return err
		}

		column := "cold_count"
		if vote.VoteType == enums.VoteTypeHot {
			column = "hot_count"
		}
		if err := tx.Model(&models.Deal{}).
			Where("id = ?", vote.DealID).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error; err != nil {
			return err
		}

		var deal models.Deal
		if err := tx.Select("hot_count", "cold_count").First(&deal, "id = ?", vote.DealID).Error; err != nil {
			return err
		}
		tally = Tally{Hot: deal.HotCount, Cold: deal.ColdCount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tally, nil
}
