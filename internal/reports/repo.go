package reports

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/db/models"
)

const uniqueDealReporter = "deal_reports_deal_reporter_key"

var (
	// ErrDuplicateReport is returned when the reporter already reported the deal.
	ErrDuplicateReport = errors.New("deal already reported by user")
	// ErrDailyLimit is returned once the reporter used up today's reports.
	ErrDailyLimit = errors.New("daily report limit reached")
)

// Repository persists deal reports.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores the report unless the reporter already reported the deal or filed
// dailyLimit reports since dayStart. It returns the deal's report count afterwards.
// The reporter's user row is locked for the duration so concurrent reports from the
// same account serialize on the limit check.
func (r *Repository) Create(ctx context.Context, report *models.DealReport, dayStart time.Time, dailyLimit int) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", report.ReportedBy).
			Find(&locked).Error; err != nil {
			return err
		}

		var dup int64
		if err := tx.Model(&models.DealReport{}).
			Where("deal_id = ? AND reported_by = ?", report.DealID, report.ReportedBy).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return ErrDuplicateReport
		}

		var today int64
		if err := tx.Model(&models.DealReport{}).
			Where("reported_by = ? AND created_at >= ?", report.ReportedBy, dayStart.UTC()).
			Count(&today).Error; err != nil {
			return err
		}
		if today >= int64(dailyLimit) {
			return ErrDailyLimit
		}

		if err := tx.Create(report).Error; err != nil {
			if db.IsUniqueViolation(err, uniqueDealReporter) {
				return ErrDuplicateReport
			}
			return err
		}

		return tx.Model(&models.DealReport{}).Where("deal_id = ?", report.DealID).Count(&total).Error
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
