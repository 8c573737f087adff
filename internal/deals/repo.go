package deals

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	"github.com/dealboard/dealboard-backend/pkg/pagination"
)

// Repository encapsulates deal persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a deals repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a deal.
func (r *Repository) Create(ctx context.Context, deal *models.Deal) error {
	return r.db.WithContext(ctx).Create(deal).Error
}

// FindByID loads a deal by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	if err := r.db.WithContext(ctx).First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// listFilter is a resolved get-deals query.
type listFilter struct {
	Search      string
	Category    *enums.DealCategory
	Archived    bool
	Status      *enums.DealStatus
	SubmittedBy *uuid.UUID
	LiveAt      *time.Time
}

// List returns one page of deals matching the filter and the total match count.
func (r *Repository) List(ctx context.Context, filter listFilter, page pagination.Params) ([]models.Deal, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Deal
	err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) filtered(ctx context.Context, f listFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Deal{})

	switch {
	case f.SubmittedBy != nil:
		q = q.Where("submitted_by_user_id = ?", *f.SubmittedBy)
	case f.Archived:
		q = q.Where("is_archived = ?", true)
	case f.Status != nil && *f.Status != enums.DealStatusApproved:
		q = q.Where("status = ?", *f.Status)
	default:
		q = q.Where("status = ? AND is_archived = ?", enums.DealStatusApproved, false)
	}
	if f.Archived && f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.LiveAt != nil {
		q = q.Where("expires_at > ?", f.LiveAt.UTC())
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return q
}

// Transition locks the deal, lets apply decide the column updates from its current
// state and returns the updated row. apply returning an error aborts the transaction.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, apply func(current *models.Deal) (map[string]any, error)) (*models.Deal, error) {
	var updated models.Deal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Deal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", id).Error; err != nil {
			return err
		}
		updates, err := apply(&current)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Deal{}).Where("id = ?", id).UpdateColumns(updates).Error; err != nil {
				return err
			}
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteWhen locks the deal, checks allow against its current state and deletes it.
// Votes and reports go with it through ON DELETE CASCADE.
func (r *Repository) DeleteWhen(ctx context.Context, id uuid.UUID, allow func(current *models.Deal) error) (*models.Deal, error) {
	var deleted models.Deal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&deleted, "id = ?", id).Error; err != nil {
			return err
		}
		if err := allow(&deleted); err != nil {
			return err
		}
		return tx.Delete(&models.Deal{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// ImageURLs returns the image_url of every deal; the orphan cleanup uses it to decide
// which stored objects are still referenced.
func (r *Repository) ImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	if err := r.db.WithContext(ctx).Model(&models.Deal{}).Distinct().Pluck("image_url", &urls).Error; err != nil {
		return nil, err
	}
	return urls, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
