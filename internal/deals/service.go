package deals

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealboard/dealboard-backend/internal/identity"
	"github.com/dealboard/dealboard-backend/internal/users"
	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/pagination"
)

const (
	minTitleLen       = 3
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	maxLocationLen    = 200
	maxPromoCodeLen   = 64
	maxReasonLen      = 500
	minExpiryDays     = 1
	maxExpiryDays     = 30
)

// Service implements the deal lifecycle: browsing, submission and moderation.
type Service interface {
	List(ctx context.Context, viewer *identity.AuthenticatedUser, params ListParams) (*ListResult, error)
	ListMine(ctx context.Context, viewer *identity.AuthenticatedUser, page pagination.Params) (*ListResult, error)
	Get(ctx context.Context, viewer *identity.AuthenticatedUser, id uuid.UUID) (*DealDTO, error)
	Submit(ctx context.Context, submitter *identity.AuthenticatedUser, input SubmitInput) (*SubmitResult, error)
	Approve(ctx context.Context, moderator *identity.AuthenticatedUser, id uuid.UUID) (*DealDTO, error)
	Reject(ctx context.Context, moderator *identity.AuthenticatedUser, id uuid.UUID, reason string) (*DealDTO, error)
	Archive(ctx context.Context, admin *identity.AuthenticatedUser, id uuid.UUID) (*DealDTO, error)
	Restore(ctx context.Context, admin *identity.AuthenticatedUser, id uuid.UUID) (*DealDTO, error)
	Delete(ctx context.Context, admin *identity.AuthenticatedUser, id uuid.UUID) error
}

type dealRepository interface {
	Create(ctx context.Context, deal *models.Deal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	List(ctx context.Context, filter listFilter, page pagination.Params) ([]models.Deal, int64, error)
	Transition(ctx context.Context, id uuid.UUID, apply func(current *models.Deal) (map[string]any, error)) (*models.Deal, error)
	DeleteWhen(ctx context.Context, id uuid.UUID, allow func(current *models.Deal) error) (*models.Deal, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type imageStore interface {
	KeyFromURL(raw string) (string, bool)
	Delete(ctx context.Context, key string) error
}

// ServiceParams groups dependencies for the deals service.
type ServiceParams struct {
	DealRepo dealRepository
	UserRepo userFinder
	Images   imageStore
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	deals  dealRepository
	users  userFinder
	images imageStore
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds a deals service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DealRepo == nil {
		return nil, fmt.Errorf("deal repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		deals:  params.DealRepo,
		users:  params.UserRepo,
		images: params.Images,
		logg:   params.Logger,
		now:    now,
	}, nil
}

func (s *service) List(ctx context.Context, viewer *identity.AuthenticatedUser, params ListParams) (*ListResult, error) {
	filter := listFilter{
		Search:   params.Search,
		Category: params.Category,
		Archived: params.Archived,
		Status:   params.Status,
	}
	if params.public() {
		now := s.now().UTC()
		filter.LiveAt = &now
	} else if !viewer.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: moderator permissions required")
	}
	return s.list(ctx, filter, params.Page)
}

func (s *service) ListMine(ctx context.Context, viewer *identity.AuthenticatedUser, page pagination.Params) (*ListResult, error) {
	if viewer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: missing credentials")
	}
	id := viewer.ID
	return s.list(ctx, listFilter{SubmittedBy: &id}, page)
}

func (s *service) list(ctx context.Context, filter listFilter, page pagination.Params) (*ListResult, error) {
	page = page.Normalize()
	rows, total, err := s.deals.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deals")
	}
	return &ListResult{
		Deals:   fromModels(rows),
		Total:   total,
		Page:    page.Page,
		Limit:   page.Limit,
		HasMore: page.HasMore(total),
	}, nil
}

func (s *service) Get(ctx context.Context, viewer *identity.AuthenticatedUser, id uuid.UUID) (*DealDTO, error) {
	deal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(viewer, deal) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: deal is not public")
	}
	return FromModel(deal), nil
}

func canView(viewer *identity.AuthenticatedUser, deal *models.Deal) bool {
	if deal.IsPublic() {
		return true
	}
	if viewer == nil {
		return false
	}
	if viewer.CanModerate() {
		return true
	}
	return viewer.Verified && deal.SubmittedByUserID != nil && *deal.SubmittedByUserID == viewer.ID
}

func (s *service) Submit(ctx context.Context, submitter *identity.AuthenticatedUser, input SubmitInput) (*SubmitResult, error) {
	if submitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: missing credentials")
	}
	deal, err := buildDeal(input)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, submitter.ID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submitter")
	}

	now := s.now().UTC()
	submittedBy := user.ID
	deal.SubmittedByUserID = &submittedBy
	deal.PostedBy = users.DisplayName(user)
	deal.Status = enums.DealStatusPending
	if user.AutoApprove {
		deal.Status = enums.DealStatusApproved
	}
	deal.CreatedAt = now
	deal.UpdatedAt = now
	deal.ExpiresAt = now.Add(time.Duration(input.ExpiryDays) * 24 * time.Hour)

	if err := s.deals.Create(ctx, deal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deal")
	}
	s.info(ctx, deal.ID, "deal.submitted")

	return &SubmitResult{
		Deal:         FromModel(deal),
		AutoApproved: deal.Status == enums.DealStatusApproved,
	}, nil
}

func (s *service) Approve(ctx context.Context, moderator *identity.AuthenticatedUser, id uuid.UUID) (*DealDTO, error) {
	if !moderator.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: moderator permissions required")
	}
	return s.transition(ctx, id, "deal.approved", func(d *models.Deal) (map[string]any, error) {
		if d.Status != enums.DealStatusPending {
			return nil, stateConflict(d, "only pending deals can be approved")
		}
		return s.moderationUpdates(moderator, map[string]any{
			"status":      enums.DealStatusApproved,
			"is_archived": false,
		}), nil
	})
}

func (s *service) Reject(ctx context.Context, moderator *identity.AuthenticatedUser, id uuid.UUID, reason string) (*DealDTO, error) {
	if !moderator.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: moderator permissions required")
	}
	reason = SanitizeReason(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rejection reason is required")
	}
	return s.transition(ctx, id, "deal.rejected", func(d *models.Deal) (map[string]any, error) {
		if d.Status == enums.DealStatusRejected {
			return nil, stateConflict(d, "deal is already rejected")
		}
		return s.moderationUpdates(moderator, map[string]any{
			"status":           enums.DealStatusRejected,
			"is_archived":      true,
			"rejection_reason": reason,
		}), nil
	})
}

func (s *service) Archive(ctx context.Context, admin *identity.AuthenticatedUser, id uuid.UUID) (*DealDTO, error) {
	if !admin.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: admin permissions required")
	}
	return s.transition(ctx, id, "deal.archived", func(d *models.Deal) (map[string]any, error) {
		if !d.IsPublic() {
			return nil, stateConflict(d, "only live approved deals can be archived")
		}
		return s.moderationUpdates(admin, map[string]any{"is_archived": true}), nil
	})
}

func (s *service) Restore(ctx context.Context, admin *identity.AuthenticatedUser, id uuid.UUID) (*DealDTO, error) {
	if !admin.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: admin permissions required")
	}
	return s.transition(ctx, id, "deal.restored", func(d *models.Deal) (map[string]any, error) {
		if !d.IsArchived && d.Status != enums.DealStatusRejected {
			return nil, stateConflict(d, "only archived or rejected deals can be restored")
		}
		return s.moderationUpdates(admin, map[string]any{
			"status":           enums.DealStatusApproved,
			"is_archived":      false,
			"rejection_reason": nil,
		}), nil
	})
}

func (s *service) Delete(ctx context.Context, admin *identity.AuthenticatedUser, id uuid.UUID) error {
	if !admin.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: admin permissions required")
	}
	deleted, err := s.deals.DeleteWhen(ctx, id, func(d *models.Deal) error {
		if d.Status != enums.DealStatusRejected && !d.IsArchived {
			return stateConflict(d, "only rejected or archived deals can be deleted")
		}
		return nil
	})
	if err != nil {
		return s.mapWriteError(err, "delete deal")
	}
	s.info(ctx, deleted.ID, "deal.deleted")
	s.removeImage(ctx, deleted)
	return nil
}

// removeImage deletes the stored object behind a deleted deal. Failures are logged only;
// the orphan cleanup job retries them.
func (s *service) removeImage(ctx context.Context, deal *models.Deal) {
	if s.images == nil {
		return
	}
	key, ok := s.images.KeyFromURL(deal.ImageURL)
	if !ok {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"deal_id": deal.ID.String(), "object_key": key})
		s.logg.Error(logCtx, "deal.image_delete_failed", err)
	}
}

func (s *service) transition(ctx context.Context, id uuid.UUID, event string, apply func(*models.Deal) (map[string]any, error)) (*DealDTO, error) {
	updated, err := s.deals.Transition(ctx, id, apply)
	if err != nil {
		return nil, s.mapWriteError(err, "update deal")
	}
	s.info(ctx, updated.ID, event)
	return FromModel(updated), nil
}

func (s *service) moderationUpdates(actor *identity.AuthenticatedUser, updates map[string]any) map[string]any {
	now := s.now().UTC()
	updates["moderated_by"] = actor.ID
	updates["moderated_at"] = now
	updates["updated_at"] = now
	return updates
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	deal, err := s.deals.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	return deal, nil
}

func (s *service) mapWriteError(err error, action string) error {
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Deal not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func (s *service) info(ctx context.Context, dealID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithDealID(ctx, dealID.String()), msg)
}

func stateConflict(d *models.Deal, msg string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).WithDetails(map[string]any{
		"status":     d.Status,
		"isArchived": d.IsArchived,
	})
}

func buildDeal(in SubmitInput) (*models.Deal, error) {
	details := map[string]string{}

	title := strings.TrimSpace(in.Title)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		details["title"] = fmt.Sprintf("must be between %d and %d characters", minTitleLen, maxTitleLen)
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	if !isHTTPURL(imageURL) {
		details["imageUrl"] = "must be a valid URL"
	}
	link := strings.TrimSpace(in.Link)
	if link != "" && !isHTTPURL(link) {
		details["link"] = "must be a valid URL"
	}
	category, err := enums.ParseDealCategory(strings.ToLower(strings.TrimSpace(in.Category)))
	if err != nil {
		details["category"] = "is invalid"
	}
	if in.ExpiryDays < minExpiryDays || in.ExpiryDays > maxExpiryDays {
		details["expiryDays"] = fmt.Sprintf("must be between %d and %d", minExpiryDays, maxExpiryDays)
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		details["originalPrice"] = "must not be negative"
	}
	if in.DiscountedPrice != nil && in.DiscountedPrice.IsNegative() {
		details["discountedPrice"] = "must not be negative"
	}
	if in.OriginalPrice != nil && in.DiscountedPrice != nil && in.DiscountedPrice.GreaterThan(*in.OriginalPrice) {
		details["discountedPrice"] = "must not exceed originalPrice"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid deal submission").WithDetails(details)
	}

	return &models.Deal{
		Title:           title,
		Description:     optionalText(in.Description, maxDescriptionLen),
		ImageURL:        imageURL,
		Link:            optionalText(link, 0),
		Location:        optionalText(in.Location, maxLocationLen),
		Category:        category,
		PromoCode:       optionalText(in.PromoCode, maxPromoCodeLen),
		OriginalPrice:   nullPrice(in.OriginalPrice),
		DiscountedPrice: nullPrice(in.DiscountedPrice),
	}, nil
}

// SanitizeReason trims, strips control characters other than newlines and caps the
// length of a moderator-supplied rejection reason.
func SanitizeReason(raw string) string {
	return truncateRunes(stripControl(strings.TrimSpace(raw)), maxReasonLen)
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, s)
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

func optionalText(raw string, max int) *string {
	v := truncateRunes(stripControl(strings.TrimSpace(raw)), max)
	if v == "" {
		return nil
	}
	return &v
}

func nullPrice(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v.Round(2))
}

func isHTTPURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
