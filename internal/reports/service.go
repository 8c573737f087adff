package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/metrics"
)

const (
	DailyReportLimit = 5
	MinDetailsLen    = 30
	maxDetailsLen    = 1000
)

type Service interface {
	Report(ctx context.Context, input ReportInput) (*ReportResult, error)
}

type reportRepository interface {
	Create(ctx context.Context, report *models.DealReport, dayStart time.Time, dailyLimit int) (int64, error)
}

type dealFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
}

type ServiceParams struct {
	ReportRepo reportRepository
	DealRepo   dealFinder
	Metrics    *metrics.DomainMetrics
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	reports reportRepository
	deals   dealFinder
	metrics *metrics.DomainMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.ReportRepo == nil {
		return nil, fmt.Errorf("report repository is required")
	}
	if params.DealRepo == nil {
		return nil, fmt.Errorf("deal repository is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		reports: params.ReportRepo,
		deals:   params.DealRepo,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) Report(ctx context.Context, input ReportInput) (*ReportResult, error) {
	if input.DealID == uuid.Nil || input.Reporter == uuid.Nil || strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}
	reason, err := enums.ParseReportReason(strings.ToLower(strings.TrimSpace(input.Reason)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid report reason")
	}
	details := cleanDetails(input.Details)
	if reason.RequiresDetails() && utf8.RuneCountInString(details) < MinDetailsLen {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation,
			"Details of at least %d characters are required for %s reports", MinDetailsLen, reason)
	}

	if _, err := s.deals.FindByID(ctx, input.DealID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}

	now := s.now().UTC()
	report := &models.DealReport{
		DealID:     input.DealID,
		ReportedBy: input.Reporter,
		Reason:     reason,
		CreatedAt:  now,
	}
	if details != "" {
		report.Details = &details
	}

	count, err := s.reports.Create(ctx, report, startOfDay(now), DailyReportLimit)
	switch {
	case errors.Is(err, ErrDuplicateReport):
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "You have already reported this deal")
	case errors.Is(err, ErrDailyLimit):
		return nil, pkgerrors.Newf(pkgerrors.CodeRateLimit, "Daily report limit of %d reached", DailyReportLimit)
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record report")
	}

	s.metrics.IncReport(reason.String())
	if s.logg != nil {
		logCtx := s.logg.WithDealID(ctx, input.DealID.String())
		logCtx = s.logg.WithUserID(logCtx, input.Reporter.String())
		logCtx = s.logg.WithField(logCtx, "report_reason", reason.String())
		s.logg.Info(logCtx, "deal.reported")
	}
	return &ReportResult{ReportCount: count}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cleanDetails(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(raw))
	if utf8.RuneCountInString(cleaned) > maxDetailsLen {
		cleaned = string([]rune(cleaned)[:maxDetailsLen])
	}
	return cleaned
}
