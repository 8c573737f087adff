package reports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
)

type stubDeals struct {
	known map[uuid.UUID]bool
	err   error
}

func (s *stubDeals) FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.known[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Deal{ID: id}, nil
}

type stubReports struct {
	calls    []*models.DealReport
	dayStart time.Time
	limit    int
	count    int64
	err      error
}

func (s *stubReports) Create(ctx context.Context, report *models.DealReport, dayStart time.Time, dailyLimit int) (int64, error) {
	s.calls = append(s.calls, report)
	s.dayStart = dayStart
	s.limit = dailyLimit
	return s.count, s.err
}

func newStubService(t *testing.T, dealID uuid.UUID) (Service, *stubReports, *stubDeals) {
	t.Helper()
	reports := &stubReports{count: 3}
	deals := &stubDeals{known: map[uuid.UUID]bool{dealID: true}}
	svc, err := NewService(ServiceParams{
		ReportRepo: reports,
		DealRepo:   deals,
		Now:        func() time.Time { return baseTime },
	})
	require.NoError(t, err)
	return svc, reports, deals
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestReportSuccess(t *testing.T) {
	dealID := uuid.New()
	svc, reports, _ := newStubService(t, dealID)
	reporter := uuid.New()

	res, err := svc.Report(context.Background(), ReportInput{DealID: dealID, Reporter: reporter, Reason: "Expired"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.ReportCount)

	require.Len(t, reports.calls, 1)
	stored := reports.calls[0]
	assert.Equal(t, enums.ReportReasonExpired, stored.Reason)
	assert.Equal(t, reporter, stored.ReportedBy)
	assert.Nil(t, stored.Details)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), reports.dayStart)
	assert.Equal(t, DailyReportLimit, reports.limit)
}

func TestReportDetailsRules(t *testing.T) {
	dealID := uuid.New()
	svc, reports, _ := newStubService(t, dealID)

	_, err := svc.Report(context.Background(), ReportInput{DealID: dealID, Reporter: uuid.New(), Reason: "spam", Details: "  too short   "})
	requireCode(t, err, pkgerrors.CodeValidation)

	padded := "   " + strings.Repeat("a", MinDetailsLen-1) + "   "
	_, err = svc.Report(context.Background(), ReportInput{DealID: dealID, Reporter: uuid.New(), Reason: "misleading", Details: padded})
	requireCode(t, err, pkgerrors.CodeValidation)
	assert.Empty(t, reports.calls)

	details := strings.Repeat("é", MinDetailsLen)
	_, err = svc.Report(context.Background(), ReportInput{DealID: dealID, Reporter: uuid.New(), Reason: "misleading", Details: details})
	require.NoError(t, err)
	require.Len(t, reports.calls, 1)
	require.NotNil(t, reports.calls[0].Details)
	assert.Equal(t, details, *reports.calls[0].Details)

	_, err = svc.Report(context.Background(), ReportInput{DealID: dealID, Reporter: uuid.New(), Reason: "inappropriate"})
	require.NoError(t, err)
}

func TestReportValidation(t *testing.T) {
	dealID := uuid.New()
	svc, _, _ := newStubService(t, dealID)

	_, err := svc.Report(context.Background(), ReportInput{DealID: dealID, Reason: "expired"})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Report(context.Background(), ReportInput{DealID: dealID, Reporter: uuid.New(), Reason: "boring"})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Report(context.Background(), ReportInput{DealID: uuid.New(), Reporter: uuid.New(), Reason: "expired"})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestReportMapsRepositoryErrors(t *testing.T) {
	dealID := uuid.New()
	cases := []struct {
		err  error
		code pkgerrors.Code
	}{
		{ErrDuplicateReport, pkgerrors.CodeConflict},
		{ErrDailyLimit, pkgerrors.CodeRateLimit},
		{errors.New("connection reset"), pkgerrors.CodeDependency},
	}
	for _, tc := range cases {
		svc, reports, _ := newStubService(t, dealID)
		reports.err = tc.err
		_, err := svc.Report(context.Background(), ReportInput{DealID: dealID, Reporter: uuid.New(), Reason: "expired"})
		requireCode(t, err, tc.code)
	}
}
