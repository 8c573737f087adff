package votes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/metrics"
)

const maxDeviceIDLen = 128

// Service accepts hot/cold votes from devices.
type Service interface {
	Cast(ctx context.Context, input CastVoteInput) (*CastVoteResult, error)
}

type voteRepository interface {
	Cast(ctx context.Context, vote *models.Vote) (*Tally, error)
}

type dealFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
}

type ServiceParams struct {
	VoteRepo voteRepository
	DealRepo dealFinder
	Metrics  *metrics.DomainMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	votes   voteRepository
	deals   dealFinder
	metrics *metrics.DomainMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.VoteRepo == nil {
		return nil, fmt.Errorf("vote repository is required")
	}
	if params.DealRepo == nil {
		return nil, fmt.Errorf("deal repository is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		votes:   params.VoteRepo,
		deals:   params.DealRepo,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) Cast(ctx context.Context, input CastVoteInput) (*CastVoteResult, error) {
	deviceID := strings.TrimSpace(input.DeviceID)
	if input.DealID == uuid.Nil || deviceID == "" || strings.TrimSpace(input.VoteType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}
	if utf8.RuneCountInString(deviceID) > maxDeviceIDLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid deviceId")
	}
	voteType, err := enums.ParseVoteType(strings.ToLower(strings.TrimSpace(input.VoteType)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid vote type")
	}

	deal, err := s.deals.FindByID(ctx, input.DealID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	if !deal.IsPublic() || !deal.ExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: deal is not open for voting")
	}

	tally, err := s.votes.Cast(ctx, &models.Vote{
		DealID:    deal.ID,
		DeviceID:  deviceID,
		VoteType:  voteType,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyVoted) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "You have already voted on this deal")
		}
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record vote")
	}

	s.metrics.IncVote(voteType.String())
	if s.logg != nil {
		logCtx := s.logg.WithDealID(ctx, deal.ID.String())
		logCtx = s.logg.WithField(logCtx, "vote_type", voteType.String())
		s.logg.Info(logCtx, "vote.cast")
	}
	return &CastVoteResult{HotVotes: tally.Hot, ColdVotes: tally.Cold}, nil
}
