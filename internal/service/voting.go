package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moodcast/backend/internal/analysis"
	"github.com/moodcast/backend/internal/db"
	"github.com/moodcast/backend/internal/location"
	"github.com/moodcast/backend/internal/models"
	"github.com/moodcast/backend/internal/utils"
)

var (
	ErrInvalidVote = errors.New("invalid vote")
	ErrNoVoteToday = errors.New("no vote today")
)

type VoteStore interface {
	VoteReader
	InsertVote(ctx context.Context, v models.Vote) error
	LatestVoteSince(ctx context.Context, voterID string, since time.Time) (models.Vote, error)
}

type LocationResolver interface {
	Resolve(ctx context.Context, h location.Hints, locale string, coords *models.Coords) models.Location
}

type SubmitRequest struct {
	VoterID string
	Gender  models.Gender
	Mood    models.Mood
	Locale  string
	Coords  *models.Coords
	Hints   location.Hints
}

type SubmitResult struct {
	Vote     models.Vote
	Location models.Location
	Stats    models.DashboardStats
}

type VotingService struct {
	Store       VoteStore
	Resolver    LocationResolver
	Aggregator  *Aggregator
	Analyzer    analysis.Analyzer
	Broadcaster *Broadcaster
	IPSalt      string
	Logger      zerolog.Logger
	Now         func() time.Time
}

func (s *VotingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit resolves the voter's region, scores today's votes including
// this one, writes the analysis once and stores the vote. Only the
// insert can fail the call; broadcast runs after and is best effort.
func (s *VotingService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if !req.Gender.Valid() || !req.Mood.Valid() {
		return SubmitResult{}, ErrInvalidVote
	}

	loc := s.Resolver.Resolve(ctx, req.Hints, req.Locale, req.Coords)
	vote := models.Vote{
		ID:        uuid.NewString(),
		VoterID:   req.VoterID,
		CreatedAt: s.now(),
		Gender:    req.Gender,
		Mood:      req.Mood,
		Region:    loc.Display(),
		RegionStd: loc.Std,
		IPHash:    utils.HashIP(req.Hints.IP, s.IPSalt),
	}
	if req.Coords != nil {
		lat, lng := req.Coords.Lat, req.Coords.Lng
		vote.Lat, vote.Lng = &lat, &lng
	}

	own := models.VoteRow{Mood: vote.Mood, Gender: vote.Gender, Region: vote.Region, RegionStd: vote.RegionStd}
	stats, err := s.Aggregator.Stats(ctx, loc.Std, loc.Timezone, own)
	if err != nil {
		s.Logger.Error().Err(err).Str("vote_id", vote.ID).Msg("stats before insert failed")
		stats = Tally([]models.VoteRow{own}, LevelGlobal)
	} else {
		vote.Analysis = s.analyze(ctx, vote, stats, req.Locale)
	}

	if err := s.Store.InsertVote(ctx, vote); err != nil {
		return SubmitResult{}, fmt.Errorf("insert vote: %w", err)
	}
	s.Logger.Info().
		Str("vote_id", vote.ID).
		Str("mood", string(vote.Mood)).
		Str("region_std", location.DisplayName(vote.RegionStd, models.GlobalRegion)).
		Msg("vote stored")

	if s.Broadcaster != nil {
		s.Broadcaster.Broadcast(ctx, vote.RegionStd, loc.Timezone)
	}
	return SubmitResult{Vote: vote, Location: loc, Stats: stats}, nil
}

func (s *VotingService) analyze(ctx context.Context, vote models.Vote, stats models.DashboardStats, locale string) *string {
	if s.Analyzer == nil {
		return nil
	}
	text, err := s.Analyzer.Analyze(ctx, analysis.Input{
		Seed:   vote.ID,
		Gender: vote.Gender,
		Mood:   vote.Mood,
		Stats:  stats,
		Region: stats.Region,
		Locale: locale,
	})
	if err != nil {
		s.Logger.Warn().Err(err).Str("vote_id", vote.ID).Msg("analysis failed")
		return nil
	}
	return &text
}

// Today returns the voter's latest vote since local midnight in timezone.
// A vote stored without analysis gets one regenerated from its id and the
// stats as of its created_at, so repeated reads agree; the stored row is
// left untouched.
func (s *VotingService) Today(ctx context.Context, voterID string, timezone string, locale string) (models.Vote, error) {
	if voterID == "" {
		return models.Vote{}, ErrNoVoteToday
	}
	since := s.Aggregator.DayStart(timezone)
	v, err := s.Store.LatestVoteSince(ctx, voterID, since)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.Vote{}, ErrNoVoteToday
		}
		return models.Vote{}, err
	}
	if v.Analysis == nil {
		stats, err := s.Aggregator.StatsAsOf(ctx, v.RegionStd, timezone, v.CreatedAt)
		if err != nil {
			s.Logger.Warn().Err(err).Str("vote_id", v.ID).Msg("analysis regeneration skipped")
			return v, nil
		}
		v.Analysis = s.analyze(ctx, v, stats, locale)
	}
	return v, nil
}
