package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/moodcast/backend/internal/models"
)

// VoteStore persists votes and answers the aggregation queries.
type VoteStore interface {
	CreateSchema(ctx context.Context) error
	InsertVote(ctx context.Context, v models.Vote) error
	QueryVotes(ctx context.Context, f models.VoteFilter) ([]models.VoteRow, error)
	LatestVoteSince(ctx context.Context, voterID string, since time.Time) (models.Vote, error)
	Ping(ctx context.Context) error
	Close()
}

// Open picks the backend from the URL scheme: postgres URLs use pgx,
// everything else goes to SQLite or libSQL.
func Open(ctx context.Context, databaseURL string, logger zerolog.Logger) (VoteStore, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		logger.Info().Str("driver", "pgx").Msg("opening vote store")
		s, err := New(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	driver := sqliteDriver(databaseURL)
	logger.Info().Str("driver", driver).Msg("opening vote store")
	s, err := NewSQLite(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) CreateSchema(ctx context.Context) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements("TIMESTAMPTZ") {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) InsertVote(ctx context.Context, v models.Vote) error {
	v = normalizeVote(v)
	_, err := s.Pool.Exec(ctx, insertVoteQuery(dollar), voteArgs(v, pgTimestamp(v.CreatedAt))...)
	return err
}

func (s *Store) QueryVotes(ctx context.Context, f models.VoteFilter) ([]models.VoteRow, error) {
	query, args := buildVoteQuery(f, pgTimestamp, dollar)
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.VoteRow
	for rows.Next() {
		r, err := scanVoteRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) LatestVoteSince(ctx context.Context, voterID string, since time.Time) (models.Vote, error) {
	row := s.Pool.QueryRow(ctx, latestVoteQuery(dollar), voterID, pgTimestamp(since))
	var v models.Vote
	var gender, mood string
	err := row.Scan(&v.ID, &v.VoterID, &v.CreatedAt, &gender, &mood,
		&v.Region.Region0, &v.Region.Region1, &v.Region.Region2,
		&v.RegionStd.Region0, &v.RegionStd.Region1, &v.RegionStd.Region2,
		&v.Lat, &v.Lng, &v.Analysis, &v.IPHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Vote{}, ErrNotFound
		}
		return models.Vote{}, err
	}
	v.Gender, v.Mood = models.Gender(gender), models.Mood(mood)
	v.CreatedAt = v.CreatedAt.UTC()
	return v, nil
}
