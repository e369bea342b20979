package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/moodcast/backend/internal/models"
)

// SQLiteStore serves local SQLite files (modernc) and remote libSQL
// databases through database/sql.
type SQLiteStore struct {
	DB *sql.DB
}

func sqliteDriver(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "libsql://") || strings.HasPrefix(databaseURL, "wss://") {
		return "libsql"
	}
	return "sqlite"
}

func NewSQLite(ctx context.Context, databaseURL string) (*SQLiteStore, error) {
	driver := sqliteDriver(databaseURL)
	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY on the local file
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) Close() {
	_ = s.DB.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements("INTEGER") {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) InsertVote(ctx context.Context, v models.Vote) error {
	v = normalizeVote(v)
	_, err := s.DB.ExecContext(ctx, insertVoteQuery(question), voteArgs(v, sqliteTimestamp(v.CreatedAt))...)
	return err
}

func (s *SQLiteStore) QueryVotes(ctx context.Context, f models.VoteFilter) ([]models.VoteRow, error) {
	query, args := buildVoteQuery(f, sqliteTimestamp, question)
	rows, err := s.DB.QueryContext(ctx, query, args...)
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

func (s *SQLiteStore) LatestVoteSince(ctx context.Context, voterID string, since time.Time) (models.Vote, error) {
	row := s.DB.QueryRowContext(ctx, latestVoteQuery(question), voterID, sqliteTimestamp(since))
	var v models.Vote
	var gender, mood string
	var createdAt int64
	var lat, lng sql.NullFloat64
	var analysis sql.NullString
	err := row.Scan(&v.ID, &v.VoterID, &createdAt, &gender, &mood,
		&v.Region.Region0, &v.Region.Region1, &v.Region.Region2,
		&v.RegionStd.Region0, &v.RegionStd.Region1, &v.RegionStd.Region2,
		&lat, &lng, &analysis, &v.IPHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Vote{}, ErrNotFound
		}
		return models.Vote{}, err
	}
	v.Gender, v.Mood = models.Gender(gender), models.Mood(mood)
	v.CreatedAt = time.UnixMilli(createdAt).UTC()
	if lat.Valid {
		v.Lat = &lat.Float64
	}
	if lng.Valid {
		v.Lng = &lng.Float64
	}
	if analysis.Valid {
		v.Analysis = &analysis.String
	}
	return v, nil
}
