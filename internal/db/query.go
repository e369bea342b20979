package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moodcast/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

const voteRowColumns = `mood, gender, region_lv0, region_lv1, region_lv2, region_lv0_std, region_lv1_std, region_lv2_std`

const voteColumns = `id, voter_id, created_at, gender, mood, region_lv0, region_lv1, region_lv2,
	region_lv0_std, region_lv1_std, region_lv2_std, lat, lng, analysis, ip_hash`

// placeholder renders the n-th (1-based) bind parameter.
type placeholder func(n int) string

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(int) string { return "?" }

// timestamp converts an instant to the driver's created_at representation.
type timestamp func(t time.Time) any

func pgTimestamp(t time.Time) any { return t.UTC() }

func sqliteTimestamp(t time.Time) any { return t.UnixMilli() }

// buildVoteQuery selects rows for f, newest first. A zero f.Until leaves
// the window open-ended.
func buildVoteQuery(f models.VoteFilter, ts timestamp, ph placeholder) (string, []any) {
	query := `SELECT ` + voteRowColumns + ` FROM mood_votes`
	args := []any{ts(f.Since)}
	wheres := []string{fmt.Sprintf("created_at >= %s", ph(len(args)))}
	if !f.Until.IsZero() {
		args = append(args, ts(f.Until))
		wheres = append(wheres, fmt.Sprintf("created_at <= %s", ph(len(args))))
	}
	add := func(column string, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		wheres = append(wheres, fmt.Sprintf("%s = %s", column, ph(len(args))))
	}
	add("region_lv2_std", f.Region2Std)
	add("region_lv1_std", f.Region1Std)
	add("region_lv0_std", f.Region0Std)
	add("gender", string(f.Gender))

	query += " WHERE " + strings.Join(wheres, " AND ")
	query += " ORDER BY created_at DESC"
	return query, args
}

func insertVoteQuery(ph placeholder) string {
	params := make([]string, 15)
	for i := range params {
		params[i] = ph(i + 1)
	}
	return `INSERT INTO mood_votes (` + voteColumns + `) VALUES (` + strings.Join(params, ", ") + `)`
}

func latestVoteQuery(ph placeholder) string {
	return `SELECT ` + voteColumns + ` FROM mood_votes WHERE voter_id = ` + ph(1) +
		` AND created_at >= ` + ph(2) + ` ORDER BY created_at DESC LIMIT 1`
}

// scanner is satisfied by pgx.Row(s) and *sql.Row(s).
type scanner interface {
	Scan(dest ...any) error
}

func scanVoteRow(s scanner) (models.VoteRow, error) {
	var r models.VoteRow
	var mood, gender string
	err := s.Scan(&mood, &gender,
		&r.Region.Region0, &r.Region.Region1, &r.Region.Region2,
		&r.RegionStd.Region0, &r.RegionStd.Region1, &r.RegionStd.Region2)
	r.Mood, r.Gender = models.Mood(mood), models.Gender(gender)
	return r, err
}

func voteArgs(v models.Vote, createdAt any) []any {
	return []any{
		v.ID, v.VoterID, createdAt, string(v.Gender), string(v.Mood),
		v.Region.Region0, v.Region.Region1, v.Region.Region2,
		v.RegionStd.Region0, v.RegionStd.Region1, v.RegionStd.Region2,
		v.Lat, v.Lng, v.Analysis, v.IPHash,
	}
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return models.Unknown
	}
	return v
}

// normalizeVote fills empty region fields with the Unknown sentinel.
func normalizeVote(v models.Vote) models.Vote {
	v.Region = models.Regions{Region0: orUnknown(v.Region.Region0), Region1: orUnknown(v.Region.Region1), Region2: orUnknown(v.Region.Region2)}
	v.RegionStd = models.Regions{Region0: orUnknown(v.RegionStd.Region0), Region1: orUnknown(v.RegionStd.Region1), Region2: orUnknown(v.RegionStd.Region2)}
	return v
}
