package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/moodcast/backend/internal/models"
	"github.com/moodcast/backend/internal/utils"
)

const (
	LevelDistrict = "region2"
	LevelCity     = "region1"
	LevelCountry  = "region0"
	LevelGlobal   = "global"
)

// VoteReader is the read side of the vote store.
type VoteReader interface {
	QueryVotes(ctx context.Context, f models.VoteFilter) ([]models.VoteRow, error)
}

// Aggregator computes today's stats for a region context.
type Aggregator struct {
	Store           VoteReader
	DefaultTimezone string
	Now             func() time.Time
}

// DayStart is the UTC instant of today's local midnight in timezone,
// falling back to DefaultTimezone when it is empty or unknown.
func (a *Aggregator) DayStart(timezone string) time.Time {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return utils.StartOfDay(now(), utils.LoadLocation(timezone, a.DefaultTimezone))
}

// Stats walks district, city, country, then global, stopping at the
// first level with votes. Only standardized names are matched, and each
// level uses its own field. extra rows count as already stored votes.
func (a *Aggregator) Stats(ctx context.Context, std models.Regions, timezone string, extra ...models.VoteRow) (models.DashboardStats, error) {
	return a.stats(ctx, std, a.DayStart(timezone), time.Time{}, extra)
}

// StatsAsOf is Stats frozen at asOf: the local day containing asOf, and
// only votes stored at or before it. A vote's own created_at reproduces
// the stats it was submitted against.
func (a *Aggregator) StatsAsOf(ctx context.Context, std models.Regions, timezone string, asOf time.Time) (models.DashboardStats, error) {
	since := utils.StartOfDay(asOf, utils.LoadLocation(timezone, a.DefaultTimezone))
	return a.stats(ctx, std, since, asOf, nil)
}

func (a *Aggregator) stats(ctx context.Context, std models.Regions, since, until time.Time, extra []models.VoteRow) (models.DashboardStats, error) {
	for _, level := range []string{LevelDistrict, LevelCity, LevelCountry} {
		name := levelName(std, level)
		if !usable(name) {
			continue
		}
		f := levelFilter(since, level, name)
		f.Until = until
		rows, err := a.Store.QueryVotes(ctx, f)
		if err != nil {
			return models.DashboardStats{}, err
		}
		rows = append(matching(extra, level, name), rows...)
		if len(rows) > 0 {
			return Tally(rows, level), nil
		}
	}
	rows, err := a.Store.QueryVotes(ctx, models.VoteFilter{Since: since, Until: until})
	if err != nil {
		return models.DashboardStats{}, err
	}
	all := make([]models.VoteRow, 0, len(extra)+len(rows))
	all = append(append(all, extra...), rows...)
	return Tally(all, LevelGlobal), nil
}

// Level computes stats for exactly one level without falling back.
func (a *Aggregator) Level(ctx context.Context, level string, name string, timezone string) (models.DashboardStats, error) {
	since := a.DayStart(timezone)
	f := models.VoteFilter{Since: since}
	if level != LevelGlobal {
		f = levelFilter(since, level, name)
	}
	rows, err := a.Store.QueryVotes(ctx, f)
	if err != nil {
		return models.DashboardStats{}, err
	}
	stats := Tally(rows, level)
	if len(rows) == 0 && level != LevelGlobal {
		stats.Region, stats.RegionStd = name, name
	}
	return stats, nil
}

// Tally scores rows. Labels come from the first row at level, or the
// global literal.
func Tally(rows []models.VoteRow, level string) models.DashboardStats {
	stats := models.DashboardStats{Level: level, Region: models.GlobalRegion, RegionStd: models.GlobalRegion}
	if level != LevelGlobal && len(rows) > 0 {
		stats.Region = levelName(rows[0].Region, level)
		stats.RegionStd = levelName(rows[0].RegionStd, level)
	}

	var good, maleGood, femaleGood int
	for _, r := range rows {
		isGood := r.Mood == models.MoodGood
		if isGood {
			good++
		}
		switch r.Gender {
		case models.GenderMale:
			stats.Male.Total++
			if isGood {
				maleGood++
			}
		case models.GenderFemale:
			stats.Female.Total++
			if isGood {
				femaleGood++
			}
		}
	}
	stats.Total = len(rows)
	stats.Score = Score(good, stats.Total)
	stats.Male.Score = Score(maleGood, stats.Male.Total)
	stats.Female.Score = Score(femaleGood, stats.Female.Total)
	return stats
}

// Score is the rounded share of good votes. An empty set scores 100.
func Score(good, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(good) / float64(total) * 100))
}

func levelFilter(since time.Time, level string, name string) models.VoteFilter {
	f := models.VoteFilter{Since: since}
	switch level {
	case LevelDistrict:
		f.Region2Std = name
	case LevelCity:
		f.Region1Std = name
	case LevelCountry:
		f.Region0Std = name
	}
	return f
}

func matching(rows []models.VoteRow, level string, name string) []models.VoteRow {
	var out []models.VoteRow
	for _, r := range rows {
		if levelName(r.RegionStd, level) == name {
			out = append(out, r)
		}
	}
	return out
}

func levelName(r models.Regions, level string) string {
	switch level {
	case LevelDistrict:
		return r.Region2
	case LevelCity:
		return r.Region1
	case LevelCountry:
		return r.Region0
	}
	return models.GlobalRegion
}

func usable(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && name != models.Unknown
}
