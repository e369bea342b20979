// Package analysis classifies a voter against regional stats and renders
// a localized narrative message for the result.
package analysis

import (
	"context"

	"github.com/moodcast/backend/internal/models"
)

type Input struct {
	// Seed makes the random choices repeatable; callers pass the vote id.
	Seed   string
	Gender models.Gender
	Mood   models.Mood
	Stats  models.DashboardStats
	Region string
	Locale string
}

type Analyzer interface {
	Analyze(ctx context.Context, in Input) (string, error)
}

type Category string

const (
	CategoryMetaNudge       Category = "bad_nudge"
	CategoryCaution         Category = "caution"
	CategorySharedMisery    Category = "shared_misery"
	CategoryOpportunity     Category = "opportunity"
	CategoryEnvy            Category = "envy"
	CategoryDisaster        Category = "disaster"
	CategoryUtopia          Category = "utopia"
	CategoryPositiveOutlier Category = "positive_outlier"
	CategoryNegativeOutlier Category = "negative_outlier"
	CategoryBlackSheep      Category = "black_sheep"
	CategorySolidarity      Category = "solidarity"
	CategoryCarryingTeam    Category = "carrying_team"
	CategoryHarmony         Category = "harmony"
)

// Classify walks the decision list in order; the first match wins.
// nudge is true when the caller's meta-nudge roll succeeded.
func Classify(gender models.Gender, mood models.Mood, stats models.DashboardStats, nudge bool) Category {
	good := mood == models.MoodGood
	bad := !good
	mine := stats.ForGender(gender).Score
	other := stats.ForGender(gender.Opposite()).Score
	total := stats.Score

	switch {
	case bad && nudge:
		return CategoryMetaNudge
	case good && other < 30:
		return CategoryCaution
	case bad && other < 30:
		return CategorySharedMisery
	case good && other > 70:
		return CategoryOpportunity
	case bad && other > 70:
		return CategoryEnvy
	case bad && total < 20:
		return CategoryDisaster
	case good && total > 80:
		return CategoryUtopia
	case good && total < 40:
		return CategoryPositiveOutlier
	case bad && total > 60:
		return CategoryNegativeOutlier
	case bad && mine > 70:
		return CategoryBlackSheep
	case bad && mine < 30:
		return CategorySolidarity
	case good && mine < 30:
		return CategoryCarryingTeam
	case good && mine > 70:
		return CategoryHarmony
	case good:
		return CategoryPositiveOutlier
	}
	return CategoryNegativeOutlier
}
