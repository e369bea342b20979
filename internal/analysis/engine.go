package analysis

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/moodcast/backend/internal/models"
	"github.com/moodcast/backend/internal/utils"
)

const defaultAnalyzing = "Analyzing data..."

type Engine struct {
	Pools     map[string]Pool
	Reference string
	// NudgeRate is the probability of the meta nudge for bad moods.
	NudgeRate float64
}

func NewEngine(nudgeRate float64) (*Engine, error) {
	pools, err := LoadPools()
	if err != nil {
		return nil, err
	}
	return &Engine{Pools: pools, Reference: "en", NudgeRate: nudgeRate}, nil
}

// Analyze is deterministic for a given Seed: the nudge roll and the
// template pick both come from a generator seeded by it.
func (e *Engine) Analyze(ctx context.Context, in Input) (string, error) {
	h := utils.HashStringToUint64(in.Seed)
	rng := rand.New(rand.NewPCG(h, h^0x9e3779b97f4a7c15))

	nudge := in.Mood == models.MoodBad && rng.Float64() < e.NudgeRate
	category := Classify(in.Gender, in.Mood, in.Stats, nudge)

	pool := e.pool(in.Locale)
	templates := pool.Scenarios[category]
	if len(templates) == 0 {
		if pool.Analyzing != "" {
			return pool.Analyzing, nil
		}
		return defaultAnalyzing, nil
	}
	tmpl := templates[rng.IntN(len(templates))]
	return Render(tmpl, pool, in), nil
}

// pool resolves locale by exact match, then base language, then the
// reference pool.
func (e *Engine) pool(locale string) Pool {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if p, ok := e.Pools[locale]; ok {
		return p
	}
	base, _, _ := strings.Cut(locale, "-")
	if p, ok := e.Pools[strings.ToLower(base)]; ok {
		return p
	}
	ref := e.Reference
	if ref == "" {
		ref = "en"
	}
	return e.Pools[ref]
}

// Render replaces every placeholder occurrence in tmpl.
func Render(tmpl string, pool Pool, in Input) string {
	r := strings.NewReplacer(
		"{region}", in.Region,
		"{gender}", genderLabel(pool, in.Gender),
		"{otherGender}", genderLabel(pool, in.Gender.Opposite()),
		"{myScore}", strconv.Itoa(in.Stats.ForGender(in.Gender).Score),
		"{otherScore}", strconv.Itoa(in.Stats.ForGender(in.Gender.Opposite()).Score),
	)
	return r.Replace(tmpl)
}

func genderLabel(pool Pool, g models.Gender) string {
	if label := pool.Genders[string(g)]; label != "" {
		return label
	}
	return string(g)
}
