package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/moodcast/backend/internal/models"
	"github.com/moodcast/backend/internal/pubsub"
)

// Broadcaster pushes fresh stats to every channel a voter belongs to.
type Broadcaster struct {
	Aggregator *Aggregator
	Publisher  pubsub.Publisher
	Logger     zerolog.Logger
}

type broadcastTarget struct {
	level string
	name  string
}

func targets(std models.Regions) []broadcastTarget {
	var out []broadcastTarget
	seen := map[string]bool{}
	// coarsest first, so a region1 that fell back to the country name
	// publishes country stats
	for _, level := range []string{LevelCountry, LevelCity, LevelDistrict} {
		name := levelName(std, level)
		if !usable(name) || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, broadcastTarget{level: level, name: name})
	}
	return append(out, broadcastTarget{level: LevelGlobal, name: models.GlobalRegion})
}

// Broadcast recomputes and publishes each level concurrently. Failures
// are logged per channel and never returned; it reports how many
// channels were published.
func (b *Broadcaster) Broadcast(ctx context.Context, std models.Regions, timezone string) int {
	ts := targets(std)
	published := make([]bool, len(ts))
	var g errgroup.Group
	for i, t := range ts {
		g.Go(func() error {
			channel := pubsub.ChannelName(t.name)
			stats, err := b.Aggregator.Level(ctx, t.level, t.name, timezone)
			if err != nil {
				b.Logger.Error().Err(err).Str("channel", channel).Str("level", t.level).Msg("broadcast stats failed")
				return nil
			}
			if err := b.Publisher.Publish(ctx, channel, stats); err != nil {
				b.Logger.Error().Err(err).Str("channel", channel).Msg("broadcast publish failed")
				return nil
			}
			published[i] = true
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range published {
		if ok {
			n++
		}
	}
	return n
}
