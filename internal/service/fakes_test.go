package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/moodcast/backend/internal/db"
	"github.com/moodcast/backend/internal/models"
)

type memStore struct {
	mu        sync.Mutex
	votes     []models.Vote
	insertErr error
	queryErr  error
	queries   []models.VoteFilter
}

func (m *memStore) InsertVote(ctx context.Context, v models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.votes = append(m.votes, v)
	return nil
}

func (m *memStore) QueryVotes(ctx context.Context, f models.VoteFilter) ([]models.VoteRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, f)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	matched := m.matching(f)
	rows := make([]models.VoteRow, 0, len(matched))
	for _, v := range matched {
		rows = append(rows, models.VoteRow{Mood: v.Mood, Gender: v.Gender, Region: v.Region, RegionStd: v.RegionStd})
	}
	return rows, nil
}

func (m *memStore) LatestVoteSince(ctx context.Context, voterID string, since time.Time) (models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.matching(models.VoteFilter{Since: since}) {
		if v.VoterID == voterID {
			return v, nil
		}
	}
	return models.Vote{}, db.ErrNotFound
}

// matching must be called with mu held. Newest first.
func (m *memStore) matching(f models.VoteFilter) []models.Vote {
	var out []models.Vote
	for _, v := range m.votes {
		if v.CreatedAt.Before(f.Since) || (!f.Until.IsZero() && v.CreatedAt.After(f.Until)) {
			continue
		}
		if f.Region2Std != "" && v.RegionStd.Region2 != f.Region2Std {
			continue
		}
		if f.Region1Std != "" && v.RegionStd.Region1 != f.Region1Std {
			continue
		}
		if f.Region0Std != "" && v.RegionStd.Region0 != f.Region0Std {
			continue
		}
		if f.Gender != "" && v.Gender != f.Gender {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string]models.DashboardStats
	fail     map[string]bool
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[channel] {
		return errors.New("channel closed")
	}
	if p.messages == nil {
		p.messages = map[string]models.DashboardStats{}
	}
	p.messages[channel] = payload.(models.DashboardStats)
	return nil
}

var (
	seoulStd   = models.Regions{Region0: "South Korea", Region1: "Seoul", Region2: "Gangnam-gu"}
	seoulKo    = models.Regions{Region0: "대한민국", Region1: "서울특별시", Region2: "강남구"}
	mapoStd    = models.Regions{Region0: "South Korea", Region1: "Seoul", Region2: "Mapo-gu"}
	busanStd   = models.Regions{Region0: "South Korea", Region1: "Busan", Region2: "Haeundae-gu"}
	tokyoStd   = models.Regions{Region0: "Japan", Region1: "Tokyo", Region2: "Shinjuku"}
	fixedNow   = time.Date(2025, 3, 2, 3, 0, 0, 0, time.UTC) // 12:00 in Seoul
	seoulStart = time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
)

func storedVote(id string, offset time.Duration, g models.Gender, m models.Mood, display, std models.Regions) models.Vote {
	return models.Vote{ID: id, VoterID: "v-" + id, CreatedAt: seoulStart.Add(offset), Gender: g, Mood: m, Region: display, RegionStd: std}
}

func newAggregator(store VoteReader) *Aggregator {
	return &Aggregator{Store: store, DefaultTimezone: "Asia/Seoul", Now: func() time.Time { return fixedNow }}
}
