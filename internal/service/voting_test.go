package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/moodcast/backend/internal/analysis"
	"github.com/moodcast/backend/internal/geocode"
	"github.com/moodcast/backend/internal/location"
	"github.com/moodcast/backend/internal/models"
	"github.com/moodcast/backend/internal/pubsub"
)

type reverseGeocoder map[string]models.Address

func (g reverseGeocoder) Search(ctx context.Context, query string, lang string) (models.Address, error) {
	return models.Address{}, geocode.ErrNotFound
}

func (g reverseGeocoder) Reverse(ctx context.Context, lat, lng float64, lang string) (models.Address, error) {
	addr, ok := g[lang]
	if !ok {
		return models.Address{}, geocode.ErrNotFound
	}
	return addr, nil
}

type zoneAt string

func (z zoneAt) TimezoneName(lat, lng float64) string { return string(z) }

type stubAnalyzer struct {
	text  string
	err   error
	input analysis.Input
}

func (a *stubAnalyzer) Analyze(ctx context.Context, in analysis.Input) (string, error) {
	a.input = in
	return a.text, a.err
}

var gangnam = reverseGeocoder{
	"ko": {Country: "대한민국", CountryCode: "kr", City: "서울특별시", Admin: map[int]string{4: "서울특별시", 6: "강남구"}},
	"fr": {Country: "Corée du Sud", CountryCode: "kr", City: "Séoul", Admin: map[int]string{4: "Séoul", 6: "Gangnam-gu"}},
	"en": {Country: "South Korea", CountryCode: "kr", City: "Seoul", Admin: map[int]string{4: "Seoul", 6: "Gangnam-gu"}},
}

type votingFixture struct {
	svc      *VotingService
	store    *memStore
	pub      *recordingPublisher
	analyzer *stubAnalyzer
}

func newVotingFixture() *votingFixture {
	store := &memStore{}
	pub := &recordingPublisher{}
	agg := newAggregator(store)
	analyzer := &stubAnalyzer{text: "You are not alone today."}
	resolver := &location.Resolver{
		Geocoder:        gangnam,
		Timezones:       zoneAt("Asia/Seoul"),
		Reference:       "en",
		DefaultTimezone: "Asia/Seoul",
		Logger:          zerolog.Nop(),
	}
	svc := &VotingService{
		Store:       store,
		Resolver:    resolver,
		Aggregator:  agg,
		Analyzer:    analyzer,
		Broadcaster: &Broadcaster{Aggregator: agg, Publisher: pub, Logger: zerolog.Nop()},
		IPSalt:      "salt",
		Logger:      zerolog.Nop(),
		Now:         func() time.Time { return fixedNow },
	}
	return &votingFixture{svc: svc, store: store, pub: pub, analyzer: analyzer}
}

func gpsRequest(locale string) SubmitRequest {
	return SubmitRequest{
		VoterID: "voter-1",
		Gender:  models.GenderFemale,
		Mood:    models.MoodBad,
		Locale:  locale,
		Coords:  &models.Coords{Lat: 37.4979, Lng: 127.0276},
		Hints:   location.Hints{IP: "203.0.113.7"},
	}
}

func TestSubmitStoresStandardNamesRegardlessOfLocale(t *testing.T) {
	for _, locale := range []string{"ko", "fr", "en"} {
		t.Run(locale, func(t *testing.T) {
			f := newVotingFixture()
			res, err := f.svc.Submit(context.Background(), gpsRequest(locale))
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if res.Vote.RegionStd != seoulStd {
				t.Fatalf("expected std %+v, got %+v", seoulStd, res.Vote.RegionStd)
			}
			if len(f.store.votes) != 1 || f.store.votes[0].RegionStd != seoulStd {
				t.Fatalf("unexpected stored votes: %+v", f.store.votes)
			}
		})
	}
}

func TestSubmitEndToEnd(t *testing.T) {
	f := newVotingFixture()
	res, err := f.svc.Submit(context.Background(), gpsRequest("ko"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	v := res.Vote
	if v.ID == "" || v.VoterID != "voter-1" || !v.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected vote identity: %+v", v)
	}
	if v.Region != seoulKo {
		t.Fatalf("expected display %+v, got %+v", seoulKo, v.Region)
	}
	if v.Lat == nil || *v.Lat != 37.4979 || v.Lng == nil || *v.Lng != 127.0276 {
		t.Fatalf("coordinates not stored: %+v", v)
	}
	if v.IPHash == "" || v.IPHash == "203.0.113.7" {
		t.Fatalf("expected hashed ip, got %q", v.IPHash)
	}
	if v.Analysis == nil || *v.Analysis != "You are not alone today." {
		t.Fatalf("expected analysis, got %v", v.Analysis)
	}
	if res.Location.Timezone != "Asia/Seoul" {
		t.Fatalf("expected Seoul timezone, got %q", res.Location.Timezone)
	}

	// own vote is counted at the most specific level
	if res.Stats.Level != LevelDistrict || res.Stats.Total != 1 || res.Stats.Score != 0 || res.Stats.Region != "강남구" {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	in := f.analyzer.input
	if in.Seed != v.ID || in.Region != "강남구" || in.Locale != "ko" || in.Stats.Female.Total != 1 {
		t.Fatalf("unexpected analysis input: %+v", in)
	}

	for _, name := range []string{"Gangnam-gu", "Seoul", "South Korea", models.GlobalRegion} {
		stats, ok := f.pub.messages[pubsub.ChannelName(name)]
		if !ok {
			t.Fatalf("missing broadcast on %s", name)
		}
		if stats.Total != 1 {
			t.Fatalf("%s: expected stored vote in broadcast, got %+v", name, stats)
		}
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	f := newVotingFixture()
	req := gpsRequest("en")
	req.Mood = "meh"
	if _, err := f.svc.Submit(context.Background(), req); !errors.Is(err, ErrInvalidVote) {
		t.Fatalf("expected ErrInvalidVote, got %v", err)
	}
	req = gpsRequest("en")
	req.Gender = ""
	if _, err := f.svc.Submit(context.Background(), req); !errors.Is(err, ErrInvalidVote) {
		t.Fatalf("expected ErrInvalidVote, got %v", err)
	}
	if len(f.store.votes) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestSubmitSurfacesInsertFailure(t *testing.T) {
	f := newVotingFixture()
	f.store.insertErr = errors.New("disk full")
	if _, err := f.svc.Submit(context.Background(), gpsRequest("en")); err == nil {
		t.Fatalf("expected insert error")
	}
	if len(f.pub.messages) != 0 {
		t.Fatalf("failed insert must not broadcast")
	}
}

func TestSubmitSucceedsWhenBroadcastFails(t *testing.T) {
	f := newVotingFixture()
	f.pub.fail = map[string]bool{}
	for _, name := range []string{"Gangnam-gu", "Seoul", "South Korea", models.GlobalRegion} {
		f.pub.fail[pubsub.ChannelName(name)] = true
	}
	if _, err := f.svc.Submit(context.Background(), gpsRequest("en")); err != nil {
		t.Fatalf("broadcast failure must not fail submit: %v", err)
	}
	if len(f.store.votes) != 1 {
		t.Fatalf("vote should be stored")
	}
}

func TestSubmitStoresVoteWhenAnalysisFails(t *testing.T) {
	f := newVotingFixture()
	f.analyzer.err = errors.New("templates missing")
	res, err := f.svc.Submit(context.Background(), gpsRequest("en"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Vote.Analysis != nil || f.store.votes[0].Analysis != nil {
		t.Fatalf("expected nil analysis")
	}
}

func TestSubmitWithoutAnySignalUsesGlobal(t *testing.T) {
	f := newVotingFixture()
	f.svc.Resolver = &location.Resolver{DefaultTimezone: "Asia/Seoul", Logger: zerolog.Nop()}
	req := gpsRequest("en")
	req.Coords = nil
	res, err := f.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Vote.RegionStd.Region0 != models.Unknown || res.Stats.Level != LevelGlobal || res.Stats.Total != 1 {
		t.Fatalf("unexpected result: %+v / %+v", res.Vote.RegionStd, res.Stats)
	}
	if _, ok := f.pub.messages[pubsub.ChannelName(models.Unknown)]; ok {
		t.Fatalf("Unknown must never be a broadcast channel")
	}
}

func TestToday(t *testing.T) {
	f := newVotingFixture()
	if _, err := f.svc.Today(context.Background(), "voter-1", "Asia/Seoul", "en"); !errors.Is(err, ErrNoVoteToday) {
		t.Fatalf("expected ErrNoVoteToday, got %v", err)
	}
	f.store.votes = append(f.store.votes,
		storedVote("yesterday", -time.Hour, models.GenderMale, models.MoodGood, seoulStd, seoulStd),
	)
	f.store.votes[0].VoterID = "voter-1"
	if _, err := f.svc.Today(context.Background(), "voter-1", "Asia/Seoul", "en"); !errors.Is(err, ErrNoVoteToday) {
		t.Fatalf("yesterday's vote must not count, got %v", err)
	}

	res, err := f.svc.Submit(context.Background(), gpsRequest("en"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, err := f.svc.Today(context.Background(), "voter-1", "Asia/Seoul", "en")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if got.ID != res.Vote.ID {
		t.Fatalf("expected %s, got %s", res.Vote.ID, got.ID)
	}
	if _, err := f.svc.Today(context.Background(), "", "Asia/Seoul", "en"); !errors.Is(err, ErrNoVoteToday) {
		t.Fatalf("empty voter id should have no vote")
	}
}

func TestTodayRegenerationIgnoresLaterVotes(t *testing.T) {
	f := newVotingFixture()
	mine := storedVote("mine", time.Hour, models.GenderMale, models.MoodGood, seoulKo, seoulStd)
	mine.VoterID = "voter-9"
	f.store.votes = append(f.store.votes,
		storedVote("earlier", 30*time.Minute, models.GenderFemale, models.MoodBad, seoulKo, seoulStd),
		mine,
	)

	if _, err := f.svc.Today(context.Background(), "voter-9", "Asia/Seoul", "ko"); err != nil {
		t.Fatalf("today: %v", err)
	}
	first := f.analyzer.input
	if first.Stats.Total != 2 || first.Stats.Score != 50 {
		t.Fatalf("expected stats as of the vote, got %+v", first.Stats)
	}

	for _, id := range []string{"later-1", "later-2", "later-3"} {
		f.store.votes = append(f.store.votes, storedVote(id, 2*time.Hour, models.GenderFemale, models.MoodBad, seoulKo, seoulStd))
	}
	if _, err := f.svc.Today(context.Background(), "voter-9", "Asia/Seoul", "ko"); err != nil {
		t.Fatalf("today: %v", err)
	}
	if f.analyzer.input != first {
		t.Fatalf("regenerated input changed after later votes:\nfirst %+v\nthen  %+v", first, f.analyzer.input)
	}
}

func TestTodayRegeneratesMissingAnalysis(t *testing.T) {
	f := newVotingFixture()
	v := storedVote("stored", time.Hour, models.GenderMale, models.MoodGood, seoulKo, seoulStd)
	v.VoterID = "voter-9"
	f.store.votes = append(f.store.votes, v)

	got, err := f.svc.Today(context.Background(), "voter-9", "Asia/Seoul", "ko")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if got.Analysis == nil || *got.Analysis != "You are not alone today." {
		t.Fatalf("expected regenerated analysis, got %v", got.Analysis)
	}
	if f.analyzer.input.Seed != "stored" || f.analyzer.input.Locale != "ko" {
		t.Fatalf("unexpected analysis input: %+v", f.analyzer.input)
	}
	if f.store.votes[0].Analysis != nil {
		t.Fatalf("stored vote must stay untouched")
	}
}
