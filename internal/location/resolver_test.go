package location

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/moodcast/backend/internal/geocode"
	"github.com/moodcast/backend/internal/geoip"
	"github.com/moodcast/backend/internal/models"
)

type fakeIP struct {
	results map[string]geoip.Result
	panics  bool
}

func (f fakeIP) Lookup(ip string, locale string) (geoip.Result, error) {
	if f.panics {
		panic("corrupt database")
	}
	res, ok := f.results[ip]
	if !ok {
		return geoip.Result{}, geoip.ErrNotFound
	}
	return res, nil
}

type fakeGeocoder struct {
	mu      sync.Mutex
	search  map[string]models.Address
	reverse map[string]models.Address
	queries []string
	langs   []string
}

func (f *fakeGeocoder) record(q, lang string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	f.langs = append(f.langs, lang)
}

func (f *fakeGeocoder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.langs)
}

func (f *fakeGeocoder) Search(ctx context.Context, query string, lang string) (models.Address, error) {
	f.record(query, lang)
	addr, ok := f.search[lang]
	if !ok {
		return models.Address{}, geocode.ErrNotFound
	}
	return addr, nil
}

func (f *fakeGeocoder) Reverse(ctx context.Context, lat, lng float64, lang string) (models.Address, error) {
	f.record("", lang)
	addr, ok := f.reverse[lang]
	if !ok {
		return models.Address{}, errors.New("timeout")
	}
	return addr, nil
}

type fixedZone string

func (z fixedZone) TimezoneName(lat, lng float64) string { return string(z) }

type panicZone struct{}

func (panicZone) TimezoneName(lat, lng float64) string { panic("bad polygon") }

func newResolver(ip IPLookup, g geocode.Geocoder, tz TimezoneFinder) *Resolver {
	return &Resolver{IP: ip, Geocoder: g, Timezones: tz, Reference: "en", DefaultTimezone: "Asia/Seoul", Logger: zerolog.Nop()}
}

var seoulIP = geoip.Result{
	Country:     "대한민국",
	City:        "강남구",
	Subdivision: "서울",
	Timezone:    "Asia/Seoul",
	CountryCode: "KR",
	Std:         geoip.Names{Country: "South Korea", City: "Gangnam-gu", Subdivision: "Seoul"},
}

func TestHeadersOnlyHierarchicalIP(t *testing.T) {
	g := &fakeGeocoder{}
	r := newResolver(fakeIP{results: map[string]geoip.Result{"211.1.1.1": seoulIP}}, g, nil)

	loc := r.HeadersOnly(context.Background(), Hints{IP: "211.1.1.1"}, "ko")
	if loc.Region0 != "대한민국" || loc.Region1 != "서울" || loc.Region2 != "강남구" {
		t.Fatalf("unexpected display: %+v", loc)
	}
	want := models.Regions{Region0: "South Korea", Region1: "Seoul", Region2: "Gangnam-gu"}
	if loc.Std != want || loc.Timezone != "Asia/Seoul" {
		t.Fatalf("unexpected std: %+v", loc)
	}
	if g.calls() != 0 {
		t.Fatalf("headers-only must not geocode")
	}
}

func TestHeadersOnlyFallsBackToEdgeHeaders(t *testing.T) {
	g := &fakeGeocoder{}
	r := newResolver(fakeIP{}, g, nil)

	loc := r.HeadersOnly(context.Background(), Hints{IP: "10.0.0.1", City: "Paris", Country: "fr", Timezone: "Europe/Paris"}, "de")
	if loc.Region0 != "Frankreich" || loc.Std.Region0 != "France" {
		t.Fatalf("unexpected country: %+v", loc)
	}
	if loc.Region1 != "Paris" || loc.Std.Region1 != "Paris" || loc.Region2 != models.Unknown {
		t.Fatalf("unexpected regions: %+v", loc)
	}
	if loc.Timezone != "Europe/Paris" {
		t.Fatalf("unexpected timezone: %s", loc.Timezone)
	}
}

func TestHeadersOnlyNothingKnown(t *testing.T) {
	r := newResolver(fakeIP{}, nil, nil)
	loc := r.HeadersOnly(context.Background(), Hints{IP: "127.0.0.1", Timezone: "Mars/Olympus"}, "en")
	for _, v := range []string{loc.Region0, loc.Region1, loc.Region2, loc.Std.Region0, loc.Std.Region1, loc.Std.Region2} {
		if v != models.Unknown {
			t.Fatalf("expected Unknown everywhere, got %+v", loc)
		}
	}
	if loc.Timezone != "Asia/Seoul" {
		t.Fatalf("expected default timezone, got %s", loc.Timezone)
	}
}

func TestHeadersOnlyRegion1FallsBackToCountry(t *testing.T) {
	r := newResolver(fakeIP{}, nil, nil)
	loc := r.HeadersOnly(context.Background(), Hints{Country: "DE"}, "en")
	if loc.Region1 != "Germany" || loc.Std.Region1 != "Germany" {
		t.Fatalf("expected region1 to fall back to country, got %+v", loc)
	}
}

func TestEnrichLocalizesAndGuardsGranularity(t *testing.T) {
	sf := geoip.Result{
		Country:     "미국",
		City:        "San Francisco",
		Subdivision: "California",
		Timezone:    "America/Los_Angeles",
		CountryCode: "US",
		Std:         geoip.Names{Country: "United States", City: "San Francisco", Subdivision: "California"},
	}
	g := &fakeGeocoder{search: map[string]models.Address{
		"ko": {Name: "샌프란시스코", Country: "미국", CountryCode: "US", City: "샌프란시스코", District: "미션 디스트릭트"},
		"en": {Name: "Mission District", Country: "United States", CountryCode: "US", City: "San Francisco", District: "Mission District"},
	}}
	r := newResolver(fakeIP{results: map[string]geoip.Result{"8.8.8.8": sf}}, g, nil)

	loc := r.Enrich(context.Background(), Hints{IP: "8.8.8.8"}, "ko")
	if loc.Region0 != "미국" || loc.Region1 != "샌프란시스코" || loc.Region2 != models.Unknown {
		t.Fatalf("unexpected display: %+v", loc)
	}
	want := models.Regions{Region0: "United States", Region1: "San Francisco", Region2: "Mission District"}
	if loc.Std != want {
		t.Fatalf("unexpected std: %+v", loc.Std)
	}
	if loc.Timezone != "America/Los_Angeles" {
		t.Fatalf("unexpected timezone: %s", loc.Timezone)
	}
	if g.calls() != 2 {
		t.Fatalf("expected two lookups, got %d", g.calls())
	}
	for _, q := range g.queries {
		if q != "San Francisco, California, United States" {
			t.Fatalf("unexpected query: %q", q)
		}
	}
}

func TestEnrichSkipsSupportedLocale(t *testing.T) {
	g := &fakeGeocoder{}
	r := newResolver(fakeIP{results: map[string]geoip.Result{"211.1.1.1": seoulIP}}, g, nil)
	loc := r.Enrich(context.Background(), Hints{IP: "211.1.1.1"}, "de")
	if g.calls() != 0 {
		t.Fatalf("expected no lookup for a bundled locale")
	}
	if loc.Std.Region1 != "Seoul" {
		t.Fatalf("unexpected std: %+v", loc.Std)
	}
}

func TestEnrichKeepsBaselineOnGeocoderMiss(t *testing.T) {
	g := &fakeGeocoder{}
	r := newResolver(fakeIP{results: map[string]geoip.Result{"211.1.1.1": seoulIP}}, g, nil)
	loc := r.Enrich(context.Background(), Hints{IP: "211.1.1.1"}, "ko")
	if loc.Region1 != "서울" || loc.Std.Region2 != "Gangnam-gu" {
		t.Fatalf("expected headers-only values, got %+v", loc)
	}
}

func TestEnrichRecoversFromPanic(t *testing.T) {
	r := newResolver(fakeIP{panics: true}, nil, nil)
	loc := r.Enrich(context.Background(), Hints{IP: "8.8.8.8"}, "ko")
	if loc.Region0 != models.Unknown || loc.Timezone != "Asia/Seoul" {
		t.Fatalf("expected placeholder location, got %+v", loc)
	}
}

func TestFromGPSHierarchicalStandardNames(t *testing.T) {
	g := &fakeGeocoder{reverse: map[string]models.Address{
		"ko": {Country: "대한민국", CountryCode: "KR", City: "서울특별시", Admin: map[int]string{4: "서울특별시", 6: "강남구"}},
		"en": {Country: "South Korea", CountryCode: "KR", City: "Seoul", Admin: map[int]string{4: "Seoul", 6: "Gangnam-gu"}},
	}}
	r := newResolver(nil, g, fixedZone("Asia/Seoul"))

	loc := r.FromGPS(context.Background(), 37.4979, 127.0276, "ko")
	if loc.Region1 != "서울특별시" || loc.Region2 != "강남구" {
		t.Fatalf("unexpected display: %+v", loc)
	}
	want := models.Regions{Region0: "South Korea", Region1: "Seoul", Region2: "Gangnam-gu"}
	if loc.Std != want || loc.Timezone != "Asia/Seoul" {
		t.Fatalf("unexpected result: %+v", loc)
	}
}

func TestFromGPSLocalizedMetroUsesReferenceRule(t *testing.T) {
	g := &fakeGeocoder{reverse: map[string]models.Address{
		"ko": {Country: "영국", CountryCode: "GB", City: "런던", Admin: map[int]string{5: "그레이터런던", 8: "캠던 구"}},
		"en": {Country: "United Kingdom", CountryCode: "GB", City: "London", Admin: map[int]string{5: "Greater London", 8: "London Borough of Camden"}},
	}}
	r := newResolver(nil, g, fixedZone("Europe/London"))

	loc := r.FromGPS(context.Background(), 51.54, -0.14, "ko")
	if loc.Region1 != "그레이터런던" || loc.Region2 != "캠던 구" {
		t.Fatalf("unexpected display: %+v", loc)
	}
	if loc.Std.Region1 != "Greater London" || loc.Std.Region2 != "London Borough of Camden" {
		t.Fatalf("unexpected std: %+v", loc.Std)
	}
}

func TestFromGPSReferenceLocaleFetchesOnce(t *testing.T) {
	g := &fakeGeocoder{reverse: map[string]models.Address{
		"en": {Country: "Japan", CountryCode: "JP", Admin: map[int]string{4: "Tokyo", 7: "Shinjuku"}},
	}}
	r := newResolver(nil, g, fixedZone("Asia/Tokyo"))
	loc := r.FromGPS(context.Background(), 35.69, 139.70, "en")
	if g.calls() != 1 {
		t.Fatalf("expected one lookup, got %d", g.calls())
	}
	if loc.Region2 != "Shinjuku" || loc.Std.Region2 != "Shinjuku" {
		t.Fatalf("unexpected result: %+v", loc)
	}
}

func TestFromGPSRecoversFromPanic(t *testing.T) {
	r := newResolver(nil, &fakeGeocoder{}, panicZone{})
	loc := r.FromGPS(context.Background(), 1, 2, "en")
	if loc.Std.Region0 != models.Unknown || loc.Timezone != "Asia/Seoul" {
		t.Fatalf("expected placeholder location, got %+v", loc)
	}
}

func TestResolveDegradesToEnrichmentKeepingGPSZone(t *testing.T) {
	ip := fakeIP{results: map[string]geoip.Result{"211.1.1.1": seoulIP}}
	r := newResolver(ip, &fakeGeocoder{}, fixedZone("Asia/Pyongyang"))

	loc := r.Resolve(context.Background(), Hints{IP: "211.1.1.1"}, "en", &models.Coords{Lat: 39, Lng: 125.7})
	if loc.Std.Region1 != "Seoul" {
		t.Fatalf("expected enrichment regions, got %+v", loc)
	}
	if loc.Timezone != "Asia/Pyongyang" {
		t.Fatalf("expected gps timezone, got %s", loc.Timezone)
	}
}
