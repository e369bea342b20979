package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/moodcast/backend/internal/cache"
	"github.com/moodcast/backend/internal/models"
)

type NominatimGeocoder struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	MinInterval time.Duration
	CacheTTL    time.Duration
	Client      *http.Client
	Cache       cache.Cache
	Logger      zerolog.Logger

	mu        sync.Mutex
	lastReqAt time.Time
}

// geocodeJSON is the subset of Nominatim's format=geocodejson we read.
type geocodeJSON struct {
	Features []struct {
		Properties struct {
			Geocoding geocodingProps `json:"geocoding"`
		} `json:"properties"`
	} `json:"features"`
}

type geocodingProps struct {
	Name        string            `json:"name"`
	Label       string            `json:"label"`
	Country     string            `json:"country"`
	CountryCode string            `json:"country_code"`
	State       string            `json:"state"`
	County      string            `json:"county"`
	City        string            `json:"city"`
	District    string            `json:"district"`
	Locality    string            `json:"locality"`
	Admin       map[string]string `json:"admin"`
}

func (g *NominatimGeocoder) defaults() {
	if g.Client == nil {
		g.Client = &http.Client{}
	}
	if g.BaseURL == "" {
		g.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if g.UserAgent == "" {
		g.UserAgent = "Moodcast/1.0"
	}
	if g.Timeout <= 0 {
		g.Timeout = 1200 * time.Millisecond
	}
	if g.CacheTTL <= 0 {
		g.CacheTTL = 7 * 24 * time.Hour
	}
	if g.Cache == nil {
		g.Cache = cache.Nop{}
	}
}

func (g *NominatimGeocoder) Search(ctx context.Context, query string, lang string) (models.Address, error) {
	if strings.TrimSpace(query) == "" {
		return models.Address{}, ErrNotFound
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")
	return g.fetch(ctx, "search", params, lang, SearchCacheKey(query, lang))
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lat float64, lng float64, lang string) (models.Address, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))
	return g.fetch(ctx, "reverse", params, lang, ReverseCacheKey(lat, lng, lang))
}

func (g *NominatimGeocoder) fetch(ctx context.Context, path string, params url.Values, lang string, key string) (models.Address, error) {
	g.mu.Lock()
	g.defaults()
	g.mu.Unlock()

	// The timeout covers the cache round trips as well as the request.
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	if raw, ok := g.Cache.Get(ctx, key); ok {
		var addr models.Address
		if err := json.Unmarshal(raw, &addr); err == nil {
			return addr, nil
		}
	}
	if ctx.Err() != nil {
		return models.Address{}, ctx.Err()
	}

	if err := g.throttle(ctx); err != nil {
		return models.Address{}, err
	}

	params.Set("format", "geocodejson")
	params.Set("addressdetails", "1")
	params.Set("accept-language", lang)
	endpoint := fmt.Sprintf("%s/%s?%s", strings.TrimRight(g.BaseURL, "/"), path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Address{}, err
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return models.Address{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Address{}, fmt.Errorf("nominatim http error: %s", resp.Status)
	}

	var doc geocodeJSON
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return models.Address{}, err
	}
	addr, err := parseGeocodeJSON(doc)
	if err != nil {
		return models.Address{}, err
	}

	if raw, err := json.Marshal(addr); err == nil {
		g.Cache.Set(ctx, key, raw, g.CacheTTL)
	}
	return addr, nil
}

// throttle spaces outbound requests by MinInterval. Zero disables it.
func (g *NominatimGeocoder) throttle(ctx context.Context) error {
	if g.MinInterval <= 0 {
		return nil
	}
	g.mu.Lock()
	next := g.lastReqAt.Add(g.MinInterval)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	g.lastReqAt = next
	g.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseGeocodeJSON(doc geocodeJSON) (models.Address, error) {
	if len(doc.Features) == 0 {
		return models.Address{}, ErrNotFound
	}
	p := doc.Features[0].Properties.Geocoding
	addr := models.Address{
		Name:        p.Name,
		Country:     p.Country,
		CountryCode: strings.ToUpper(p.CountryCode),
		State:       p.State,
		County:      p.County,
		City:        p.City,
		District:    p.District,
		Suburb:      p.Locality,
	}
	for k, v := range p.Admin {
		n, err := strconv.Atoi(strings.TrimPrefix(k, "level"))
		if err != nil || v == "" {
			continue
		}
		if addr.Admin == nil {
			addr.Admin = map[int]string{}
		}
		addr.Admin[n] = v
	}
	if addr.Country == "" && addr.City == "" && addr.State == "" && len(addr.Admin) == 0 {
		return models.Address{}, ErrNotFound
	}
	return addr, nil
}
