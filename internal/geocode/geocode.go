package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/moodcast/backend/internal/models"
)

var ErrNotFound = errors.New("geocode not found")

// Geocoder resolves places into structured addresses in a requested
// output language.
type Geocoder interface {
	Search(ctx context.Context, query string, lang string) (models.Address, error)
	Reverse(ctx context.Context, lat float64, lng float64, lang string) (models.Address, error)
}

// FetchFunc performs one lookup in lang.
type FetchFunc func(ctx context.Context, lang string) (models.Address, error)

// FetchLanguages runs fetch once per language concurrently and returns
// the successful results keyed by language. Failed languages are absent.
func FetchLanguages(ctx context.Context, langs []string, fetch FetchFunc) map[string]models.Address {
	results := make([]*models.Address, len(langs))
	var g errgroup.Group
	for i, lang := range langs {
		g.Go(func() error {
			addr, err := fetch(ctx, lang)
			if err == nil {
				results[i] = &addr
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]models.Address, len(langs))
	for i, lang := range langs {
		if results[i] != nil {
			out[lang] = *results[i]
		}
	}
	return out
}

// SearchLanguages is FetchLanguages over Search.
func SearchLanguages(ctx context.Context, g Geocoder, query string, langs ...string) map[string]models.Address {
	return FetchLanguages(ctx, uniq(langs), func(ctx context.Context, lang string) (models.Address, error) {
		return g.Search(ctx, query, lang)
	})
}

// ReverseLanguages is FetchLanguages over Reverse.
func ReverseLanguages(ctx context.Context, g Geocoder, lat, lng float64, langs ...string) map[string]models.Address {
	return FetchLanguages(ctx, uniq(langs), func(ctx context.Context, lang string) (models.Address, error) {
		return g.Reverse(ctx, lat, lng, lang)
	})
}

// BuildQuery joins the non-empty, non-Unknown parts with ", ".
func BuildQuery(city string, subdivision string, country string) string {
	parts := []string{}
	for _, p := range []string{city, subdivision, country} {
		p = strings.TrimSpace(p)
		if p == "" || p == models.Unknown {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}

func ReverseCacheKey(lat, lng float64, lang string) string {
	return fmt.Sprintf("geo:rev:%.6f,%.6f:%s", lat, lng, lang)
}

func SearchCacheKey(query string, lang string) string {
	return fmt.Sprintf("geo:fwd:%s:%s", strings.ToLower(strings.TrimSpace(query)), lang)
}

func uniq(langs []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
