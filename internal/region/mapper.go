// Package region maps raw geocoder addresses onto the three Moodcast
// region levels. Administrative nesting differs per country, so the
// mapping is a rule table keyed by ISO 3166-1 alpha-2 code.
package region

import (
	"strings"

	"github.com/moodcast/backend/internal/models"
)

// rule maps addr for one country. Name-based triggers are checked on ref,
// the same place in the reference language, so a localized address and its
// reference twin always take the same branch. ok=false means the rule does
// not apply and the default hierarchy is used.
type rule func(addr, ref models.Address) (levels models.Regions, ok bool)

// metroAreas lists admin level 5 names, in the reference language, that
// are mapped as region1 in GB. Other GB level 5 entries are ceremonial
// regions such as North West England and use the default hierarchy.
var metroAreas = map[string]bool{
	"Greater London": true,
}

// Countries where the province/metropolis is region1 and the finer
// city/ward is region2.
var hierarchicalCountries = []string{"KR", "JP", "CN", "TW", "VN", "TR", "MX", "NG", "ID", "TH", "RU", "CD"}

var rules = buildRules()

func buildRules() map[string]rule {
	out := map[string]rule{
		"GB": metroAreaRule,
		"PK": districtRule,
	}
	for _, code := range hierarchicalCountries {
		out[code] = hierarchicalRule
	}
	return out
}

// IsHierarchical reports whether code uses province-first mapping.
func IsHierarchical(countryCode string) bool {
	for _, code := range hierarchicalCountries {
		if code == normalizeCode(countryCode) {
			return true
		}
	}
	return false
}

// MapAddress produces country / region1 / region2 for addr. Every level
// is either a non-empty name or models.Unknown. An empty countryCode
// falls back to addr.CountryCode.
func MapAddress(addr models.Address, countryCode string) models.Regions {
	return mapWith(addr, addr, countryCode)
}

// MapPair maps a localized address together with its reference-language
// twin. Both sides use the rule chosen from the reference address.
func MapPair(localized, reference models.Address, countryCode string) (display, std models.Regions) {
	if normalizeCode(countryCode) == "" {
		countryCode = reference.CountryCode
	}
	return mapWith(localized, reference, countryCode), mapWith(reference, reference, countryCode)
}

// IsMetroArea reports whether name is a level 5 area mapped as region1.
func IsMetroArea(name string) bool {
	return metroAreas[clean(name)]
}

func mapWith(addr, ref models.Address, countryCode string) models.Regions {
	code := normalizeCode(countryCode)
	if code == "" {
		code = normalizeCode(addr.CountryCode)
	}
	if r, ok := rules[code]; ok {
		if levels, ok := r(addr, ref); ok {
			return finalize(levels, addr)
		}
	}
	return finalize(defaultRule(addr), addr)
}

func hierarchicalRule(addr, _ models.Address) (models.Regions, bool) {
	// The flat city field closes the chain, so a city-only address
	// still yields a region1.
	r1 := firstOf(addr.Level(4), addr.State, addr.City)

	// Descending chain; anything equal to region1 steps one level finer.
	r2 := firstDistinct(r1,
		addr.Level(6), addr.Level(7), addr.Level(8),
		addr.District, addr.County, addr.City,
		addr.Level(9), addr.Suburb,
	)
	return models.Regions{Region1: r1, Region2: r2}, true
}

// metroAreaRule treats a known metro area at admin level 5 as region1.
func metroAreaRule(addr, ref models.Address) (models.Regions, bool) {
	metro := clean(addr.Level(5))
	if metro == "" || !IsMetroArea(ref.Level(5)) {
		return models.Regions{}, false
	}
	return models.Regions{
		Region1: metro,
		Region2: firstDistinct(metro, addr.Level(6), addr.Level(7), addr.Level(8), addr.City, addr.District),
	}, true
}

// districtRule treats admin level 6 (e.g. Karachi District) as region1.
func districtRule(addr, ref models.Address) (models.Regions, bool) {
	district := clean(addr.Level(6))
	if district == "" || clean(ref.Level(6)) == "" {
		return models.Regions{}, false
	}
	return models.Regions{
		Region1: district,
		Region2: firstDistinct(district, addr.Level(7), addr.Level(8), addr.City),
	}, true
}

func defaultRule(addr models.Address) models.Regions {
	r1 := firstOf(addr.City, addr.Level(5), addr.Level(6), addr.State)
	return models.Regions{
		Region1: r1,
		Region2: firstDistinct(r1, addr.District, addr.Suburb, addr.Level(8), addr.Level(9)),
	}
}

func finalize(levels models.Regions, addr models.Address) models.Regions {
	return models.Regions{
		Region0: orUnknown(addr.Country),
		Region1: orUnknown(levels.Region1),
		Region2: orUnknown(levels.Region2),
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if c := clean(v); c != "" {
			return c
		}
	}
	return ""
}

func firstDistinct(exclude string, values ...string) string {
	for _, v := range values {
		if c := clean(v); c != "" && c != exclude {
			return c
		}
	}
	return ""
}

func clean(v string) string {
	v = strings.TrimSpace(v)
	if v == models.Unknown {
		return ""
	}
	return v
}

func orUnknown(v string) string {
	if c := clean(v); c != "" {
		return c
	}
	return models.Unknown
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
