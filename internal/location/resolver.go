// Package location turns request signals into a bilingual region
// identity: display names in the caller's locale and standardized names
// in the reference language.
package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moodcast/backend/internal/geocode"
	"github.com/moodcast/backend/internal/geoip"
	"github.com/moodcast/backend/internal/models"
	"github.com/moodcast/backend/internal/region"
	"github.com/moodcast/backend/internal/utils"
)

type IPLookup interface {
	Lookup(ip string, locale string) (geoip.Result, error)
}

type Resolver struct {
	IP              IPLookup
	Geocoder        geocode.Geocoder
	Timezones       TimezoneFinder
	Reference       string
	DefaultTimezone string
	Logger          zerolog.Logger
}

// baseline is the headers-only result plus what enrichment needs to
// build its query.
type baseline struct {
	loc      models.Location
	query    string
	resolved bool
}

func (r *Resolver) reference() string {
	if r.Reference == "" {
		return "en"
	}
	return r.Reference
}

func (r *Resolver) defaultTimezone() string {
	if r.DefaultTimezone == "" {
		return utils.FallbackTimezone
	}
	return r.DefaultTimezone
}

func unknownLocation(tz string) models.Location {
	u := models.Regions{Region0: models.Unknown, Region1: models.Unknown, Region2: models.Unknown}
	return models.Location{Region0: u.Region0, Region1: u.Region1, Region2: u.Region2, Timezone: tz, Std: u}
}

// HeadersOnly resolves from the IP database and edge headers. It never
// makes an outbound request.
func (r *Resolver) HeadersOnly(ctx context.Context, h Hints, locale string) models.Location {
	return finish(r.headersOnly(h, locale).loc)
}

func (r *Resolver) headersOnly(h Hints, locale string) baseline {
	b := baseline{loc: unknownLocation(r.defaultTimezone())}

	if r.IP != nil && h.IP != "" {
		res, err := r.IP.Lookup(h.IP, locale)
		if err == nil {
			display := region.MapAddress(ipAddress(res.Country, res.CountryCode, res.Subdivision, res.City), res.CountryCode)
			std := region.MapAddress(ipAddress(res.Std.Country, res.CountryCode, res.Std.Subdivision, res.Std.City), res.CountryCode)
			b.loc = withRegions(b.loc, display, std)
			if res.Timezone != "" {
				b.loc.Timezone = res.Timezone
			}
			b.query = geocode.BuildQuery(res.Std.City, res.Std.Subdivision, res.Std.Country)
			b.resolved = res.City != "" || res.Subdivision != ""
			return b
		}
		r.Logger.Debug().Err(err).Str("ip", h.IP).Msg("geoip miss")
	}

	// Edge headers are used as-is, without the region mapper.
	if h.City != "" {
		b.loc.Region1 = h.City
		b.loc.Std.Region1 = h.City
		b.resolved = true
	}
	if code := strings.ToUpper(strings.TrimSpace(h.Country)); code != "" {
		b.loc.Region0 = orCode(geoip.LocalizeCountry(code, locale), code)
		b.loc.Std.Region0 = orCode(geoip.EnglishCountry(code), code)
	}
	if h.Timezone != "" && validZone(h.Timezone) {
		b.loc.Timezone = h.Timezone
	}
	b.query = geocode.BuildQuery(b.loc.Std.Region1, "", b.loc.Std.Region0)
	return b
}

// Enrich starts from HeadersOnly and, when the IP database cannot name
// places in locale, localizes region1/region2 with one forward lookup
// per language. Failures leave the headers-only values in place.
func (r *Resolver) Enrich(ctx context.Context, h Hints, locale string) (loc models.Location) {
	loc = unknownLocation(r.defaultTimezone())
	defer func() {
		if p := recover(); p != nil {
			r.Logger.Error().Str("panic", fmt.Sprint(p)).Msg("location enrichment failed")
		}
		loc = finish(loc)
	}()

	b := r.headersOnly(h, locale)
	loc = b.loc
	if !b.resolved || b.query == "" || r.Geocoder == nil || geoip.Supported(locale) {
		return loc
	}
	loc = r.enrich(ctx, loc, b.query, locale)
	return loc
}

func (r *Resolver) enrich(ctx context.Context, loc models.Location, query string, locale string) models.Location {
	ref := r.reference()
	results := geocode.SearchLanguages(ctx, r.Geocoder, query, locale, ref)

	display, std := mapResults(results, locale, ref)
	if addr, ok := results[locale]; ok {
		loc = mergeDisplay(loc, guardGranularity(addr, display))
	} else {
		r.Logger.Warn().Str("query", query).Str("lang", locale).Msg("localized lookup failed")
	}
	if addr, ok := results[ref]; ok {
		loc.Std = mergeStd(loc.Std, guardGranularity(addr, std))
	}
	return loc
}

// FromGPS resolves coordinates: timezone from polygons, address from a
// dual-language reverse lookup mapped as a localized/reference pair.
func (r *Resolver) FromGPS(ctx context.Context, lat, lng float64, locale string) (loc models.Location) {
	loc = unknownLocation(r.defaultTimezone())
	defer func() {
		if p := recover(); p != nil {
			r.Logger.Error().Str("panic", fmt.Sprint(p)).Float64("lat", lat).Float64("lng", lng).Msg("gps location failed")
		}
		loc = finish(loc)
	}()

	if r.Timezones != nil {
		if tz := r.Timezones.TimezoneName(lat, lng); tz != "" {
			loc.Timezone = tz
		}
	}
	if r.Geocoder == nil {
		return loc
	}

	ref := r.reference()
	results := geocode.ReverseLanguages(ctx, r.Geocoder, lat, lng, locale, ref)
	display, std := mapResults(results, locale, ref)
	if _, ok := results[locale]; ok {
		loc.Region0, loc.Region1, loc.Region2 = display.Region0, display.Region1, display.Region2
	}
	if _, ok := results[ref]; ok {
		loc.Std = std
	}
	if len(results) == 0 {
		r.Logger.Warn().Float64("lat", lat).Float64("lng", lng).Msg("reverse geocoding returned nothing")
	}
	return loc
}

// Resolve prefers coordinates. A GPS result without a country falls back
// to enrichment but keeps the polygon timezone.
func (r *Resolver) Resolve(ctx context.Context, h Hints, locale string, coords *models.Coords) models.Location {
	if coords != nil {
		gps := r.FromGPS(ctx, coords.Lat, coords.Lng, locale)
		if gps.Std.Region0 != models.Unknown {
			return gps
		}
		loc := r.Enrich(ctx, h, locale)
		loc.Timezone = gps.Timezone
		return loc
	}
	return r.Enrich(ctx, h, locale)
}

func ipAddress(country, code, subdivision, city string) models.Address {
	addr := models.Address{Country: country, CountryCode: code, State: subdivision, City: city}
	if subdivision != "" {
		addr.Admin = map[int]string{4: subdivision}
	}
	return addr
}

// mapResults maps the localized and reference lookups. When both are
// present they are mapped as a pair so they land on the same levels.
func mapResults(results map[string]models.Address, locale, ref string) (display, std models.Regions) {
	localized, hasLocalized := results[locale]
	reference, hasReference := results[ref]
	switch {
	case hasLocalized && hasReference:
		return region.MapPair(localized, reference, reference.CountryCode)
	case hasLocalized:
		display = region.MapAddress(localized, localized.CountryCode)
	case hasReference:
		std = region.MapAddress(reference, reference.CountryCode)
	}
	return display, std
}

// guardGranularity drops region2 from mapped when the geocoder matched
// region1 itself, since region2 is then an artifact of the centroid.
func guardGranularity(addr models.Address, mapped models.Regions) models.Regions {
	if isCentroidMatch(addr.Name, mapped.Region1) {
		mapped.Region2 = models.Unknown
	}
	return mapped
}

func mergeDisplay(loc models.Location, mapped models.Regions) models.Location {
	if mapped.Region0 != models.Unknown {
		loc.Region0 = mapped.Region0
	}
	if mapped.Region1 != models.Unknown {
		loc.Region1 = mapped.Region1
	}
	loc.Region2 = mapped.Region2
	return loc
}

func mergeStd(std models.Regions, mapped models.Regions) models.Regions {
	if mapped.Region0 != models.Unknown {
		std.Region0 = mapped.Region0
	}
	if mapped.Region1 != models.Unknown {
		std.Region1 = mapped.Region1
	}
	std.Region2 = mapped.Region2
	return std
}

func withRegions(loc models.Location, display, std models.Regions) models.Location {
	loc.Region0, loc.Region1, loc.Region2 = display.Region0, display.Region1, display.Region2
	loc.Std = std
	return loc
}

// finish enforces the sentinel invariants: no empty levels, region1
// falls back to the country.
func finish(loc models.Location) models.Location {
	loc.Region0, loc.Region1, loc.Region2 = sentinel(loc.Region0), sentinel(loc.Region1), sentinel(loc.Region2)
	loc.Std = models.Regions{Region0: sentinel(loc.Std.Region0), Region1: sentinel(loc.Std.Region1), Region2: sentinel(loc.Std.Region2)}
	if loc.Region1 == models.Unknown {
		loc.Region1 = loc.Region0
	}
	if loc.Std.Region1 == models.Unknown {
		loc.Std.Region1 = loc.Std.Region0
	}
	if loc.Timezone == "" {
		loc.Timezone = utils.FallbackTimezone
	}
	return loc
}

func sentinel(v string) string {
	if strings.TrimSpace(v) == "" {
		return models.Unknown
	}
	return v
}

func orCode(name, code string) string {
	if name == "" {
		return code
	}
	return name
}

func validZone(name string) bool {
	_, err := time.LoadLocation(name)
	return err == nil
}
