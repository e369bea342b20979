package utils

import (
	"strings"
	"time"
	_ "time/tzdata" // zone rules for hosts without /usr/share/zoneinfo
)

// FallbackTimezone is used when a caller supplies no zone or an unknown one.
const FallbackTimezone = "Asia/Seoul"

// LoadLocation resolves an IANA zone name, falling back to fallback and
// finally to UTC.
func LoadLocation(name, fallback string) *time.Location {
	for _, candidate := range []string{strings.TrimSpace(name), fallback, FallbackTimezone} {
		if candidate == "" {
			continue
		}
		if loc, err := time.LoadLocation(candidate); err == nil {
			return loc
		}
	}
	return time.UTC
}

// StartOfDayUTC returns the UTC instant of local midnight for the date
// that now falls on in timezone. The offset is the one in effect at that
// midnight, not at now.
func StartOfDayUTC(timezone string, now time.Time) time.Time {
	return StartOfDay(now, LoadLocation(timezone, ""))
}

// StartOfDay is StartOfDayUTC for an already loaded zone.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).UTC()
}
