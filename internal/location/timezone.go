package location

import (
	"fmt"

	"github.com/ringsaturn/tzf"
)

// TimezoneFinder maps coordinates to an IANA zone name, "" if unknown.
type TimezoneFinder interface {
	TimezoneName(lat, lng float64) string
}

// TZFinder uses the polygon data bundled with tzf. No network access.
type TZFinder struct {
	f tzf.F
}

func NewTZFinder() (*TZFinder, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("load timezone polygons: %w", err)
	}
	return &TZFinder{f: f}, nil
}

func (t *TZFinder) TimezoneName(lat, lng float64) string {
	return t.f.GetTimezoneName(lng, lat)
}
