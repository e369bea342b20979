package location

import (
	"strings"

	"github.com/moodcast/backend/internal/models"
)

const (
	ScopeDistrict = "lv2"
	ScopeCity     = "lv1"
	ScopeCountry  = "lv0"
	ScopeGlobal   = "global"
)

// DisplayName returns the most specific known level, or def.
func DisplayName(r models.Regions, def string) string {
	for _, v := range []string{r.Region2, r.Region1, r.Region0} {
		if known(v) {
			return v
		}
	}
	return def
}

// Scope names the most specific known level.
func Scope(r models.Regions) string {
	switch {
	case known(r.Region2):
		return ScopeDistrict
	case known(r.Region1):
		return ScopeCity
	case known(r.Region0):
		return ScopeCountry
	}
	return ScopeGlobal
}

func known(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != models.Unknown
}
