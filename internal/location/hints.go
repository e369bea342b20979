package location

import (
	"net/http"
	"net/url"
	"strings"
)

// Hints are the raw location signals carried by a request.
type Hints struct {
	IP       string `json:"ip"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
}

// HintsFromRequest pairs the client IP resolved by the router with any
// edge-provided location headers (Vercel, Cloudflare).
func HintsFromRequest(r *http.Request, clientIP string) Hints {
	h := Hints{
		IP:       strings.TrimSpace(clientIP),
		City:     firstHeader(r, "X-Vercel-IP-City", "CF-IPCity"),
		Country:  firstHeader(r, "X-Vercel-IP-Country", "CF-IPCountry"),
		Timezone: firstHeader(r, "X-Vercel-IP-Timezone", "CF-Timezone"),
	}
	// Vercel percent-encodes non-ASCII city names.
	if decoded, err := url.QueryUnescape(h.City); err == nil {
		h.City = decoded
	}
	return h
}

func firstHeader(r *http.Request, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(r.Header.Get(n)); v != "" {
			return v
		}
	}
	return ""
}
