// Package geoip resolves client IPs against a local MaxMind City database.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/oschwald/maxminddb-golang"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("ip not found")

// Result holds names in the requested locale plus the same names in the
// reference language, taken from a single database record.
type Result struct {
	Country     string `json:"country"`
	City        string `json:"city"`
	Subdivision string `json:"subdivision"`
	Timezone    string `json:"timezone"`
	CountryCode string `json:"country_code"`
	Std         Names  `json:"std"`
}

type Names struct {
	Country     string `json:"country"`
	City        string `json:"city"`
	Subdivision string `json:"subdivision"`
}

type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Subdivisions []struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Location struct {
		TimeZone string `maxminddb:"time_zone"`
	} `maxminddb:"location"`
}

// Reader opens the database on first use and shares the handle across
// goroutines afterwards. A failed open is remembered; lookups then miss.
type Reader struct {
	Path      string
	Reference string
	Logger    zerolog.Logger

	once sync.Once
	db   *maxminddb.Reader
	err  error
}

func NewReader(path string, logger zerolog.Logger) *Reader {
	return &Reader{Path: path, Reference: "en", Logger: logger}
}

func (r *Reader) open() (*maxminddb.Reader, error) {
	r.once.Do(func() {
		r.db, r.err = maxminddb.Open(r.Path)
		if r.err != nil {
			r.err = fmt.Errorf("open geoip db %s: %w", r.Path, r.err)
			r.Logger.Warn().Err(r.err).Msg("geoip disabled")
			return
		}
		r.Logger.Info().Str("path", r.Path).Str("type", r.db.Metadata.DatabaseType).Msg("geoip db opened")
	})
	return r.db, r.err
}

func (r *Reader) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Lookup never panics on bad input. Private, loopback and unparsable
// addresses return ErrNotFound without touching the database.
func (r *Reader) Lookup(ip string, locale string) (Result, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if !Routable(parsed) {
		return Result{}, ErrNotFound
	}
	db, err := r.open()
	if err != nil {
		return Result{}, err
	}
	var rec cityRecord
	_, ok, err := db.LookupNetwork(parsed, &rec)
	if err != nil {
		return Result{}, fmt.Errorf("geoip lookup: %w", err)
	}
	if !ok || rec.Country.ISOCode == "" {
		return Result{}, ErrNotFound
	}
	return fromRecord(rec, locale, r.reference()), nil
}

func (r *Reader) reference() string {
	if r.Reference == "" {
		return "en"
	}
	return r.Reference
}

func fromRecord(rec cityRecord, locale string, reference string) Result {
	lang := DatabaseLanguage(locale)
	res := Result{
		CountryCode: strings.ToUpper(rec.Country.ISOCode),
		Timezone:    rec.Location.TimeZone,
		Country:     pickName(rec.Country.Names, lang, reference),
		City:        pickName(rec.City.Names, lang, reference),
		Std: Names{
			Country: rec.Country.Names[reference],
			City:    rec.City.Names[reference],
		},
	}
	if len(rec.Subdivisions) > 0 {
		sub := rec.Subdivisions[0]
		res.Subdivision = pickName(sub.Names, lang, reference)
		res.Std.Subdivision = sub.Names[reference]
	}
	if name := LocalizeCountry(res.CountryCode, locale); name != "" {
		res.Country = name
	}
	return res
}

func pickName(names map[string]string, lang string, reference string) string {
	if lang != "" {
		if v := names[lang]; v != "" {
			return v
		}
	}
	return names[reference]
}

// Routable reports whether ip could appear in a public geo database.
func Routable(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast())
}
