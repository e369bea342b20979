package geoip

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// SupportedLocales are the name languages bundled with GeoLite2 City.
var SupportedLocales = []string{"de", "en", "es", "fr", "ja", "pt-BR", "ru", "zh-CN"}

var baseDefaults = map[string]string{
	"pt": "pt-BR",
	"zh": "zh-CN",
}

// DatabaseLanguage maps a UI locale onto a bundled database language,
// or "" when the database has no names for it.
func DatabaseLanguage(locale string) string {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if locale == "" {
		return ""
	}
	for _, l := range SupportedLocales {
		if strings.EqualFold(l, locale) {
			return l
		}
	}
	base := strings.ToLower(strings.SplitN(locale, "-", 2)[0])
	if l, ok := baseDefaults[base]; ok {
		return l
	}
	for _, l := range SupportedLocales {
		if l == base {
			return l
		}
	}
	return ""
}

// Supported reports whether the database can localize names for locale.
func Supported(locale string) bool {
	return DatabaseLanguage(locale) != ""
}

// LocalizeCountry names an ISO 3166-1 alpha-2 code in locale using CLDR
// data. Returns "" when either side is unknown.
func LocalizeCountry(code string, locale string) string {
	region, err := language.ParseRegion(strings.TrimSpace(code))
	if err != nil {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if err != nil {
		return ""
	}
	namer := display.Regions(tag)
	if namer == nil {
		return ""
	}
	name := namer.Name(region)
	if strings.EqualFold(name, code) {
		return ""
	}
	return name
}

// EnglishCountry names code in English.
func EnglishCountry(code string) string {
	return LocalizeCountry(code, "en")
}
