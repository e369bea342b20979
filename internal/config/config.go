package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                 string        `mapstructure:"ENV"`
	Port                string        `mapstructure:"PORT"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	AdminKey            string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed         string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	TrustedProxies      string        `mapstructure:"TRUSTED_PROXIES"`
	RequestTimeout      time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	GeoIPDBPath         string        `mapstructure:"GEOIP_DB_PATH"`
	NominatimURL        string        `mapstructure:"NOMINATIM_URL"`
	GeocoderUserAgent   string        `mapstructure:"GEOCODER_USER_AGENT"`
	GeocoderTimeout     time.Duration `mapstructure:"GEOCODER_TIMEOUT"`
	GeocoderMinInterval time.Duration `mapstructure:"GEOCODER_MIN_INTERVAL"`
	GeocodeCacheTTL     time.Duration `mapstructure:"GEOCODE_CACHE_TTL"`
	RedisURL            string        `mapstructure:"REDIS_URL"`
	DefaultTimezone     string        `mapstructure:"DEFAULT_TIMEZONE"`
	ReferenceLanguage   string        `mapstructure:"REFERENCE_LANGUAGE"`
	MetaNudgeRate       float64       `mapstructure:"META_NUDGE_RATE"`
	IPHashSalt          string        `mapstructure:"IP_HASH_SALT"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "file:moodcast.db")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("GEOIP_DB_PATH", "GeoLite2-City.mmdb")
	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "Moodcast/1.0")
	v.SetDefault("GEOCODER_TIMEOUT", "1200ms")
	v.SetDefault("GEOCODER_MIN_INTERVAL", "0s")
	v.SetDefault("GEOCODE_CACHE_TTL", "168h")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DEFAULT_TIMEZONE", "Asia/Seoul")
	v.SetDefault("REFERENCE_LANGUAGE", "en")
	v.SetDefault("META_NUDGE_RATE", 0.15)
	v.SetDefault("IP_HASH_SALT", "moodcast")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
