package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moodcast/backend/internal/analysis"
	"github.com/moodcast/backend/internal/cache"
	"github.com/moodcast/backend/internal/config"
	"github.com/moodcast/backend/internal/db"
	"github.com/moodcast/backend/internal/geocode"
	"github.com/moodcast/backend/internal/geoip"
	httpapi "github.com/moodcast/backend/internal/http"
	"github.com/moodcast/backend/internal/location"
	"github.com/moodcast/backend/internal/pubsub"
	"github.com/moodcast/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "moodcast-backend").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()
	if err := store.CreateSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to create schema")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		defer rdb.Close()
	}

	var geoCache cache.Cache
	if rdb != nil {
		geoCache = &cache.Redis{Client: rdb, Prefix: "moodcast:", Logger: logger}
	} else {
		mem := cache.NewMemory()
		defer mem.Close()
		geoCache = mem
		logger.Info().Msg("using in-memory geocode cache")
	}

	ipdb := geoip.NewReader(cfg.GeoIPDBPath, logger)
	ipdb.Reference = cfg.ReferenceLanguage
	defer ipdb.Close()

	geocoder := &geocode.NominatimGeocoder{
		BaseURL:     cfg.NominatimURL,
		UserAgent:   cfg.GeocoderUserAgent,
		Timeout:     cfg.GeocoderTimeout,
		MinInterval: cfg.GeocoderMinInterval,
		CacheTTL:    cfg.GeocodeCacheTTL,
		Cache:       geoCache,
		Logger:      logger,
	}

	resolver := &location.Resolver{
		IP:              ipdb,
		Geocoder:        geocoder,
		Reference:       cfg.ReferenceLanguage,
		DefaultTimezone: cfg.DefaultTimezone,
		Logger:          logger,
	}
	if tz, err := location.NewTZFinder(); err != nil {
		logger.Error().Err(err).Msg("timezone finder unavailable; gps votes use the default timezone")
	} else {
		resolver.Timezones = tz
	}

	engine, err := analysis.NewEngine(cfg.MetaNudgeRate)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load message pools")
	}
	engine.Reference = cfg.ReferenceLanguage

	hub := pubsub.NewHub(logger)
	go hub.Run(ctx)

	var publisher pubsub.Publisher = hub
	if rdb != nil {
		publisher = &pubsub.RedisPublisher{Client: rdb}
		go func() {
			if err := pubsub.Relay(ctx, rdb, hub, logger); err != nil {
				logger.Error().Err(err).Msg("redis relay stopped")
			}
		}()
	}

	aggregator := &service.Aggregator{Store: store, DefaultTimezone: cfg.DefaultTimezone}
	voting := &service.VotingService{
		Store:       store,
		Resolver:    resolver,
		Aggregator:  aggregator,
		Analyzer:    engine,
		Broadcaster: &service.Broadcaster{Aggregator: aggregator, Publisher: publisher, Logger: logger},
		IPSalt:      cfg.IPHashSalt,
		Logger:      logger,
	}

	router := httpapi.Router(cfg, httpapi.Deps{
		Store:   store,
		Voting:  voting,
		Stats:   aggregator,
		Locator: resolver,
		Hub:     hub,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
