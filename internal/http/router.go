package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/moodcast/backend/internal/config"
	"github.com/moodcast/backend/internal/http/handlers"
	"github.com/moodcast/backend/internal/http/middleware"

	_ "github.com/moodcast/backend/docs"
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Store   handlers.Pinger
	Voting  handlers.Voting
	Stats   handlers.StatsSource
	Locator handlers.Locator
	Hub     handlers.Subscriber
}

func Router(cfg config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	// Empty keeps gin's default of trusting every proxy hop, which is what
	// edge platforms that rewrite X-Forwarded-For expect.
	if proxies := splitOrigins(cfg.TrustedProxies); len(proxies) > 0 {
		if err := r.SetTrustedProxies(proxies); err != nil {
			logger.Warn().Err(err).Str("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, trusting none")
			_ = r.SetTrustedProxies(nil)
		}
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "X-Admin-Key", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = splitOrigins(cfg.CORSAllowed)
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     deps.Store,
		Voting:    deps.Voting,
		Stats:     deps.Stats,
		Locator:   deps.Locator,
		Hub:       deps.Hub,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/ws", h.Subscribe)

	api := r.Group("/api")
	{
		api.POST("/votes", h.SubmitVote)
		api.GET("/votes/today", h.TodayVote)
		api.GET("/location", h.Location)
		api.POST("/location/refine", h.RefineLocation)
		api.POST("/location/gps", h.GPSLocation)
		api.GET("/stats", h.StatsToday)
	}

	admin := api.Group("/debug")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.GET("/location", h.DebugLocation)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
