package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/moodcast/backend/internal/location"
	"github.com/moodcast/backend/internal/models"
	"github.com/moodcast/backend/internal/service"
)

const defaultLocale = "en"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Voting interface {
	Submit(ctx context.Context, req service.SubmitRequest) (service.SubmitResult, error)
	Today(ctx context.Context, voterID string, timezone string, locale string) (models.Vote, error)
}

type StatsSource interface {
	Stats(ctx context.Context, std models.Regions, timezone string, extra ...models.VoteRow) (models.DashboardStats, error)
}

type Locator interface {
	HeadersOnly(ctx context.Context, h location.Hints, locale string) models.Location
	Enrich(ctx context.Context, h location.Hints, locale string) models.Location
	FromGPS(ctx context.Context, lat, lng float64, locale string) models.Location
}

type Subscriber interface {
	ServeWS(w http.ResponseWriter, r *http.Request, channel string) error
}

type Handler struct {
	Store     Pinger
	Voting    Voting
	Stats     StatsSource
	Locator   Locator
	Hub       Subscriber
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bind decodes the JSON body into req and validates it. It writes the
// error response itself and reports whether the handler may continue.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// requestLocale prefers an explicit locale and falls back to the first
// Accept-Language tag, then English.
func requestLocale(c *gin.Context, explicit string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return tag.String()
		}
	}
	tags, _, err := language.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
	if err == nil && len(tags) > 0 && tags[0] != language.Und {
		return tags[0].String()
	}
	return defaultLocale
}

// requestTimezone prefers the query parameter, then the edge header.
// Empty means the service default.
func requestTimezone(c *gin.Context, h location.Hints) string {
	if tz := strings.TrimSpace(c.Query("timezone")); tz != "" {
		return tz
	}
	return h.Timezone
}
