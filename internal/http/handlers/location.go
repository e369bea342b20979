package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moodcast/backend/internal/location"
	"github.com/moodcast/backend/internal/models"
	"github.com/moodcast/backend/internal/pubsub"
)

type LocationResponse struct {
	Location    models.Location `json:"location"`
	DisplayName string          `json:"display_name"`
	Scope       string          `json:"scope"`
}

// Refine is the most specific finer-than-country label on each side.
type Refine struct {
	Localized string `json:"localized"`
	Std       string `json:"std"`
}

type RefineResponse struct {
	LocationResponse
	Refine Refine `json:"refine"`
}

type RefineRequest struct {
	Locale string `json:"locale" validate:"omitempty,max=35"`
}

type GPSRequest struct {
	Lat    *float64 `json:"lat" validate:"required,latitude"`
	Lng    *float64 `json:"lng" validate:"required,longitude"`
	Locale string   `json:"locale" validate:"omitempty,max=35"`
}

func locationResponse(loc models.Location) LocationResponse {
	return LocationResponse{
		Location:    loc,
		DisplayName: location.DisplayName(loc.Display(), models.GlobalRegion),
		Scope:       location.Scope(loc.Std),
	}
}

func refinePair(loc models.Location) Refine {
	pick := func(r2, r1 string) string {
		if r2 != models.Unknown {
			return r2
		}
		return r1
	}
	return Refine{
		Localized: pick(loc.Region2, loc.Region1),
		Std:       pick(loc.Std.Region2, loc.Std.Region1),
	}
}

// @Summary Fast location
// @Description Region from the IP database and edge headers only
// @Tags location
// @Produce json
// @Param locale query string false "UI locale"
// @Success 200 {object} LocationResponse
// @Router /api/location [get]
func (h *Handler) Location(c *gin.Context) {
	loc := h.Locator.HeadersOnly(c.Request.Context(), location.HintsFromRequest(c.Request, c.ClientIP()), requestLocale(c, c.Query("locale")))
	c.JSON(http.StatusOK, locationResponse(loc))
}

// @Summary Refined location
// @Description Headers-only region localized through the geocoder
// @Tags location
// @Accept json
// @Produce json
// @Param body body RefineRequest false "locale"
// @Success 200 {object} RefineResponse
// @Router /api/location/refine [post]
func (h *Handler) RefineLocation(c *gin.Context) {
	var req RefineRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	loc := h.Locator.Enrich(c.Request.Context(), location.HintsFromRequest(c.Request, c.ClientIP()), requestLocale(c, req.Locale))
	c.JSON(http.StatusOK, RefineResponse{LocationResponse: locationResponse(loc), Refine: refinePair(loc)})
}

// @Summary GPS location
// @Tags location
// @Accept json
// @Produce json
// @Param body body GPSRequest true "coordinates"
// @Success 200 {object} LocationResponse
// @Failure 400 {object} map[string]any
// @Router /api/location/gps [post]
func (h *Handler) GPSLocation(c *gin.Context) {
	var req GPSRequest
	if !h.bind(c, &req) {
		return
	}
	loc := h.Locator.FromGPS(c.Request.Context(), *req.Lat, *req.Lng, requestLocale(c, req.Locale))
	c.JSON(http.StatusOK, locationResponse(loc))
}

// @Summary Today's stats
// @Description Waterfall stats for a standardized region context
// @Tags stats
// @Produce json
// @Param region0 query string false "Country (standardized)"
// @Param region1 query string false "City or province (standardized)"
// @Param region2 query string false "District (standardized)"
// @Param timezone query string false "IANA timezone"
// @Success 200 {object} models.DashboardStats
// @Router /api/stats [get]
func (h *Handler) StatsToday(c *gin.Context) {
	std := models.Regions{
		Region0: queryRegion(c, "region0"),
		Region1: queryRegion(c, "region1"),
		Region2: queryRegion(c, "region2"),
	}
	hints := location.HintsFromRequest(c.Request, c.ClientIP())
	stats, err := h.Stats.Stats(c.Request.Context(), std, requestTimezone(c, hints))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load stats", err.Error())
		return
	}
	c.JSON(http.StatusOK, stats)
}

func queryRegion(c *gin.Context, key string) string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return v
	}
	return models.Unknown
}

// Subscribe upgrades to a websocket receiving stats for one region.
func (h *Handler) Subscribe(c *gin.Context) {
	name := strings.TrimSpace(c.Query("channel"))
	if name == "" || name == models.Unknown {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "channel is required", nil)
		return
	}
	if err := h.Hub.ServeWS(c.Writer, c.Request, pubsub.ChannelName(name)); err != nil {
		h.Logger.Warn().Err(err).Str("channel", name).Msg("websocket upgrade failed")
	}
}

// @Summary Debug location
// @Description Compares headers-only and enriched resolution for the caller
// @Tags debug
// @Produce json
// @Param locale query string false "UI locale"
// @Success 200 {object} map[string]any
// @Router /api/debug/location [get]
func (h *Handler) DebugLocation(c *gin.Context) {
	hints := location.HintsFromRequest(c.Request, c.ClientIP())
	locale := requestLocale(c, c.Query("locale"))
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"locale":       locale,
		"hints":        hints,
		"headers_only": h.Locator.HeadersOnly(ctx, hints, locale),
		"enriched":     h.Locator.Enrich(ctx, hints, locale),
	})
}
