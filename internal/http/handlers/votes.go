package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moodcast/backend/internal/location"
	"github.com/moodcast/backend/internal/models"
	"github.com/moodcast/backend/internal/service"
)

type VoteRequest struct {
	VoterID string   `json:"voter_id" validate:"required,max=128"`
	Gender  string   `json:"gender" validate:"required,oneof=male female"`
	Mood    string   `json:"mood" validate:"required,oneof=good bad"`
	Locale  string   `json:"locale" validate:"omitempty,max=35"`
	Lat     *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng     *float64 `json:"lng" validate:"omitempty,longitude"`
}

type VoteResponse struct {
	VoteID      string                `json:"vote_id"`
	CreatedAt   time.Time             `json:"created_at"`
	Region      models.Location       `json:"region"`
	DisplayName string                `json:"display_name"`
	Scope       string                `json:"scope"`
	Stats       models.DashboardStats `json:"stats"`
	Analysis    *string               `json:"analysis"`
}

// @Summary Submit today's mood
// @Description Resolves the voter's region, stores the vote and returns regional stats with an analysis message
// @Tags votes
// @Accept json
// @Produce json
// @Param body body VoteRequest true "vote"
// @Success 201 {object} VoteResponse
// @Failure 400 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /api/votes [post]
func (h *Handler) SubmitVote(c *gin.Context) {
	var req VoteRequest
	if !h.bind(c, &req) {
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "lat and lng must be sent together", nil)
		return
	}

	sub := service.SubmitRequest{
		VoterID: req.VoterID,
		Gender:  models.Gender(req.Gender),
		Mood:    models.Mood(req.Mood),
		Locale:  requestLocale(c, req.Locale),
		Hints:   location.HintsFromRequest(c.Request, c.ClientIP()),
	}
	if req.Lat != nil {
		sub.Coords = &models.Coords{Lat: *req.Lat, Lng: *req.Lng}
	}

	res, err := h.Voting.Submit(c.Request.Context(), sub)
	if err != nil {
		if errors.Is(err, service.ErrInvalidVote) {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid vote", err.Error())
			return
		}
		h.Logger.Error().Err(err).Str("voter_id", req.VoterID).Msg("vote submission failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to store vote", err.Error())
		return
	}

	c.JSON(http.StatusCreated, VoteResponse{
		VoteID:      res.Vote.ID,
		CreatedAt:   res.Vote.CreatedAt,
		Region:      res.Location,
		DisplayName: location.DisplayName(res.Location.Display(), models.GlobalRegion),
		Scope:       location.Scope(res.Location.Std),
		Stats:       res.Stats,
		Analysis:    res.Vote.Analysis,
	})
}

// @Summary Today's vote
// @Description Latest vote of the voter since local midnight
// @Tags votes
// @Produce json
// @Param voter_id query string true "Voter ID"
// @Param timezone query string false "IANA timezone"
// @Success 200 {object} models.Vote
// @Failure 404 {object} map[string]any
// @Router /api/votes/today [get]
func (h *Handler) TodayVote(c *gin.Context) {
	voterID := strings.TrimSpace(c.Query("voter_id"))
	if voterID == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "voter_id is required", nil)
		return
	}
	hints := location.HintsFromRequest(c.Request, c.ClientIP())
	v, err := h.Voting.Today(c.Request.Context(), voterID, requestTimezone(c, hints), requestLocale(c, c.Query("locale")))
	if err != nil {
		if errors.Is(err, service.ErrNoVoteToday) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No vote today", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load vote", err.Error())
		return
	}
	c.JSON(http.StatusOK, v)
}
