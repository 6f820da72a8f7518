package handler

import (
	"encoding/json"
	"net/http"

	"cfstats/internal/api/middleware"
	"cfstats/internal/app/service"
	"cfstats/internal/common"

	"github.com/go-chi/chi/v5"
)

type TrackingHandler struct {
	tracking *service.TrackingService
}

func NewTrackingHandler(tracking *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// RegisterRoutes mounts the admin routes; callers wrap them with auth.
func (h *TrackingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.track)
	r.Delete("/{handle}", h.untrack)
}

type trackRequest struct {
	Handle string `json:"handle"`
}

func (h *TrackingHandler) list(w http.ResponseWriter, r *http.Request) {
	tracked, err := h.tracking.List(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tracked)
}

func (h *TrackingHandler) track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	var addedBy *string
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		addedBy = &id
	}
	th, err := h.tracking.Track(r.Context(), req.Handle, addedBy)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, th)
}

func (h *TrackingHandler) untrack(w http.ResponseWriter, r *http.Request) {
	if err := h.tracking.Untrack(r.Context(), chi.URLParam(r, "handle")); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leaderboard serves GET /leaderboard.
func (h *TrackingHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.tracking.Leaderboard(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, board)
}
