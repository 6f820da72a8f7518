package handler

import (
	"net/http"
	"strconv"

	"cfstats/internal/app/service"
	"cfstats/internal/common"
	"cfstats/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	stats *service.StatsService
}

func NewProfileHandler(stats *service.StatsService) *ProfileHandler {
	return &ProfileHandler{stats: stats}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{handle}", h.getSnapshot)
	r.Get("/{handle}/stats", h.getStats)
	r.Get("/{handle}/rating", h.getRating)
	r.Get("/{handle}/submissions", h.getSubmissions)
	r.Get("/{handle}/blog", h.getBlog)
	r.Get("/{handle}/history", h.getHistory)
}

func (h *ProfileHandler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	fresh, _ := strconv.ParseBool(r.URL.Query().Get("fresh"))
	snap, err := h.stats.Get(r.Context(), chi.URLParam(r, "handle"), fresh)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, snap)
}

func (h *ProfileHandler) getStats(w http.ResponseWriter, r *http.Request) {
	view, err := h.stats.Stats(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ProfileHandler) getRating(w http.ResponseWriter, r *http.Request) {
	points, err := h.stats.RatingHistory(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, points)
}

func (h *ProfileHandler) getSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subs, err := h.stats.Submissions(r.Context(), chi.URLParam(r, "handle"), q.Get("verdict"), q.Get("tag"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

func (h *ProfileHandler) getBlog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.stats.BlogEntries(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *ProfileHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			common.RespondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	hist, err := h.stats.History(r.Context(), chi.URLParam(r, "handle"), limit)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, hist)
}

// respondWithError logs server-side failures before answering.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	if code := common.HTTPStatusFromError(err); code >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	common.RespondWithServiceError(w, err)
}
