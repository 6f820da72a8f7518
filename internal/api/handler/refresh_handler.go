package handler

import (
	"net/http"

	"cfstats/internal/app/service"
	"cfstats/internal/common"
	"cfstats/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type RefreshHandler struct {
	jobs *service.RefreshJobService
}

func NewRefreshHandler(jobs *service.RefreshJobService) *RefreshHandler {
	return &RefreshHandler{jobs: jobs}
}

func (h *RefreshHandler) RegisterRoutes(r chi.Router) {
	r.Post("/{handle}", h.enqueue)
	r.Get("/jobs/{jobID}", h.getJob)
}

func (h *RefreshHandler) enqueue(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.EnqueueRefresh(r.Context(), chi.URLParam(r, "handle"), model.RefreshReasonManual)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/refresh/jobs/"+job.ID)
	common.RespondWithJSON(w, http.StatusAccepted, job)
}

func (h *RefreshHandler) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}
