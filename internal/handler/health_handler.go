package handler

import (
	"net/http"

	"github.com/parisxmas/juridoc/internal/service"
)

type HealthHandler struct {
	subSvc  *service.SubmissionService
	version string
}

func NewHealthHandler(subSvc *service.SubmissionService, version string) *HealthHandler {
	return &HealthHandler{subSvc: subSvc, version: version}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"submissions": h.subSvc.Count(),
		"version":     h.version,
	})
}
