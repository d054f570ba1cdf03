package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parisxmas/juridoc/internal/service"
)

type AttachmentHandler struct {
	svc *service.AttachmentService
	log *slog.Logger
}

func NewAttachmentHandler(svc *service.AttachmentService, log *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{svc: svc, log: log}
}

// Download streams a stored file by its generated name.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	rc, info, err := h.svc.Resolve(r.Context(), name)
	if err != nil {
		writeAppError(w, r, h.log, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, name, time.Time{}, rc)
}
