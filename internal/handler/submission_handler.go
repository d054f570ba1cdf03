package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/parisxmas/juridoc/internal/apperror"
	"github.com/parisxmas/juridoc/internal/middleware"
	"github.com/parisxmas/juridoc/internal/models"
	"github.com/parisxmas/juridoc/internal/service"
)

// clientInfoField is the multipart field that may carry the client data
// as one JSON object.
const clientInfoField = "dadosCliente"

const maxTextFieldBytes = 1 << 20

type SubmissionHandler struct {
	subSvc          *service.SubmissionService
	attSvc          *service.AttachmentService
	log             *slog.Logger
	maxRequestBytes int64
}

func NewSubmissionHandler(subSvc *service.SubmissionService, attSvc *service.AttachmentService, log *slog.Logger, maxRequestBytes int64) *SubmissionHandler {
	return &SubmissionHandler{subSvc: subSvc, attSvc: attSvc, log: log, maxRequestBytes: maxRequestBytes}
}

type createResponse struct {
	Message string            `json:"message"`
	Data    models.Submission `json:"data"`
}

func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.maxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	}

	var (
		req service.IntakeRequest
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		req, err = h.parseMultipart(r)
	case "application/json", "":
		req, err = h.parseJSON(r)
	default:
		err = apperror.UnsupportedMediaType("content type %q is not accepted", mediaType)
	}
	if err != nil {
		writeAppError(w, r, h.log, err)
		return
	}
	req.OriginIP = middleware.ClientIP(r)

	sub, _, err := h.subSvc.Create(r.Context(), req)
	if err != nil {
		writeAppError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, createResponse{
		Message: "Documentos recebidos com sucesso!",
		Data:    sub,
	})
}

func (h *SubmissionHandler) parseJSON(r *http.Request) (service.IntakeRequest, error) {
	var info map[string]any
	if err := readJSON(r, &info); err != nil {
		if tooLarge(err) {
			return service.IntakeRequest{}, apperror.PayloadTooLarge("request body exceeds %d bytes", h.maxRequestBytes)
		}
		return service.IntakeRequest{}, apperror.Wrap(apperror.KindValidation, err, "invalid request body")
	}
	return service.IntakeRequest{ClientInfo: info}, nil
}

// parseMultipart streams the parts, keeping text fields as client data and
// reading each file part up to the per-file limit.
func (h *SubmissionHandler) parseMultipart(r *http.Request) (service.IntakeRequest, error) {
	req := service.IntakeRequest{ClientInfo: map[string]any{}}
	mr, err := r.MultipartReader()
	if err != nil {
		return req, apperror.Wrap(apperror.KindValidation, err, "invalid multipart body")
	}
	maxFile := h.attSvc.MaxFileBytes()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if tooLarge(err) {
				return req, apperror.PayloadTooLarge("request body exceeds %d bytes", h.maxRequestBytes)
			}
			return req, apperror.Wrap(apperror.KindValidation, err, "invalid multipart body")
		}

		name := part.FormName()
		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxTextFieldBytes+1))
			_ = part.Close()
			if err != nil {
				return req, h.readErr(err)
			}
			if len(value) > maxTextFieldBytes {
				return req, apperror.PayloadTooLarge("field %q exceeds the %d byte limit", name, maxTextFieldBytes)
			}
			if err := mergeTextField(req.ClientInfo, name, string(value)); err != nil {
				return req, err
			}
			continue
		}

		if _, ok := h.attSvc.Policy(name); !ok {
			_ = part.Close()
			return req, apperror.UnsupportedMediaType("field %q does not accept files", name)
		}
		data, err := io.ReadAll(io.LimitReader(part, maxFile+1))
		_ = part.Close()
		if err != nil {
			return req, h.readErr(err)
		}
		if int64(len(data)) > maxFile {
			return req, apperror.PayloadTooLarge("file %q exceeds the %d byte limit", part.FileName(), maxFile)
		}
		req.Uploads = append(req.Uploads, service.Upload{
			Field:       name,
			FileName:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return req, nil
}

func (h *SubmissionHandler) readErr(err error) error {
	if tooLarge(err) {
		return apperror.PayloadTooLarge("request body exceeds %d bytes", h.maxRequestBytes)
	}
	return apperror.Wrap(apperror.KindValidation, err, "invalid multipart body")
}

// mergeTextField stores a text part. The dadosCliente part is decoded as
// a JSON object and merged; a malformed one is an internal error.
func mergeTextField(info map[string]any, name, value string) error {
	if name != clientInfoField {
		info[name] = value
		return nil
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var extra map[string]any
	if err := json.Unmarshal([]byte(value), &extra); err != nil {
		return apperror.Internal(err, "malformed dadosCliente JSON")
	}
	for k, v := range extra {
		info[k] = v
	}
	return nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.subSvc.List())
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		writeAppError(w, r, h.log, apperror.NotFound("submission %q not found", raw))
		return
	}
	sub, err := h.subSvc.Get(idx)
	if err != nil {
		writeAppError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
