package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/parisxmas/juridoc/internal/apperror"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, errorResponse{Message: message, Error: detail})
}

// readJSON decodes exactly one JSON value from the body.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case err == io.EOF:
		return nil
	case err != nil:
		return err
	default:
		return errors.New("request body must contain a single JSON value")
	}
}

// statusFor maps an error kind to its HTTP status and client message.
func statusFor(kind apperror.Kind) (int, string) {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest, "Dados inválidos"
	case apperror.KindUnsupportedMediaType:
		return http.StatusBadRequest, "Tipo de arquivo não suportado"
	case apperror.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge, "Arquivo excede o tamanho máximo permitido"
	case apperror.KindNotFound:
		return http.StatusNotFound, "Não encontrado"
	default:
		return http.StatusInternalServerError, "Erro interno do servidor"
	}
}

// writeAppError reports err to the client. Details of internal errors
// are logged, not returned.
func writeAppError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	kind := apperror.KindOf(err)
	status, message := statusFor(kind)
	if kind == apperror.KindInternal {
		log.Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, status, message, "")
		return
	}
	writeError(w, status, message, err.Error())
}
