package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/platform/logger"
)

type errorBody struct {
	Error   string                   `json:"error"`
	Details []apperr.ValidationError `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// BadRequest para errores de parseo en el handler (json inválido, query params).
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// Error traduce errores de servicio a status HTTP:
// NotFound -> 404, DuplicateKey/validación -> 400, resto -> 500 (y se loguea).
func Error(w http.ResponseWriter, log logger.Logger, err error) {
	var verrs apperr.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		JSON(w, http.StatusBadRequest, errorBody{Error: "invalid input", Details: verrs})
	case errors.Is(err, apperr.ErrNotFound):
		JSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case apperr.IsClientError(err):
		JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		if log != nil {
			log.Error("request failed", map[string]any{"err": err})
		}
		JSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// Decode lee el body JSON rechazando campos desconocidos.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ParseID valida un id numérico de path (> 0).
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
