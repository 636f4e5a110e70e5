package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/atriumcrm/atrium/internal/fault"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeServiceError translates a service-layer error into an HTTP response.
// Domain rule violations map onto 4xx codes; anything else is an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	switch fe.Kind {
	case fault.KindBusinessRule:
		writeError(w, http.StatusUnprocessableEntity, "business_rule_violation", fe.Message)
	case fault.KindPermissionDenied:
		writeError(w, http.StatusForbidden, "permission_denied", fe.Message)
	case fault.KindNotFound:
		writeError(w, http.StatusNotFound, "not_found", fe.Message)
	case fault.KindConflict:
		writeError(w, http.StatusConflict, "conflict", fe.Message)
	case fault.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, "unauthorized", fe.Message)
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}
