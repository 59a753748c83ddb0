package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"storefront-banners/internal/banner"
	"storefront-banners/internal/observability"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)

type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []banner.FieldError `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, body errorBody) {
	observability.RequestErrors.WithLabelValues(body.Code).Inc()
	writeJSON(w, status, errorEnvelope{Error: body})
}

// writeError maps domain errors onto the HTTP error envelope. Anything it
// does not recognise is logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *banner.ValidationError
	switch {
	case errors.As(err, &ve):
		writeErrorBody(w, http.StatusBadRequest, errorBody{Code: CodeValidation, Message: "validation failed", Fields: ve.Fields})
	case errors.Is(err, banner.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, errorBody{Code: CodeNotFound, Message: "banner not found"})
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeErrorBody(w, http.StatusInternalServerError, errorBody{Code: CodeInternal, Message: "internal error"})
	}
}

// badRequest reports a malformed request parameter with the same envelope as
// a payload that fails validation.
func badRequest(w http.ResponseWriter, r *http.Request, field, message string) {
	writeError(w, r, banner.NewValidationError(field, message))
}
