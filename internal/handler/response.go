package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// WHY HELPERS?
// Without helpers, every handler repeats the same boilerplate:
//   w.Header().Set("Content-Type", "application/json")
//   w.WriteHeader(statusCode)
//   json.NewEncoder(w).Encode(data)
//
// With helpers, handlers are cleaner and more consistent:
//   writeJSON(w, http.StatusOK, data)
//   writeError(w, r, logger, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "Newsletter not found."}
//   {"error": "name is required", "details": ["name is required", "email is invalid"]}
//
// The client always reads "error"; "details" only appears when there is
// more than one thing to report.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/execmind/internal/apperror"
)

// MaxBodyBytes caps a JSON request body.
const MaxBodyBytes = 1 << 20

// msgInternal is the only thing a client learns about an unexpected failure.
const msgInternal = "Internal Server Error"

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// MessageResponse is the body of endpoints that only report what they did.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body. Once Encode writes, the
// headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
// This is the one place domain errors become HTTP:
//
//	ErrValidation   → 400
//	ErrUnauthorized → 401
//	ErrForbidden    → 403
//	ErrNotFound     → 404
//	ErrConflict     → 409
//	ErrUpstream     → 500 with the AppError's own message
//	anything else   → 500 "Internal Server Error"
//
// WHAT GETS LOGGED:
// Every 500 is logged with the full error chain, including the cause an
// Upstream error carries (the provider's reply, the SMTP failure). The client
// only ever sees the message. 4xx responses are the client's problem and
// are left to the request logger.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logFailure(r, logger, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logFailure(r, logger, err)
	}

	resp := ErrorResponse{Error: appErr.Message}
	if len(appErr.Details) > 1 {
		resp.Details = appErr.Details
	}
	writeJSON(w, status, resp)
}

func logFailure(r *http.Request, logger *slog.Logger, err error) {
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
}

// decodeJSON reads a JSON object from the request body into dst.
//
// An empty body decodes as {} so endpoints whose fields are all optional
// accept a bare POST. Anything that is not a single JSON object answers 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)

	err := dec.Decode(dst)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "Request body is too large.")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperror.ValidationFailed(typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field))
		}
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}

	if dec.More() {
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}

// queryTime parses an optional date query parameter. A missing or
// unparsable value yields nil, which lists without a bound.
func queryTime(r *http.Request, key string) *time.Time {
	t, ok := parseDate(r.URL.Query().Get(key))
	if !ok {
		return nil
	}
	return &t
}

// dateLayouts are tried in order by parseDate.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts a full timestamp or a bare YYYY-MM-DD, the two forms a
// browser date input or JSON client sends.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
