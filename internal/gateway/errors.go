package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soyeahso/lexidrill/internal/domain"
	"github.com/soyeahso/lexidrill/internal/llm"
)

// ErrorShape is the wire form of an error.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error ErrorShape `json:"error"`
}

// writeJSON writes a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError writes the error envelope for the given code.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: ErrorShape{Code: code, Message: message}})
}

// writeDomainError maps an error from the use-case layer onto the stable
// code taxonomy. Unknown errors become internal_error without leaking
// their text.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, domain.ErrAssignmentNotFound):
		writeError(w, http.StatusNotFound, "assignment_not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidJoinKey):
		writeError(w, http.StatusNotFound, "invalid_join_key", err.Error())
	case errors.Is(err, domain.ErrConflictInProgress):
		writeError(w, http.StatusConflict, "conflict_in_progress", err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limit", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		writeUpstreamError(w, err)
	}
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	var ue *llm.UpstreamError
	switch {
	case errors.As(err, &ue):
		code := "upstream_error"
		if ue.IsAuth() {
			code = "auth_error"
		}
		writeError(w, http.StatusBadGateway, code, ue.Error())
	case llm.IsUpstreamTimeout(err), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", "upstream request timed out")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
