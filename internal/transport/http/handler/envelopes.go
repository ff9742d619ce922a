package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AccountEnvelope wraps responses carrying the public account view.
type AccountEnvelope struct {
	Account *domain.PublicAccount `json:"account,omitempty"`
	Message string                `json:"message,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels to HTTP status codes. Anything outside the
// taxonomy (store failures, a mailer that could not deliver after a committed
// state transition) is a generic 500 so internals never leak to the caller.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidOrExpiredCode),
		errors.Is(err, domain.ErrInvalidOrExpiredToken):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong on server")
	}
}
