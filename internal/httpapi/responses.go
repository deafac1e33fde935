package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"shootoutserver/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDomainError maps the error taxonomy onto HTTP statuses with the
// specific reason the caller needs to distinguish business-rule
// rejections from infrastructure failures.
func WriteDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteError(w, http.StatusBadRequest, "validation_error", verr.Error())
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "you are not a participant of this match")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "match not found")
	case errors.Is(err, domain.ErrAlreadySubmitted):
		WriteError(w, http.StatusConflict, "already_submitted", "moves were already submitted for this slot")
	case errors.Is(err, domain.ErrMatchFull):
		WriteError(w, http.StatusConflict, "match_full", "this match already has a second player")
	case errors.Is(err, domain.ErrMatchInProgress):
		WriteError(w, http.StatusConflict, "match_in_progress", "the game is already in progress")
	case errors.Is(err, domain.ErrChallengeExists):
		WriteError(w, http.StatusConflict, "challenge_exists", "an open challenge already exists between these players")
	case errors.Is(err, domain.ErrRoleConflict):
		WriteError(w, http.StatusConflict, "role_conflict", "the other player already took this role")
	case errors.Is(err, domain.ErrUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "service unavailable")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
