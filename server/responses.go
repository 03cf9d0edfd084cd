package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
)

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

// writeError maps the error taxonomy onto a status code. Upstream OAuth errors keep
// their own code and description.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	description := err.Error()

	var exchangeErr *apperrors.AuthExchangeError
	if errors.As(err, &exchangeErr) {
		code = exchangeErr.Code
		if exchangeErr.Description != "" {
			description = exchangeErr.Description
		}
	}

	if status >= http.StatusInternalServerError {
		log.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	}
	writeJSONError(w, code, description, status)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrConfiguration):
		return http.StatusBadRequest, "configuration_error"
	case errors.Is(err, apperrors.ErrInvalidIdentifier):
		return http.StatusBadRequest, "invalid_identifier"
	case errors.Is(err, apperrors.ErrAuthExchange):
		return http.StatusUnauthorized, "auth_exchange_failed"
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not_authenticated"
	case errors.Is(err, apperrors.ErrRemoteQuery):
		return http.StatusBadGateway, "remote_query_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
