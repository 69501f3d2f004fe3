// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/validation"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Data    any         `json:"data"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Meta    *Pagination `json:"_meta,omitempty"`
}

// ErrorResponse is the body written for failed requests.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// WriteJSON writes data wrapped in a Response envelope.
func WriteJSON(w http.ResponseWriter, status int, data any, message string) {
	writeBody(w, status, Response{Data: data, Message: message, Status: status})
}

// WritePage writes a paginated list.
func WritePage(w http.ResponseWriter, data any, page *Pagination, message string) {
	writeBody(w, http.StatusOK, Response{Data: data, Message: message, Status: http.StatusOK, Meta: page})
}

// WriteErrorMessage writes an ErrorResponse with an explicit status.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	writeBody(w, status, ErrorResponse{Status: status, Message: message})
}

// WriteError maps err onto an HTTP status. Unknown errors are logged and
// reported as a generic 500 so internal details are not leaked.
func WriteError(w http.ResponseWriter, err error, logger logging.LoggerInterface) {
	status, message := StatusFromError(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	}

	WriteErrorMessage(w, status, message)
}

// StatusFromError returns the HTTP status and caller-visible message for err.
func StatusFromError(err error) (int, string) {
	var vErr *validation.Error

	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Reason
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, "insufficient permissions"
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict, "resource already exists"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
