package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"vida/internal/auth"
	"vida/internal/core"
	applog "vida/internal/log"
	"vida/internal/storage"
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dataEnvelope{Data: v})
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: msg})
}

// writeError maps a service error onto a status code. Internal errors are
// logged and masked; everything else is returned verbatim.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		applog.FromContext(ctx).ErrorContext(ctx, "Request failed", applog.FieldError, err.Error())
		writeErrorMessage(w, status, "internal error")
		return
	}
	writeErrorMessage(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrItemNotFound):
		return http.StatusNotFound
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
