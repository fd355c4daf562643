package handler

// RESPONSE HELPERS:
// Every endpoint in this API answers with the same envelope:
//
//	success: {"statusCode":200,"data":{...},"message":"...","success":true}
//	error:   {"statusCode":401,"message":"...","success":false}
//
// The envelope is written in exactly two places — respond and respondError —
// so no handler can drift from the shape. respondError is also the single
// boundary where domain errors (apperror values from the service layer)
// become transport responses; the service layer never sees an HTTP status.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rlbk/nodejs-backend/internal/apperror"
)

// apiResponse is the success envelope.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError is the error envelope. No Data field — a failed request carries
// no partial payload.
type apiError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// respond writes the success envelope.
//
// Headers and status MUST be set before the first body write — once
// json.Encode writes, the headers are on the wire.
func respond(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	}); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// respondError converts a domain error into the error envelope.
//
// An *apperror.AppError carries its own status code and a client-safe
// message. Anything else is an unexpected failure: it is logged with full
// detail and surfaced as a generic 500 — raw error text can contain SQL,
// file paths, or other internals a client must never see.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= 500 {
			logger.Error("request failed", slog.String("error", err.Error()))
		}
		writeErrorEnvelope(w, appErr.Code, appErr.Message)
		return
	}

	logger.Error("unexpected error", slog.String("error", err.Error()))
	writeErrorEnvelope(w, http.StatusInternalServerError, "an internal error occurred")
}

func writeErrorEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiError{
		StatusCode: status,
		Message:    message,
		Success:    false,
	}); err != nil {
		slog.Error("failed to encode JSON error response", slog.String("error", err.Error()))
	}
}
