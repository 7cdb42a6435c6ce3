package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Error kinds carried in the "kind" field of error bodies.
const (
	kindValidation         = "validation_error"
	kindInvalidCredentials = "invalid_credentials"
	kindUnauthorized       = "unauthorized"
	kindStore              = "store_error"
	kindProvider           = "provider_error"
	kindInternal           = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError sends msg to the client and logs the underlying cause, which
// never reaches the response body.
func writeError(w http.ResponseWriter, r *http.Request, status int, kind, msg string, cause error) {
	ev := log.Debug()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(cause).
		Str("request_id", requestIDFrom(r.Context())).
		Str("kind", kind).
		Int("status", status).
		Msg(msg)

	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}
