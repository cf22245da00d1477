// Package adminapi is the operator-facing HTTP surface: liveness,
// Prometheus metrics, and a small set of moderation/visibility endpoints.
// It is deliberately separate from the game relay port (spec.md's wire
// protocol never appears here) and is guarded by bearer tokens signed with
// a single shared secret rather than a user directory.
package adminapi

import (
	"encoding/json"
	"net/http"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func ok(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusOK, envelope{"data": payload})
}

func errJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"error": message})
}

func errBadRequest(w http.ResponseWriter, message string) {
	errJSON(w, http.StatusBadRequest, message)
}

func errUnauthorized(w http.ResponseWriter) {
	errJSON(w, http.StatusUnauthorized, "authentication required")
}

func errNotFound(w http.ResponseWriter) {
	errJSON(w, http.StatusNotFound, "not found")
}

func errInternal(w http.ResponseWriter) {
	errJSON(w, http.StatusInternalServerError, "an internal error occurred")
}
