package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// InvalidRequest is the body answered for anything that is not a valid lookup.
var InvalidRequest = reputation.Unknown("invalid request")

// ServerError is the body answered when a handler panics.
var ServerError = reputation.Unknown("server error")

// NotFound answers unknown routes with the verdict envelope.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, InvalidRequest)
	}
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, InvalidRequest)
	}
}
