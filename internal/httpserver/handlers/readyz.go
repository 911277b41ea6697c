package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/urlinfo/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool `json:"ready"`
	Stores int  `json:"stores"`
}

// Readyz reports ready once at least one store is registered.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := d.Checker.StoreCount()
		status := http.StatusOK
		if n == 0 {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{Ready: n > 0, Stores: n})
	}
}
