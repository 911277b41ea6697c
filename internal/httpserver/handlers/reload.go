package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/urlinfo/internal/httpserver/deps"
	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/scheduler"
)

type reloadResponse struct {
	Reloaded []string          `json:"reloaded"`
	Pinned   []string          `json:"pinned,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// Reload synchronously reloads every store that supports it. A failed store
// keeps serving its previous data and is reported with a 500. Pinned stores
// are listed apart since they never re-read their data.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := scheduler.ReloadAll(r.Context(), d.Stores, d.Logger)

		resp := reloadResponse{Reloaded: res.Reloaded, Pinned: res.Pinned}
		for name, err := range res.Errors {
			if resp.Errors == nil {
				resp.Errors = make(map[string]string, len(res.Errors))
			}
			resp.Errors[name] = err.Error()
		}

		d.Logger.Info("manual reload via endpoint",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Strings("reloaded", res.Reloaded),
			logger.Strings("pinned", res.Pinned),
			logger.Int("failed", len(res.Errors)))

		status := http.StatusOK
		if res.Failed() {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, resp)
	}
}
