package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/urlinfo/internal/httpserver/deps"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

const infraProbeTimeout = 2 * time.Second

type storeReport struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	reputation.StoreStatus
}

type infraResponse struct {
	Status string        `json:"status"`
	Stores []storeReport `json:"stores"`
}

// Infra reports the status of every configured store, in polling order.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), infraProbeTimeout)
		defer cancel()

		reports := make([]storeReport, 0, len(d.Stores))
		for i, b := range d.Stores {
			st := reputation.StoreStatus{OK: true}
			if sr, ok := b.Store.(reputation.StatusReporter); ok {
				st = sr.StoreStatus(ctx)
			}
			reports = append(reports, storeReport{
				Position:    i + 1,
				Name:        b.Name,
				Type:        b.Type,
				StoreStatus: st,
			})
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status: overallStatus(reports),
			Stores: reports,
		})
	}
}

// overallStatus is "critical" with no stores, "degraded" when any store is
// unhealthy, "ok" otherwise.
func overallStatus(reports []storeReport) string {
	if len(reports) == 0 {
		return "critical"
	}
	for _, r := range reports {
		if !r.OK {
			return "degraded"
		}
	}
	return "ok"
}
