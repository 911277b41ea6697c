package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/urlinfo/internal/httpserver/deps"
	"github.com/MrSnakeDoc/urlinfo/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/urlinfo/internal/httpserver/mw"
)

func init() { Register(registerURLInfo) }

func registerURLInfo(r chi.Router, d deps.Deps) {
	mws := []func(http.Handler) http.Handler{mw.EnforceHost(d.AllowedHosts, d.Logger)}
	if d.RateLimitBurst > 0 {
		mws = append(mws, mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateLimitBurst,
			RefillPerIPPerMin: d.RateLimitRefill,
			MaxEntries:        100_000,
			TrustProxy:        d.TrustProxy,
		}))
	}
	r.With(mws...).Get(handlers.URLInfoPrefix+"*", handlers.URLInfo(d))
}
