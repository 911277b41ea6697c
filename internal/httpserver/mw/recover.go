package mw

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
)

// Recover turns a handler panic into a 500 "server error" verdict.
// http.ErrAbortHandler is re-raised so the server can drop the connection.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic in handler",
					logger.String("panic", fmt.Sprint(rec)),
					logger.String("path", r.URL.Path),
					logger.String("request_id", middleware.GetReqID(r.Context())),
					logger.String("stack", string(debug.Stack())))
				reject(w, http.StatusInternalServerError, "server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
