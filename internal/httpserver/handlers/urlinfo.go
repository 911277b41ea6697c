package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/urlinfo/internal/httpserver/deps"
	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

// URLInfoPrefix is the path prefix of the lookup route.
const URLInfoPrefix = "/urlinfo/1/"

// URLInfo answers GET /urlinfo/1/{host[:port]/path?query} with a verdict.
// The tail of the escaped path, plus the raw query when present, is checked
// verbatim.
func URLInfo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := LookupInput(r)

		ctx := r.Context()
		if d.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.RequestTimeout)
			defer cancel()
		}

		v, err := d.Checker.Check(ctx, input)
		if err != nil {
			if errors.Is(err, reputation.ErrInvalidLookup) {
				d.Logger.Debug("rejected lookup",
					logger.String("input", input),
					logger.Error(err))
				writeJSON(w, http.StatusBadRequest, InvalidRequest)
				return
			}
			d.Logger.Error("lookup failed", logger.String("input", input), logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, ServerError)
			return
		}

		writeJSON(w, http.StatusOK, v)
	}
}

// LookupInput extracts the checker input from a lookup request.
func LookupInput(r *http.Request) string {
	input := strings.TrimPrefix(r.URL.EscapedPath(), URLInfoPrefix)
	if r.URL.RawQuery != "" {
		input += "?" + r.URL.RawQuery
	}
	return input
}
