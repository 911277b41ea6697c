package mw

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

// reject answers with an "unknown" verdict so lookup clients always get the
// same body shape.
func reject(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(reputation.Unknown(reason))
}
