package deps

import (
	"time"

	"github.com/MrSnakeDoc/urlinfo/internal/databases"
	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts   []string      // Host headers allowed on the lookup route
	AllowedCIDRS   []string      // IPs allowed on admin routes (readyz, infra, reload, metrics)
	TrustProxy     bool          // true if running behind a trusted reverse proxy
	RequestTimeout time.Duration // per-lookup deadline

	RateLimitBurst  int // per-IP burst on the lookup route, 0 disables
	RateLimitRefill int // tokens per IP per minute

	Checker *reputation.Checker // aggregates every configured store
	Stores  []databases.Built   // configured stores, in polling order
}
