package reputation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
)

// Store is the capability every reputation backend exposes.
//
// Neither method returns an error: a data-path fault is turned into a
// Verdict by the store's own policy.
type Store interface {
	// QueryOne looks up a single scheme-free key.
	QueryOne(ctx context.Context, key string) Verdict
	// QueryAny returns the first unsafe verdict among keys, in order,
	// or Safe() when none is unsafe.
	QueryAny(ctx context.Context, keys []string) Verdict
}

// Constructor builds a store from its options block. This is the from_config
// entry point each backend provides to the factory.
type Constructor func(ctx context.Context, opts Options, log logger.Logger) (Store, error)

// QueryEach is the default QueryAny: one QueryOne per key, stopping at the
// first unsafe verdict.
func QueryEach(ctx context.Context, s Store, keys []string) Verdict {
	for _, key := range keys {
		if v := s.QueryOne(ctx, key); v.IsUnsafe() {
			return v
		}
	}
	return Safe()
}

// Reloader is implemented by stores whose data can be refreshed on demand.
type Reloader interface {
	Reload(ctx context.Context) error
}

// StatusReporter is implemented by stores that can describe their own state.
type StatusReporter interface {
	StoreStatus(ctx context.Context) StoreStatus
}

// StoreStatus is a point-in-time health summary of one store.
type StoreStatus struct {
	OK         bool      `json:"ok"`
	Entries    *int      `json:"entries,omitempty"`
	LastReload time.Time `json:"last_reload,omitzero"`
	NextReload time.Time `json:"next_reload,omitzero"`
	Pinned     bool      `json:"pinned,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Record is one known-bad key and the reason it is flagged.
type Record struct {
	Key    string `json:"url" bson:"url"`
	Reason string `json:"reason" bson:"reason"`
}

// FaultPolicy decides the verdict for a lookup that could not be answered,
// such as a key that is not valid UTF-8 or a failed read of the backing data.
type FaultPolicy string

const (
	// FailUnsafe treats an unanswerable lookup as malicious.
	FailUnsafe FaultPolicy = "unsafe"
	// FailUnknown reports an unanswerable lookup as unknown.
	FailUnknown FaultPolicy = "unknown"
)

// DefaultFaultPolicy is used when a store does not configure one.
const DefaultFaultPolicy = FailUnsafe

// ParseFaultPolicy accepts "unsafe" or "unknown"; empty means DefaultFaultPolicy.
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch FaultPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultFaultPolicy, nil
	case FailUnsafe:
		return FailUnsafe, nil
	case FailUnknown:
		return FailUnknown, nil
	default:
		return "", fmt.Errorf("unknown fault policy %q (want %q or %q)", s, FailUnsafe, FailUnknown)
	}
}

// Verdict returns the verdict this policy assigns to a fault.
func (p FaultPolicy) Verdict(diagnostic string) Verdict {
	if p == FailUnknown {
		return Unknown(diagnostic)
	}
	return Unsafe(diagnostic)
}
