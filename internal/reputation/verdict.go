// Package reputation defines the contract shared by every URL reputation
// backend and the Checker that aggregates them.
package reputation

// Status is the outcome class of a lookup.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusUnsafe  Status = "unsafe"
	StatusUnknown Status = "unknown"
)

func (s Status) String() string { return string(s) }

// Verdict is the answer to "is this URL known to be malicious?".
// Reason is always empty for a safe verdict.
type Verdict struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// Safe returns the verdict for a key no store knows about.
func Safe() Verdict {
	return Verdict{Status: StatusSafe}
}

// Unsafe returns a verdict flagging a known-bad key.
func Unsafe(reason string) Verdict {
	return Verdict{Status: StatusUnsafe, Reason: reason}
}

// Unknown returns a verdict for a lookup that could not be answered.
func Unknown(reason string) Verdict {
	return Verdict{Status: StatusUnknown, Reason: reason}
}

// IsUnsafe reports whether the verdict should short-circuit aggregation.
func (v Verdict) IsUnsafe() bool {
	return v.Status == StatusUnsafe
}
