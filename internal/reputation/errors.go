package reputation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig marks a missing or invalid configuration value. Fatal at startup.
	ErrConfig = errors.New("configuration error")
	// ErrContractViolation marks an object that cannot act as a Store.
	ErrContractViolation = errors.New("store contract violation")
	// ErrIO marks a backing file that cannot be opened or read.
	ErrIO = errors.New("store i/o error")
	// ErrRemote marks a connection or authentication failure of a networked store.
	ErrRemote = errors.New("remote store error")
	// ErrInvalidLookup marks input that cannot be turned into lookup keys.
	ErrInvalidLookup = errors.New("invalid lookup input")
	// ErrPinned is returned by Reload on a store pinned to its load-time data.
	ErrPinned = errors.New("store is pinned")
	// ErrSchemeInLookup marks input carrying a URL scheme. Lookup keys never have one.
	ErrSchemeInLookup = fmt.Errorf("%w: url scheme must be stripped", ErrInvalidLookup)
)

// ConfigError describes why a store or databases file could not be configured.
type ConfigError struct {
	Store   string   // store type, e.g. "mongo"
	Missing []string // required option keys that were absent
	Key     string   // offending key when a value is invalid
	Reason  string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(ErrConfig.Error())
	if e.Store != "" {
		b.WriteString(" [")
		b.WriteString(e.Store)
		b.WriteString("]")
	}
	if len(e.Missing) > 0 {
		b.WriteString(": missing required option(s): ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	if e.Key != "" {
		b.WriteString(": ")
		b.WriteString(e.Key)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Is lets errors.Is(err, ErrConfig) match any *ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// MissingOptions builds the error returned when required keys are absent.
func MissingOptions(store string, keys ...string) error {
	return &ConfigError{Store: store, Missing: keys}
}

// InvalidOption builds the error returned when a key holds an unusable value.
func InvalidOption(store, key, reason string) error {
	return &ConfigError{Store: store, Key: key, Reason: reason}
}
