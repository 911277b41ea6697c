package reputation

import (
	"fmt"
	"math"
	"time"
)

// Options is the free-form options block of one store entry in the databases
// file. Values arrive as decoded YAML/JSON scalars, lists and maps.
type Options map[string]any

// Has reports whether key is present, even with a null value.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Missing returns the keys from the list that are absent, in the given order.
func (o Options) Missing(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if !o.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Clone returns a shallow copy, so callers can rewrite values safely.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// String returns a required, non-empty string value.
func (o Options) String(key string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	if s == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}
	return s, nil
}

// OptionalString returns the string value of key, or def when absent or null.
func (o Options) OptionalString(key, def string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return s, nil
}

// Int returns the integer value of key, or def when absent or null.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer, got %v", key, v)
	}
	return n, nil
}

// Bool returns the boolean value of key, or def when absent or null.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean, got %T", key, v)
	}
	return b, nil
}

// NullableMinutes reads a whole number of minutes. A null value yields nil,
// meaning "never". The key must be present; absence is reported by Missing.
func (o Options) NullableMinutes(key string) (*time.Duration, error) {
	v, ok := o[key]
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}
	if v == nil {
		return nil, nil
	}
	n, ok := toInt(v)
	if !ok {
		return nil, fmt.Errorf("%s must be an integer number of minutes or null, got %v", key, v)
	}
	if n < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", key, n)
	}
	d := time.Duration(n) * time.Minute
	return &d, nil
}

// Duration reads a Go duration string ("5s") or a number of seconds,
// returning def when absent or null.
func (o Options) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	}
	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%s must be a duration string or seconds, got %v", key, v)
	}
	return time.Duration(n) * time.Second, nil
}

// StringList returns a required list of strings.
func (o Options) StringList(key string) ([]string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%s is required", key)
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a list of strings, got %T", key, v)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
