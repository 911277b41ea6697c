package reputation

import (
	"fmt"
	"regexp"
	"strings"
)

// schemeRe matches "scheme://" as well as the single-slash form some proxies
// produce after merging slashes ("http:/host").
var schemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://|^(?i:https?):/`)

// HasScheme reports whether input starts with a URL scheme.
func HasScheme(input string) bool {
	return schemeRe.MatchString(input)
}

// LookupKeys derives the ordered lookup-key variants of a scheme-free
// "host[:port]/path?query" input, broadest first:
//
//	host[:port]
//	host[:port]/path
//	host[:port]/path?query
//
// Variants identical to the previous one are dropped.
func LookupKeys(input string) ([]string, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidLookup)
	}
	if HasScheme(input) {
		return nil, fmt.Errorf("%w: %q", ErrSchemeInLookup, input)
	}

	host, rest := input, ""
	if i := strings.IndexAny(input, "/?"); i >= 0 {
		host, rest = input[:i], input[i:]
	}
	if host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidLookup, input)
	}

	path, query, hasQuery := rest, "", false
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		path, query, hasQuery = rest[:i], rest[i+1:], true
	}

	keys := make([]string, 0, 3)
	keys = appendDistinct(keys, host)
	keys = appendDistinct(keys, host+path)
	if hasQuery && query != "" {
		keys = appendDistinct(keys, host+path+"?"+query)
	}
	return keys, nil
}

func appendDistinct(keys []string, k string) []string {
	if n := len(keys); n > 0 && keys[n-1] == k {
		return keys
	}
	return append(keys, k)
}
