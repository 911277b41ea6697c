package config

import (
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline for lookups

	LogLevel  string // "debug" | "info" | "warn" | "error" | "critical"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DatabasesFile string // YAML or JSON file listing the reputation stores

	AllowedHosts []string // optional, restrict the lookup route to specific Host headers
	AllowedCIDRS []string // optional, restrict admin routes to specific IPs/CIDRs (e.g. "10.0.0.0/8, 127.0.0.1")
	TrustProxy   bool     // true => trust X-Forwarded-For / X-Real-IP

	RateLimitBurst        int // per-IP bucket size on the lookup route, 0 disables
	RateLimitRefillPerMin int // tokens added per minute
}

func Load() *Config {
	return &Config{
		// Server settings
		ListenPort:      getenv("URLINFO_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("URLINFO_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("URLINFO_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("URLINFO_LOG_LEVEL", "warn"),
		PrettyLog: mustBool("URLINFO_PRETTY_LOG", false),

		// Stores
		DatabasesFile: getenv("URLINFO_CONFIG", "config.yaml"),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("URLINFO_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("URLINFO_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("URLINFO_TRUST_PROXY", false),

		RateLimitBurst:        getenvInt("URLINFO_RATE_LIMIT_BURST", 0),
		RateLimitRefillPerMin: getenvInt("URLINFO_RATE_LIMIT_REFILL_PER_MIN", 600),
	}
}

// helpers
func getenv(key, def string) string {
	if v := lookupEnv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := lookupEnv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := lookupEnv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := lookupEnv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
