package utils

import (
	"net/http/httptest"
	"testing"
)

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{" 10.0.0.0/8 ", "127.0.0.1", "", "not-an-ip", "2001:db8::/32"})
	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.20.30.40", true},
		{"127.0.0.1", true},
		{"127.0.0.2", false},
		{"::ffff:10.1.1.1", true},
		{"2001:db8::1", true},
		{"2001:db9::1", false},
		{"garbage", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("nil list should give an empty matcher")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:4321"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")

	if got := ClientIP(r, false); got != "192.0.2.10" {
		t.Errorf("untrusted ClientIP = %q", got)
	}
	if got := ClientIP(r, true); got != "203.0.113.7" {
		t.Errorf("trusted ClientIP = %q", got)
	}

	r.Header.Set("CF-Connecting-IP", "198.51.100.99")
	if got := ClientIP(r, true); got != "198.51.100.99" {
		t.Errorf("cloudflare ClientIP = %q", got)
	}

	r.Header.Del("CF-Connecting-IP")
	r.Header.Del("X-Forwarded-For")
	if got := ClientIP(r, true); got != "198.51.100.2" {
		t.Errorf("real-ip ClientIP = %q", got)
	}
}

func TestParseHostNoPort(t *testing.T) {
	for in, want := range map[string]string{
		"":               "",
		"1.2.3.4":        "1.2.3.4",
		"1.2.3.4:80":     "1.2.3.4",
		"[::1]:8080":     "::1",
		"example.com:80": "example.com",
	} {
		if got := ParseHostNoPort(in); got != want {
			t.Errorf("ParseHostNoPort(%q) = %q, want %q", in, got, want)
		}
	}
}
