package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/urlinfo/internal/databases"
	"github.com/MrSnakeDoc/urlinfo/internal/httpserver"
	"github.com/MrSnakeDoc/urlinfo/internal/httpserver/deps"
	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
	"github.com/MrSnakeDoc/urlinfo/internal/store/memory"
)

// reloadStore is a memory store whose Reload result is scripted.
type reloadStore struct {
	*memory.Store
	err     error
	reloads int
}

func (s *reloadStore) Reload(context.Context) error {
	s.reloads++
	return s.err
}

// panicStore blows up on every lookup.
type panicStore struct{}

func (panicStore) QueryOne(context.Context, string) reputation.Verdict { panic("boom") }
func (panicStore) QueryAny(context.Context, []string) reputation.Verdict {
	panic("boom")
}

func newDeps(t *testing.T, stores ...databases.Built) deps.Deps {
	t.Helper()
	log := logger.NewNop()

	raw := make([]reputation.Store, 0, len(stores))
	for _, b := range stores {
		raw = append(raw, b.Store)
	}
	checker, err := reputation.NewChecker(log, raw...)
	require.NoError(t, err)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return deps.Deps{
		Logger:         log,
		StartTime:      start,
		Version:        "test",
		TimeNow:        func() time.Time { return start.Add(90 * time.Second) },
		RequestTimeout: time.Second,
		Checker:        checker,
		Stores:         stores,
	}
}

func blocklist(name string, keys ...string) databases.Built {
	return databases.Built{Name: name, Type: "memory", Store: memory.New(keys...)}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeVerdict(t *testing.T, rec *httptest.ResponseRecorder) reputation.Verdict {
	t.Helper()
	var v reputation.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestURLInfo(t *testing.T) {
	d := newDeps(t,
		blocklist("hosts", "evil.com", "lucifer.com:8080"),
		blocklist("pages", "good.com/malware/page", "good.com/dl?file=x.exe"),
	)
	h := httpserver.NewRouter(d.Logger, d)

	tests := []struct {
		name       string
		target     string
		wantCode   int
		wantStatus reputation.Status
		wantReason string
	}{
		{"unsafe host", "/urlinfo/1/evil.com", http.StatusOK, reputation.StatusUnsafe, "malware"},
		{"unsafe host matches any path", "/urlinfo/1/evil.com/a/b?c=d", http.StatusOK, reputation.StatusUnsafe, "malware"},
		{"port is part of the host", "/urlinfo/1/lucifer.com:8080/x", http.StatusOK, reputation.StatusUnsafe, "malware"},
		{"other port is safe", "/urlinfo/1/lucifer.com/x", http.StatusOK, reputation.StatusSafe, ""},
		{"path match", "/urlinfo/1/good.com/malware/page", http.StatusOK, reputation.StatusUnsafe, "malware"},
		{"query match", "/urlinfo/1/good.com/dl?file=x.exe", http.StatusOK, reputation.StatusUnsafe, "malware"},
		{"other query is safe", "/urlinfo/1/good.com/dl?file=y.exe", http.StatusOK, reputation.StatusSafe, ""},
		{"safe", "/urlinfo/1/www.good.com:443/search/path?query=1&here=2", http.StatusOK, reputation.StatusSafe, ""},
		{"missing host", "/urlinfo/1//notvalid", http.StatusBadRequest, reputation.StatusUnknown, "invalid request"},
		{"empty", "/urlinfo/1/", http.StatusBadRequest, reputation.StatusUnknown, "invalid request"},
		{"scheme", "/urlinfo/1/http://evil.com", http.StatusBadRequest, reputation.StatusUnknown, "invalid request"},
		{"wrong version", "/urlinfo/2/evil.com", http.StatusNotFound, reputation.StatusUnknown, "invalid request"},
		{"unknown route", "/nope", http.StatusNotFound, reputation.StatusUnknown, "invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			v := decodeVerdict(t, rec)
			assert.Equal(t, tt.wantStatus, v.Status)
			assert.Equal(t, tt.wantReason, v.Reason)
		})
	}
}

func TestURLInfo_MethodNotAllowed(t *testing.T) {
	d := newDeps(t, blocklist("hosts", "evil.com"))
	h := httpserver.NewRouter(d.Logger, d)

	rec := do(t, h, http.MethodPost, "/urlinfo/1/evil.com")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, reputation.Unknown("invalid request"), decodeVerdict(t, rec))
}

func TestURLInfo_PanicIsServerError(t *testing.T) {
	d := newDeps(t, databases.Built{Name: "boom", Type: "test", Store: panicStore{}})
	h := httpserver.NewRouter(d.Logger, d)

	rec := do(t, h, http.MethodGet, "/urlinfo/1/evil.com")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, reputation.Unknown("server error"), decodeVerdict(t, rec))
}

func TestURLInfo_EnforceHost(t *testing.T) {
	d := newDeps(t, blocklist("hosts", "evil.com"))
	d.AllowedHosts = []string{"urlinfo.internal", "*.example.com"}
	h := httpserver.NewRouter(d.Logger, d)

	for host, want := range map[string]int{
		"urlinfo.internal":      http.StatusOK,
		"urlinfo.internal:8080": http.StatusOK,
		"api.example.com":       http.StatusOK,
		"attacker.test":         http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/urlinfo/1/evil.com", nil)
		req.Host = host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, host)
	}
}

func TestURLInfo_RateLimit(t *testing.T) {
	d := newDeps(t, blocklist("hosts", "evil.com"))
	d.RateLimitBurst = 2
	d.RateLimitRefill = 1
	h := httpserver.NewRouter(d.Logger, d)

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodGet, "/urlinfo/1/good.com")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := do(t, h, http.MethodGet, "/urlinfo/1/good.com")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, reputation.Unknown("rate limited"), decodeVerdict(t, rec))
}

func TestHealthz(t *testing.T) {
	d := newDeps(t)
	h := httpserver.NewRouter(d.Logger, d)

	rec := do(t, h, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status        string  `json:"status"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Version       string  `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 90.0, body.UptimeSeconds)
	assert.Equal(t, "test", body.Version)
}

func TestReadyz(t *testing.T) {
	d := newDeps(t)
	rec := do(t, httpserver.NewRouter(d.Logger, d), http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	d = newDeps(t, blocklist("hosts"))
	rec = do(t, httpserver.NewRouter(d.Logger, d), http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ready":true,"stores":1}`, rec.Body.String())
}

func TestAdminRoutes_CIDR(t *testing.T) {
	d := newDeps(t, blocklist("hosts"))
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	h := httpserver.NewRouter(d.Logger, d)

	for _, target := range []string{"/readyz", "/infra", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.RemoteAddr = "192.168.1.5:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, target)

		req = httptest.NewRequest(http.MethodGet, target, nil)
		req.RemoteAddr = "10.1.2.3:5555"
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}

	// The lookup route is public.
	req := httptest.NewRequest(http.MethodGet, "/urlinfo/1/good.com", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInfra(t *testing.T) {
	d := newDeps(t, blocklist("hosts", "a.com", "b.com"), blocklist("pages", "c.com/x"))
	rec := do(t, httpserver.NewRouter(d.Logger, d), http.MethodGet, "/infra")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Stores []struct {
			Position int    `json:"position"`
			Name     string `json:"name"`
			Type     string `json:"type"`
			OK       bool   `json:"ok"`
			Entries  *int   `json:"entries"`
		} `json:"stores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Stores, 2)
	assert.Equal(t, "hosts", body.Stores[0].Name)
	assert.Equal(t, 1, body.Stores[0].Position)
	assert.Equal(t, "memory", body.Stores[0].Type)
	require.NotNil(t, body.Stores[0].Entries)
	assert.Equal(t, 2, *body.Stores[0].Entries)
	assert.Equal(t, 2, body.Stores[1].Position)
}

func TestInfra_NoStores(t *testing.T) {
	d := newDeps(t)
	rec := do(t, httpserver.NewRouter(d.Logger, d), http.MethodGet, "/infra")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"critical"`)
}

func TestReload(t *testing.T) {
	ok := &reloadStore{Store: memory.New()}
	failing := &reloadStore{Store: memory.New(), err: errors.New("disk on fire")}
	d := newDeps(t,
		databases.Built{Name: "ok", Type: "test", Store: ok},
		blocklist("static"),
		databases.Built{Name: "failing", Type: "test", Store: failing},
		databases.Built{Name: "pinned", Type: "test", Store: &reloadStore{Store: memory.New(), err: reputation.ErrPinned}},
	)
	h := httpserver.NewRouter(d.Logger, d)

	rec := do(t, h, http.MethodPost, "/reload")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"reloaded":["ok"],"pinned":["pinned"],"errors":{"failing":"disk on fire"}}`, rec.Body.String())
	assert.Equal(t, 1, ok.reloads)
	assert.Equal(t, 1, failing.reloads)

	failing.err = nil
	rec = do(t, h, http.MethodPost, "/reload")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reloaded":["ok","failing"],"pinned":["pinned"]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/reload")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetrics(t *testing.T) {
	d := newDeps(t, blocklist("hosts", "evil.com"))
	h := httpserver.NewRouter(d.Logger, d)

	do(t, h, http.MethodGet, "/urlinfo/1/evil.com")
	rec := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "urlinfo_checks_total"))
}
