package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

func TestNew(t *testing.T) {
	s := New()
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.Len() != 0 {
		t.Errorf("New() should start empty, got %d keys", s.Len())
	}
}

func TestQueryOne(t *testing.T) {
	s := New("evil.com", "bad.org/path")
	ctx := context.Background()

	tests := []struct {
		key  string
		want reputation.Verdict
	}{
		{"evil.com", reputation.Unsafe("malware")},
		{"bad.org/path", reputation.Unsafe("malware")},
		{"bad.org", reputation.Safe()},
		{"good.com", reputation.Safe()},
	}
	for _, tt := range tests {
		if got := s.QueryOne(ctx, tt.key); got != tt.want {
			t.Errorf("QueryOne(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestQueryAny(t *testing.T) {
	s := New("bad.org/path")
	ctx := context.Background()

	if got := s.QueryAny(ctx, []string{"bad.org", "bad.org/path"}); !got.IsUnsafe() {
		t.Errorf("QueryAny() = %v, want unsafe", got)
	}
	if got := s.QueryAny(ctx, []string{"bad.org", "bad.org/other"}); got != reputation.Safe() {
		t.Errorf("QueryAny() = %v, want safe", got)
	}
	if got := s.QueryAny(ctx, nil); got != reputation.Safe() {
		t.Errorf("QueryAny(nil) = %v, want safe", got)
	}
}

func TestAddIsIdempotent(t *testing.T) {
	s := New()
	s.Add("evil.com", "evil.com")
	s.Add("evil.com")
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	st, err := FromConfig(ctx, reputation.Options{"urls": []any{"evil.com"}}, logger.NewNop())
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if got := st.QueryOne(ctx, "evil.com"); !got.IsUnsafe() {
		t.Errorf("QueryOne() = %v, want unsafe", got)
	}

	_, err = FromConfig(ctx, reputation.Options{}, logger.NewNop())
	var cfgErr *reputation.ConfigError
	if !errors.As(err, &cfgErr) || len(cfgErr.Missing) != 1 || cfgErr.Missing[0] != "urls" {
		t.Errorf("FromConfig({}) error = %v, want missing urls", err)
	}

	_, err = FromConfig(ctx, reputation.Options{"urls": "evil.com"}, logger.NewNop())
	if !errors.Is(err, reputation.ErrConfig) {
		t.Errorf("FromConfig(urls=string) error = %v, want config error", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Add("evil.com")
		}()
		go func() {
			defer wg.Done()
			_ = s.QueryOne(ctx, "evil.com")
		}()
	}
	wg.Wait()

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
