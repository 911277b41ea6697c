// Package memory provides a process-local reputation store used for fixtures
// and small static block lists.
package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

// Reason is the verdict reason reported for every key in the set.
const Reason = "malware"

// Store is a set of known-bad lookup keys. It has no external source of
// truth, so it never reloads.
type Store struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// New creates a store holding the given keys.
func New(keys ...string) *Store {
	s := &Store{keys: make(map[string]struct{}, len(keys))}
	s.Add(keys...)
	return s
}

// FromConfig builds a store from {"urls": [...]}.
func FromConfig(_ context.Context, opts reputation.Options, _ logger.Logger) (reputation.Store, error) {
	if missing := opts.Missing("urls"); len(missing) > 0 {
		return nil, reputation.MissingOptions("memory", missing...)
	}
	urls, err := opts.StringList("urls")
	if err != nil {
		return nil, reputation.InvalidOption("memory", "urls", err.Error())
	}
	return New(urls...), nil
}

// Add inserts keys into the set.
func (s *Store) Add(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
}

// Len returns the number of keys in the set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.keys)
}

func (s *Store) QueryOne(_ context.Context, key string) reputation.Verdict {
	s.mu.RLock()
	_, ok := s.keys[key]
	s.mu.RUnlock()

	if ok {
		return reputation.Unsafe(Reason)
	}
	return reputation.Safe()
}

func (s *Store) QueryAny(ctx context.Context, keys []string) reputation.Verdict {
	return reputation.QueryEach(ctx, s, keys)
}

// StoreStatus reports the set size.
func (s *Store) StoreStatus(context.Context) reputation.StoreStatus {
	n := s.Len()
	return reputation.StoreStatus{OK: true, Entries: &n}
}
