// Package redis implements a reputation store over plain Redis strings,
// answering a whole set of lookup keys with one MGET.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/metrics"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

// Store handles Redis lookups for known-bad urls.
type Store struct {
	name   string
	client *redis.Client
	keys   keyspace
	log    logger.Logger
}

// NewStore wraps a connected client. An empty prefix selects DefaultKeyPrefix.
func NewStore(client *redis.Client, name, prefix string, log logger.Logger) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		name:   name,
		client: client,
		keys:   keyspace{prefix: prefix},
		log:    log,
	}
}

func (s *Store) Name() string { return s.name }

// QueryOne delegates to QueryAny.
func (s *Store) QueryOne(ctx context.Context, key string) reputation.Verdict {
	return s.QueryAny(ctx, []string{key})
}

// QueryAny fetches every key in one round-trip; the first present key, in
// input order, decides the verdict. Lookup errors answer safe.
func (s *Store) QueryAny(ctx context.Context, keys []string) reputation.Verdict {
	if len(keys) == 0 {
		return reputation.Safe()
	}

	vals, err := s.client.MGet(ctx, s.keys.URLKeys(keys)...).Result()
	if err != nil {
		metrics.RecordFault(s.name, "remote")
		s.log.Warn("redis lookup failed, answering safe",
			logger.String("store", s.name),
			logger.Int("keys", len(keys)),
			logger.Error(err))
		return reputation.Safe()
	}

	for _, v := range vals {
		if reason, ok := v.(string); ok {
			return reputation.Unsafe(reason)
		}
	}
	return reputation.Safe()
}

// SaveMany stores records in one pipeline and returns how many were written.
func (s *Store) SaveMany(ctx context.Context, records []reputation.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range records {
			pipe.Set(ctx, s.keys.URLKey(r.Key), r.Reason, 0)
			pipe.SAdd(ctx, s.keys.AllKey(), r.Key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to save urls: %w", reputation.ErrRemote, err)
	}
	return len(records), nil
}

// Count returns the number of stored urls.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.keys.AllKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count urls: %w", err)
	}
	return int(n), nil
}

// StoreStatus pings Redis and reports the stored url count.
func (s *Store) StoreStatus(ctx context.Context) reputation.StoreStatus {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return reputation.StoreStatus{OK: false, Error: err.Error()}
	}
	n, err := s.Count(ctx)
	if err != nil {
		return reputation.StoreStatus{OK: true, Error: err.Error()}
	}
	return reputation.StoreStatus{OK: true, Entries: &n}
}

func (s *Store) Close() error { return s.client.Close() }

var _ interface {
	reputation.Store
	reputation.StatusReporter
} = (*Store)(nil)
