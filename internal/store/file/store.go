// Package file implements the file-backed reputation store: a read-only
// on-disk key/value database loaded into a snapshot and reloaded on demand,
// at most once per cooldown window.
package file

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/metrics"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
	"github.com/MrSnakeDoc/urlinfo/internal/utils"
)

// Options configures a file store.
type Options struct {
	// Name labels logs and metrics. Defaults to Path.
	Name string
	Path string
	// Cooldown is the minimum time between reloads. Nil pins the store to
	// the snapshot loaded by New.
	Cooldown *time.Duration
	// Format defaults to Bolt().
	Format  Format
	OnFault reputation.FaultPolicy
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger logger.Logger
}

// Store answers lookups from an in-memory copy of one database file.
//
// A reload reads the whole file into a new map and closes it, then swaps the
// map in under mu. Installed maps are never written to, so edits made to the
// file inside a cooldown window stay invisible until the next reload.
type Store struct {
	name     string
	path     string
	format   Format
	cooldown *time.Duration
	onFault  reputation.FaultPolicy
	now      func() time.Time
	log      logger.Logger

	reloadMu sync.Mutex // serialises reloads

	mu         sync.RWMutex
	records    map[string]string
	lastReload time.Time
	deadline   time.Time
	closed     bool
}

// New loads the database synchronously. It fails with reputation.ErrIO when
// the file cannot be opened as a database of the configured format.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, reputation.MissingOptions("file", "filename")
	}
	if opts.Format == nil {
		opts.Format = Bolt()
	}
	if opts.OnFault == "" {
		opts.OnFault = reputation.DefaultFaultPolicy
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Name == "" {
		opts.Name = opts.Path
	}

	s := &Store{
		name:     opts.Name,
		path:     opts.Path,
		format:   opts.Format,
		cooldown: opts.Cooldown,
		onFault:  opts.OnFault,
		now:      opts.Clock,
		log:      opts.Logger,
	}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Name() string { return s.name }

// QueryOne reloads first when the cooldown has elapsed, then looks key up in
// the active snapshot. Keys that are not valid UTF-8 and lookups on a closed
// store are answered by the store's fault policy.
func (s *Store) QueryOne(ctx context.Context, key string) reputation.Verdict {
	s.reloadIfDue(ctx)

	if !utf8.ValidString(key) {
		metrics.RecordFault(s.name, "encoding")
		s.log.Warn("lookup key is not valid UTF-8, applying fault policy",
			logger.String("store", s.name),
			logger.String("policy", string(s.onFault)))
		return s.onFault.Verdict("lookup key is not valid UTF-8")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		metrics.RecordFault(s.name, "closed")
		return s.onFault.Verdict("store closed")
	}
	reason, ok := s.records[key]
	if !ok {
		return reputation.Safe()
	}
	return reputation.Unsafe(reason)
}

func (s *Store) QueryAny(ctx context.Context, keys []string) reputation.Verdict {
	return reputation.QueryEach(ctx, s, keys)
}

// Reload reads the file again and restarts the cooldown window. On failure
// the previous snapshot and deadline are kept and the error is returned.
// A pinned store (nil cooldown) never reloads and returns reputation.ErrPinned.
func (s *Store) Reload(ctx context.Context) error {
	if s.cooldown == nil {
		s.log.Debug("reload skipped, store is pinned", logger.String("store", s.name))
		return reputation.ErrPinned
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	return s.reload(ctx)
}

// StoreStatus describes the active snapshot.
func (s *Store) StoreStatus(context.Context) reputation.StoreStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return reputation.StoreStatus{Error: "closed"}
	}

	entries := len(s.records)
	st := reputation.StoreStatus{
		OK:         true,
		Entries:    &entries,
		LastReload: s.lastReload,
		Pinned:     s.cooldown == nil,
	}
	if s.cooldown != nil {
		st.NextReload = s.deadline
	}
	return st
}

// Close drops the snapshot. Later queries get the fault policy verdict.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.records = nil
	return nil
}

func (s *Store) due() bool {
	if s.cooldown == nil {
		return false
	}
	s.mu.RLock()
	deadline := s.deadline
	s.mu.RUnlock()
	return !s.now().Before(deadline)
}

// reloadIfDue runs a query-triggered reload. Its failure is not the query's
// failure: it is logged and counted, and the query is answered from the
// previous snapshot.
func (s *Store) reloadIfDue(ctx context.Context) {
	if !s.due() {
		return
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	// Another query may have reloaded while we waited.
	if !s.due() {
		return
	}
	if err := s.reload(ctx); err != nil {
		s.log.Warn("reload failed, serving previous snapshot",
			logger.String("store", s.name),
			logger.Error(err))
	}
}

// reload must be called with reloadMu held, or before the store is shared.
func (s *Store) reload(ctx context.Context) error {
	records, err := s.load(ctx)
	if err != nil {
		metrics.RecordReload(s.name, metrics.ReloadFailure, 0)
		return err
	}

	now := s.now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.records = records
	s.lastReload = now
	if s.cooldown != nil {
		s.deadline = now.Add(*s.cooldown)
	}
	s.mu.Unlock()

	metrics.RecordReload(s.name, metrics.ReloadSuccess, len(records))
	s.log.Info("snapshot loaded",
		logger.String("store", s.name),
		logger.String("path", s.path),
		logger.String("format", s.format.Name()),
		logger.Int("entries", len(records)))
	return nil
}

// load copies every record of the file into a new map. The file is closed
// before load returns.
func (s *Store) load(ctx context.Context) (map[string]string, error) {
	db, err := s.format.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s %s: %w", reputation.ErrIO, s.format.Name(), s.path, err)
	}
	defer utils.CloseLogged(db, s.path, s.log)

	n, err := db.Len(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count %s: %w", reputation.ErrIO, s.path, err)
	}
	records := make(map[string]string, n)
	err = db.ForEach(ctx, func(key, reason []byte) error {
		records[string(key)] = string(reason)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", reputation.ErrIO, s.path, err)
	}
	return records, nil
}

// ErrClosed is returned by Reload once the store has been closed.
var ErrClosed = errors.New("file store closed")

var _ interface {
	reputation.Store
	reputation.Reloader
	reputation.StatusReporter
} = (*Store)(nil)
