package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

// Snapshot is an open read-only handle on one on-disk database.
type Snapshot interface {
	// Len returns the number of keys.
	Len(ctx context.Context) (int, error)
	// ForEach visits every record. Slices are only valid during fn.
	ForEach(ctx context.Context, fn func(key, reason []byte) error) error
	Close() error
}

// Format is an on-disk key/value layout the file store can read and write.
type Format interface {
	Name() string
	// Open opens path read-only. It fails when the file is missing or is not
	// a database of this format.
	Open(path string) (Snapshot, error)
	// Create writes records into a new database at path.
	Create(ctx context.Context, path string, records []reputation.Record) error
}

// Format names accepted in configuration.
const (
	FormatBolt   = "bolt"
	FormatSQLite = "sqlite"
)

// FormatByName returns the format registered under name. "dbm.dumb" is
// accepted as an alias of bolt.
func FormatByName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case FormatBolt, "dbm.dumb", "":
		return Bolt(), nil
	case FormatSQLite:
		return SQLite(), nil
	default:
		return nil, fmt.Errorf("unknown file format %q", name)
	}
}

// Write merges records into the database at path, creating it when absent.
// Later records override the reason of an existing key. The file is replaced
// by rename, so stores holding the old file open keep reading it until their
// next reload.
func Write(ctx context.Context, f Format, path string, records []reputation.Record) (int, error) {
	merged, err := readExisting(ctx, f, path)
	if err != nil {
		return 0, err
	}

	order := make([]string, 0, len(merged)+len(records))
	for k := range merged {
		order = append(order, k)
	}
	for _, r := range records {
		if _, ok := merged[r.Key]; !ok {
			order = append(order, r.Key)
		}
		merged[r.Key] = r.Reason
	}

	out := make([]reputation.Record, 0, len(order))
	for _, k := range order {
		out = append(out, reputation.Record{Key: k, Reason: merged[k]})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir db dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if err := f.Create(ctx, tmpPath, out); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("write %s database: %w", f.Name(), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("replace %s: %w", path, err)
	}
	return len(out), nil
}

func readExisting(ctx context.Context, f Format, path string) (map[string]string, error) {
	records := make(map[string]string)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return records, nil
	}

	snap, err := f.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open existing %s: %w", reputation.ErrIO, path, err)
	}
	defer snap.Close()

	err = snap.ForEach(ctx, func(key, reason []byte) error {
		records[string(key)] = string(reason)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read existing %s: %w", reputation.ErrIO, path, err)
	}
	return records, nil
}
