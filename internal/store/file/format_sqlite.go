package file

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS urls (
		url TEXT PRIMARY KEY,
		reason TEXT NOT NULL
	);`
	sqliteCount  = `SELECT COUNT(*) FROM urls`
	sqliteScan   = `SELECT url, reason FROM urls`
	sqliteUpsert = `INSERT INTO urls (url, reason) VALUES (?, ?)
		ON CONFLICT(url) DO UPDATE SET reason = excluded.reason`
)

type sqliteFormat struct{}

// SQLite stores records in the urls(url, reason) table of a SQLite file.
func SQLite() Format { return sqliteFormat{} }

func (sqliteFormat) Name() string { return FormatSQLite }

func (sqliteFormat) Open(path string) (Snapshot, error) {
	// The driver would create a missing file even in read-only mode.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	// Fails on files that are not SQLite databases or lack the table.
	scan, err := db.Prepare(sqliteScan)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare scan: %w", err)
	}
	return &sqliteSnapshot{db: db, scan: scan}, nil
}

func (sqliteFormat) Create(ctx context.Context, path string, records []reputation.Record) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Key, r.Reason); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %q: %w", r.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Opaque: path, RawQuery: "mode=ro"}
	return u.String()
}

type sqliteSnapshot struct {
	db   *sql.DB
	scan *sql.Stmt
}

func (s *sqliteSnapshot) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, sqliteCount).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *sqliteSnapshot) ForEach(ctx context.Context, fn func(key, reason []byte) error) error {
	rows, err := s.scan.QueryContext(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var k, r string
		if err := rows.Scan(&k, &r); err != nil {
			return err
		}
		if err := fn([]byte(k), []byte(r)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *sqliteSnapshot) Close() error {
	_ = s.scan.Close()
	return s.db.Close()
}
