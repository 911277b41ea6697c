// Package seed loads plaintext url lists into reputation backends.
package seed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
	"github.com/MrSnakeDoc/urlinfo/internal/store/file"
	"github.com/MrSnakeDoc/urlinfo/internal/utils"
)

// Writer stores records in a backend and reports how many it wrote.
type Writer interface {
	WriteRecords(ctx context.Context, records []reputation.Record) (int, error)
}

// WriterFunc adapts a function such as (*redis.Store).SaveMany to Writer.
type WriterFunc func(ctx context.Context, records []reputation.Record) (int, error)

func (f WriterFunc) WriteRecords(ctx context.Context, records []reputation.Record) (int, error) {
	return f(ctx, records)
}

// FileWriter merges records into a database file of the given format.
func FileWriter(format file.Format, path string) Writer {
	return WriterFunc(func(ctx context.Context, records []reputation.Record) (int, error) {
		return file.Write(ctx, format, path, records)
	})
}

// ErrEmptyList is returned when a source holds no usable url.
var ErrEmptyList = errors.New("no urls in source")

// ParseURLList reads one url per line. Fragments ("#...") and URL schemes are
// stripped, lines are trimmed, and blank lines and duplicates are dropped.
func ParseURLList(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	var urls []string

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = stripScheme(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}

func stripScheme(s string) string {
	if !reputation.HasScheme(s) {
		return s
	}
	i := strings.Index(s, ":/")
	return strings.TrimLeft(s[i+1:], "/")
}

// Records pairs every url with reason.
func Records(urls []string, reason string) []reputation.Record {
	out := make([]reputation.Record, len(urls))
	for i, u := range urls {
		out[i] = reputation.Record{Key: u, Reason: reason}
	}
	return out
}

// Load parses src and writes its urls with reason through w.
func Load(ctx context.Context, w Writer, src io.Reader, reason string) (int, error) {
	if reason == "" {
		return 0, errors.New("reason must not be empty")
	}
	urls, err := ParseURLList(src)
	if err != nil {
		return 0, err
	}
	if len(urls) == 0 {
		return 0, ErrEmptyList
	}
	return w.WriteRecords(ctx, Records(urls, reason))
}

// LoadFile is Load reading from the file at path.
func LoadFile(ctx context.Context, w Writer, path, reason string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer utils.Close(f)
	return Load(ctx, w, f, reason)
}
