package file

import (
	"context"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

var (
	urlsBucket = []byte("urls")

	errNoBucket = errors.New(`bucket "urls" not found`)
)

type boltFormat struct {
	lockTimeout time.Duration
}

// Bolt stores records in the "urls" bucket of a bbolt file, key = lookup key,
// value = reason.
func Bolt() Format {
	return boltFormat{lockTimeout: time.Second}
}

func (boltFormat) Name() string { return FormatBolt }

func (f boltFormat) Open(path string) (Snapshot, error) {
	db, err := bolt.Open(path, 0o444, &bolt.Options{ReadOnly: true, Timeout: f.lockTimeout})
	if err != nil {
		return nil, err
	}
	err = db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(urlsBucket) == nil {
			return errNoBucket
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltSnapshot{db: db}, nil
}

func (f boltFormat) Create(_ context.Context, path string, records []reputation.Record) error {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: f.lockTimeout})
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(urlsBucket)
		if err != nil {
			return err
		}
		for _, r := range records {
			if err := b.Put([]byte(r.Key), []byte(r.Reason)); err != nil {
				return err
			}
		}
		return nil
	})
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	return err
}

type boltSnapshot struct {
	db *bolt.DB
}

func (s *boltSnapshot) Len(context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(urlsBucket)
		if b == nil {
			return errNoBucket
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

func (s *boltSnapshot) ForEach(_ context.Context, fn func(key, reason []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(urlsBucket)
		if b == nil {
			return errNoBucket
		}
		return b.ForEach(fn)
	})
}

func (s *boltSnapshot) Close() error { return s.db.Close() }
