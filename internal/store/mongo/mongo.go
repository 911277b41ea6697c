// Package mongo implements the remote document reputation store. Every
// lookup is a live round-trip; nothing is cached locally.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/metrics"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

const (
	DefaultAuthSource    = "admin"
	DefaultAuthMechanism = "SCRAM-SHA-256"
	DefaultTimeout       = 5 * time.Second
)

// Config holds literal connection settings. Credentials are expected to be
// resolved already.
type Config struct {
	Name          string
	URI           string
	Username      string
	Password      string
	Database      string
	Collection    string
	AuthSource    string
	AuthMechanism string
	// Timeout bounds connection setup and every operation.
	Timeout time.Duration
}

// Store queries a collection of {url, reason} documents.
type Store struct {
	name   string
	client *mongo.Client
	coll   *mongo.Collection
	log    logger.Logger
}

// New connects and pings eagerly, so bad addresses and credentials fail
// here with reputation.ErrRemote rather than on the first lookup.
func New(ctx context.Context, cfg Config, log logger.Logger) (*Store, error) {
	if cfg.AuthSource == "" {
		cfg.AuthSource = DefaultAuthSource
	}
	if cfg.AuthMechanism == "" {
		cfg.AuthMechanism = DefaultAuthMechanism
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Database + "." + cfg.Collection
	}
	if log == nil {
		log = logger.NewNop()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAuth(options.Credential{
			AuthMechanism: cfg.AuthMechanism,
			AuthSource:    cfg.AuthSource,
			Username:      cfg.Username,
			Password:      cfg.Password,
		}).
		SetTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect mongo: %w", reputation.ErrRemote, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping mongo: %w", reputation.ErrRemote, err)
	}

	log.Info("mongo store connected",
		logger.String("store", cfg.Name),
		logger.String("database", cfg.Database),
		logger.String("collection", cfg.Collection))

	return &Store{
		name:   cfg.Name,
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		log:    log,
	}, nil
}

func (s *Store) Name() string { return s.name }

// QueryOne delegates to QueryAny.
func (s *Store) QueryOne(ctx context.Context, key string) reputation.Verdict {
	return s.QueryAny(ctx, []string{key})
}

// QueryAny issues one {"url": {"$in": keys}} lookup and reports the first
// matching document. No match, and any lookup failure, answer safe.
func (s *Store) QueryAny(ctx context.Context, keys []string) reputation.Verdict {
	if len(keys) == 0 {
		return reputation.Safe()
	}

	var doc reputation.Record
	err := s.coll.FindOne(ctx, bson.M{"url": bson.M{"$in": keys}}).Decode(&doc)
	switch {
	case err == nil:
		return reputation.Unsafe(doc.Reason)
	case errors.Is(err, mongo.ErrNoDocuments):
		return reputation.Safe()
	default:
		metrics.RecordFault(s.name, "remote")
		s.log.Warn("mongo lookup failed, answering safe",
			logger.String("store", s.name),
			logger.Int("keys", len(keys)),
			logger.Error(err))
		return reputation.Safe()
	}
}

// UpsertMany writes records keyed by url, replacing the reason of existing
// documents. It returns the number of inserted or modified documents.
func (s *Store) UpsertMany(ctx context.Context, records []reputation.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"url": r.Key}).
			SetUpdate(bson.M{"$set": bson.M{"reason": r.Reason}}).
			SetUpsert(true))
	}

	res, err := s.coll.BulkWrite(ctx, models)
	if err != nil {
		return 0, fmt.Errorf("%w: bulk upsert: %w", reputation.ErrRemote, err)
	}
	return int(res.UpsertedCount + res.ModifiedCount), nil
}

// EnsureIndex creates the unique index on url used by lookups.
func (s *Store) EnsureIndex(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("%w: create url index: %w", reputation.ErrRemote, err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// StoreStatus reports whether the server answers a ping.
func (s *Store) StoreStatus(ctx context.Context) reputation.StoreStatus {
	if err := s.Ping(ctx); err != nil {
		return reputation.StoreStatus{OK: false, Error: err.Error()}
	}
	return reputation.StoreStatus{OK: true}
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ interface {
	reputation.Store
	reputation.StatusReporter
} = (*Store)(nil)
