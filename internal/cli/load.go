package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	connector "github.com/MrSnakeDoc/urlinfo/internal/redis"
	"github.com/MrSnakeDoc/urlinfo/internal/seed"
	"github.com/MrSnakeDoc/urlinfo/internal/store/file"
	mongostore "github.com/MrSnakeDoc/urlinfo/internal/store/mongo"
	redisstore "github.com/MrSnakeDoc/urlinfo/internal/store/redis"
	"github.com/MrSnakeDoc/urlinfo/internal/utils"
)

// Credential variables read by `load`, matching the mongo container image.
const (
	envMongoUser     = "MONGO_INITDB_ROOT_USERNAME"
	envMongoPassword = "MONGO_INITDB_ROOT_PASSWORD"
	envRedisPassword = "REDIS_PASSWORD"
)

type loadOptions struct {
	source     string
	reason     string
	typ        string
	dest       string
	addr       string
	keyPrefix  string
	redisDB    int
	uri        string
	database   string
	collection string
	timeout    time.Duration
}

func newLoadCmd() *cobra.Command {
	o := &loadOptions{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a plaintext url list into a store",
		Long: "Load one url per line from --source into a store, tagging each with --reason.\n" +
			"Fragments and schemes are stripped. Existing entries are overwritten.\n\n" +
			"File stores (bolt, dbm.dumb, sqlite) write to --dest.\n" +
			"redis reads its password from " + envRedisPassword + ".\n" +
			"mongo reads its credentials from " + envMongoUser + " and " + envMongoPassword + ".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			log := newLogger(cfg)
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()

			w, closer, err := o.writer(ctx, log)
			if err != nil {
				return err
			}
			if closer != nil {
				defer utils.CloseLogged(closer, o.typ, log)
			}

			n, err := seed.LoadFile(ctx, w, o.source, o.reason)
			if err != nil {
				return fmt.Errorf("load %s: %w", o.source, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d urls into %s\n", n, o.target())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.source, "source", "", "plaintext url list, one url per line (required)")
	f.StringVar(&o.reason, "reason", "", "reason recorded for every url (required)")
	f.StringVar(&o.typ, "type", file.FormatBolt, "destination: bolt|dbm.dumb|sqlite|redis|mongo")
	f.StringVar(&o.dest, "dest", "", "database file for bolt, dbm.dumb and sqlite")
	f.StringVar(&o.addr, "addr", "localhost:6379", "redis address")
	f.StringVar(&o.keyPrefix, "key-prefix", redisstore.DefaultKeyPrefix, "redis key prefix")
	f.IntVar(&o.redisDB, "db", 0, "redis database number")
	f.StringVar(&o.uri, "uri", "mongodb://localhost:27017/", "mongo connection string")
	f.StringVar(&o.database, "database", "", "mongo database")
	f.StringVar(&o.collection, "collection", "", "mongo collection (defaults to --database)")
	f.DurationVar(&o.timeout, "timeout", 2*time.Minute, "overall deadline")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

// writer opens the destination. The returned closer is nil for file stores.
func (o *loadOptions) writer(ctx context.Context, log logger.Logger) (seed.Writer, io.Closer, error) {
	switch strings.ToLower(o.typ) {
	case file.FormatBolt, "dbm.dumb", file.FormatSQLite:
		if o.dest == "" {
			return nil, nil, fmt.Errorf("--dest is required for type %s", o.typ)
		}
		format, err := file.FormatByName(o.typ)
		if err != nil {
			return nil, nil, err
		}
		return seed.FileWriter(format, o.dest), nil, nil

	case "redis":
		opts := connector.DefaultConnectOptions(o.addr)
		opts.Password = os.Getenv(envRedisPassword)
		opts.RedisDB = o.redisDB
		client, err := connector.New(ctx, opts, log)
		if err != nil {
			return nil, nil, err
		}
		s := redisstore.NewStore(client, o.addr, o.keyPrefix, log)
		return seed.WriterFunc(s.SaveMany), s, nil

	case "mongo":
		if o.database == "" {
			return nil, nil, fmt.Errorf("--database is required for type mongo")
		}
		user, password := os.Getenv(envMongoUser), os.Getenv(envMongoPassword)
		if user == "" || password == "" {
			return nil, nil, fmt.Errorf("%s and %s must be set for type mongo", envMongoUser, envMongoPassword)
		}
		coll := o.collection
		if coll == "" {
			coll = o.database
		}
		s, err := mongostore.New(ctx, mongostore.Config{
			Name:       o.database,
			URI:        o.uri,
			Username:   user,
			Password:   password,
			Database:   o.database,
			Collection: coll,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureIndex(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return seed.WriterFunc(s.UpsertMany), s, nil

	default:
		return nil, nil, fmt.Errorf("unknown store type %q", o.typ)
	}
}

func (o *loadOptions) target() string {
	switch strings.ToLower(o.typ) {
	case "redis":
		return "redis " + o.addr
	case "mongo":
		return "mongo " + o.database
	default:
		return o.dest
	}
}
