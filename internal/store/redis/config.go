package redis

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	connector "github.com/MrSnakeDoc/urlinfo/internal/redis"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

const storeType = "redis"

// FromConfig connects and builds a store from its options block:
//
//	addr             required, host:port
//	username         optional
//	password         optional, literal value
//	db               optional, default 0
//	key_prefix       optional, default "urlinfo:url:"
//	connect_timeout  optional, total startup retry window (default 10s)
//	name             optional
func FromConfig(ctx context.Context, opts reputation.Options, log logger.Logger) (reputation.Store, error) {
	if missing := opts.Missing("addr"); len(missing) > 0 {
		return nil, reputation.MissingOptions(storeType, missing...)
	}
	addr, err := opts.String("addr")
	if err != nil {
		return nil, reputation.InvalidOption(storeType, "addr", err.Error())
	}

	conn := connector.DefaultConnectOptions(addr)
	if conn.User, err = opts.OptionalString("username", ""); err != nil {
		return nil, reputation.InvalidOption(storeType, "username", err.Error())
	}
	if conn.Password, err = opts.OptionalString("password", ""); err != nil {
		return nil, reputation.InvalidOption(storeType, "password", err.Error())
	}
	if conn.RedisDB, err = opts.Int("db", 0); err != nil {
		return nil, reputation.InvalidOption(storeType, "db", err.Error())
	}
	if conn.ConnectTimeout, err = opts.Duration("connect_timeout", conn.ConnectTimeout); err != nil {
		return nil, reputation.InvalidOption(storeType, "connect_timeout", err.Error())
	}
	if conn.ConnectTimeout <= 0 {
		return nil, reputation.InvalidOption(storeType, "connect_timeout", "must be positive")
	}

	prefix, err := opts.OptionalString("key_prefix", DefaultKeyPrefix)
	if err != nil {
		return nil, reputation.InvalidOption(storeType, "key_prefix", err.Error())
	}
	name, err := opts.OptionalString("name", addr)
	if err != nil {
		return nil, reputation.InvalidOption(storeType, "name", err.Error())
	}

	if log == nil {
		log = logger.NewNop()
	}
	client, err := connector.New(ctx, conn, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reputation.ErrRemote, err)
	}
	return NewStore(client, name, prefix, log), nil
}
