package mongo

import (
	"context"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

const storeType = "mongo"

// RequiredOptions are the keys FromConfig refuses to default.
var RequiredOptions = []string{"connection_string", "username", "password", "database", "collection"}

// FromConfig builds a store from literal options:
//
//	connection_string, username, password, database, collection  required
//	auth_source (admin), auth_mechanism (SCRAM-SHA-256), timeout (5s), name
func FromConfig(ctx context.Context, opts reputation.Options, log logger.Logger) (reputation.Store, error) {
	cfg, err := parseOptions(opts)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, log)
}

func parseOptions(opts reputation.Options) (Config, error) {
	if missing := opts.Missing(RequiredOptions...); len(missing) > 0 {
		return Config{}, reputation.MissingOptions(storeType, missing...)
	}

	var cfg Config
	required := []struct {
		key string
		dst *string
	}{
		{"connection_string", &cfg.URI},
		{"username", &cfg.Username},
		{"password", &cfg.Password},
		{"database", &cfg.Database},
		{"collection", &cfg.Collection},
	}
	for _, r := range required {
		v, err := opts.String(r.key)
		if err != nil {
			return Config{}, reputation.InvalidOption(storeType, r.key, err.Error())
		}
		*r.dst = v
	}

	optional := []struct {
		key string
		dst *string
		def string
	}{
		{"auth_source", &cfg.AuthSource, DefaultAuthSource},
		{"auth_mechanism", &cfg.AuthMechanism, DefaultAuthMechanism},
		{"name", &cfg.Name, ""},
	}
	for _, o := range optional {
		v, err := opts.OptionalString(o.key, o.def)
		if err != nil {
			return Config{}, reputation.InvalidOption(storeType, o.key, err.Error())
		}
		*o.dst = v
	}

	timeout, err := opts.Duration("timeout", DefaultTimeout)
	if err != nil {
		return Config{}, reputation.InvalidOption(storeType, "timeout", err.Error())
	}
	cfg.Timeout = timeout
	return cfg, nil
}
