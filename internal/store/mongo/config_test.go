package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

func fullOptions() reputation.Options {
	return reputation.Options{
		"connection_string": "mongodb://localhost:27017",
		"username":          "urlinfo",
		"password":          "secret",
		"database":          "urlinfo",
		"collection":        "urls",
	}
}

func TestParseOptions_MissingNamesEveryKey(t *testing.T) {
	_, err := parseOptions(reputation.Options{"database": "urlinfo"})
	require.Error(t, err)

	var cfgErr *reputation.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"connection_string", "username", "password", "collection"}, cfgErr.Missing)
	assert.Equal(t, "mongo", cfgErr.Store)
}

func TestParseOptions_Defaults(t *testing.T) {
	cfg, err := parseOptions(fullOptions())
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.URI)
	assert.Equal(t, DefaultAuthSource, cfg.AuthSource)
	assert.Equal(t, DefaultAuthMechanism, cfg.AuthMechanism)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestParseOptions_Overrides(t *testing.T) {
	opts := fullOptions()
	opts["auth_source"] = "urlinfo"
	opts["auth_mechanism"] = "SCRAM-SHA-1"
	opts["timeout"] = "2s"

	cfg, err := parseOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, "urlinfo", cfg.AuthSource)
	assert.Equal(t, "SCRAM-SHA-1", cfg.AuthMechanism)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestParseOptions_Invalid(t *testing.T) {
	opts := fullOptions()
	opts["password"] = ""
	_, err := parseOptions(opts)
	assert.ErrorIs(t, err, reputation.ErrConfig)

	opts = fullOptions()
	opts["timeout"] = "later"
	_, err = parseOptions(opts)
	assert.ErrorIs(t, err, reputation.ErrConfig)
}

func TestFromConfig_UnreachableFailsFast(t *testing.T) {
	opts := fullOptions()
	opts["connection_string"] = "mongodb://127.0.0.1:1"
	opts["timeout"] = "300ms"

	_, err := FromConfig(context.Background(), opts, logger.NewNop())
	assert.ErrorIs(t, err, reputation.ErrRemote)
}
