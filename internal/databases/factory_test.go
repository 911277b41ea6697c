package databases

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
	"github.com/MrSnakeDoc/urlinfo/internal/store/file"
)

func newTestFactory(env map[string]string) *Factory {
	f := NewFactory(logger.NewNop())
	f.lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	return f
}

func TestBuild_UnknownType(t *testing.T) {
	f := newTestFactory(nil)
	_, err := f.Build(context.Background(), Entry{Type: "gdbm", Options: reputation.Options{}}, "")
	require.ErrorIs(t, err, reputation.ErrConfig)
	assert.Contains(t, err.Error(), `"gdbm"`)
}

func TestBuild_FileStoreResolvesRelativePath(t *testing.T) {
	dir := t.TempDir()
	_, err := file.Write(context.Background(), file.Bolt(), filepath.Join(dir, "data", "unsafe.db"),
		[]reputation.Record{{Key: "evil.com", Reason: "malware"}})
	require.NoError(t, err)

	f := newTestFactory(nil)
	for _, typ := range []string{TypeDBM, TypeBolt} {
		b, err := f.Build(context.Background(), Entry{
			Type:    typ,
			Name:    "local",
			Options: reputation.Options{"filename": "data/unsafe.db", "reload_time": nil},
		}, dir)
		require.NoError(t, err, typ)
		assert.Equal(t, "local", b.Name)
		assert.Equal(t, reputation.Unsafe("malware"), b.Store.QueryOne(context.Background(), "evil.com"))
		require.NoError(t, CloseAll([]Built{b}))
	}
}

func TestBuild_SQLite(t *testing.T) {
	dir := t.TempDir()
	_, err := file.Write(context.Background(), file.SQLite(), filepath.Join(dir, "unsafe.sqlite"),
		[]reputation.Record{{Key: "evil.com", Reason: "malware"}})
	require.NoError(t, err)

	b, err := newTestFactory(nil).Build(context.Background(), Entry{
		Type:    TypeSQLite,
		Options: reputation.Options{"filename": "unsafe.sqlite", "reload_time": 5},
	}, dir)
	require.NoError(t, err)
	defer CloseAll([]Built{b})

	assert.Equal(t, TypeSQLite, b.Name)
	assert.True(t, b.Store.QueryOne(context.Background(), "evil.com").IsUnsafe())
}

func TestBuild_FileStoreMissingKeys(t *testing.T) {
	_, err := newTestFactory(nil).Build(context.Background(), Entry{Type: TypeDBM, Options: reputation.Options{}}, "")

	var cfgErr *reputation.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"filename", "reload_time"}, cfgErr.Missing)
}

func TestResolveOptions_Env(t *testing.T) {
	f := newTestFactory(map[string]string{
		"MONGO_URI":  "mongodb://db:27017",
		"MONGO_USER": "reader",
		"MONGO_PASS": "s3cret",
	})
	in := reputation.Options{
		"connection_string": "MONGO_URI",
		"username":          "MONGO_USER",
		"password":          "MONGO_PASS",
		"database":          "urlinfo",
	}

	opts, err := f.resolveOptions(TypeMongo, in, "")
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db:27017", opts["connection_string"])
	assert.Equal(t, "reader", opts["username"])
	assert.Equal(t, "s3cret", opts["password"])
	assert.Equal(t, "urlinfo", opts["database"])
	assert.Equal(t, "MONGO_URI", in["connection_string"], "input options are not modified")
}

func TestResolveOptions_EnvUnset(t *testing.T) {
	f := newTestFactory(map[string]string{"MONGO_URI": "mongodb://db"})
	_, err := f.resolveOptions(TypeMongo, reputation.Options{
		"connection_string": "MONGO_URI",
		"username":          "MONGO_USER",
	}, "")
	require.ErrorIs(t, err, reputation.ErrConfig)
	assert.Contains(t, err.Error(), "MONGO_USER")
}

func TestResolveOptions_RedisPasswordOptional(t *testing.T) {
	f := newTestFactory(nil)
	opts, err := f.resolveOptions(TypeRedis, reputation.Options{"addr": "localhost:6379"}, "")
	require.NoError(t, err)
	assert.False(t, opts.Has("password"))
}

func TestBuild_MongoMissingKeysNamedBeforeConnecting(t *testing.T) {
	f := newTestFactory(map[string]string{"MONGO_URI": "mongodb://127.0.0.1:1"})
	_, err := f.Build(context.Background(), Entry{
		Type:    TypeMongo,
		Options: reputation.Options{"connection_string": "MONGO_URI"},
	}, "")

	var cfgErr *reputation.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"username", "password", "database", "collection"}, cfgErr.Missing)
}

type closingStore struct {
	reputation.Store
	closed *int
}

func (c closingStore) Close() error {
	*c.closed++
	return nil
}

func TestBuildAll_ClosesOnFailure(t *testing.T) {
	closed := 0
	f := newTestFactory(nil)
	f.Register("closing", func(context.Context, reputation.Options, logger.Logger) (reputation.Store, error) {
		return closingStore{Store: nil, closed: &closed}, nil
	})

	_, err := f.BuildAll(context.Background(), &File{Databases: []Entry{
		{Type: "closing", Options: reputation.Options{}},
		{Type: "closing", Options: reputation.Options{}},
		{Type: "nope", Options: reputation.Options{}},
	}})
	require.ErrorIs(t, err, reputation.ErrConfig)
	assert.Contains(t, err.Error(), "databases[2]")
	assert.Equal(t, 2, closed)
}

func TestBuildAll_Order(t *testing.T) {
	f := newTestFactory(nil)
	built, err := f.BuildAll(context.Background(), &File{Databases: []Entry{
		{Type: TypeMemory, Name: "first", Options: reputation.Options{"urls": []any{"evil.com"}}},
		{Type: "MEMORY", Name: "second", Options: reputation.Options{"urls": []any{"lucifer.com"}}},
	}})
	require.NoError(t, err)
	require.Len(t, built, 2)
	assert.Equal(t, "first", built[0].Name)
	assert.Equal(t, "second", built[1].Name)
	assert.Equal(t, TypeMemory, built[1].Type)
}

func TestTypes(t *testing.T) {
	assert.Equal(t, []string{"bolt", "dbm.dumb", "memory", "mongo", "redis", "sqlite"}, newTestFactory(nil).Types())
}
