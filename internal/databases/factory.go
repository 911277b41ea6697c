package databases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
	"github.com/MrSnakeDoc/urlinfo/internal/store/file"
	"github.com/MrSnakeDoc/urlinfo/internal/store/memory"
	"github.com/MrSnakeDoc/urlinfo/internal/store/mongo"
	"github.com/MrSnakeDoc/urlinfo/internal/store/redis"
)

// Store types understood by the default factory.
const (
	TypeDBM    = "dbm.dumb"
	TypeBolt   = "bolt"
	TypeSQLite = "sqlite"
	TypeMongo  = "mongo"
	TypeRedis  = "redis"
	TypeMemory = "memory"
)

// envOptions lists, per type, the options whose values name an environment
// variable holding the real value.
var envOptions = map[string][]string{
	TypeMongo: {"connection_string", "username", "password"},
	TypeRedis: {"password"},
}

// pathOptions lists, per type, the options holding a file path.
var pathOptions = map[string][]string{
	TypeDBM:    {"filename"},
	TypeBolt:   {"filename"},
	TypeSQLite: {"filename"},
}

// Built is a store created from one entry.
type Built struct {
	Name  string
	Type  string
	Store reputation.Store
}

// Factory maps entry types to store constructors.
type Factory struct {
	constructors map[string]reputation.Constructor
	lookupEnv    func(string) (string, bool)
	logger       logger.Logger
}

// NewFactory returns a factory that knows every built-in store type.
func NewFactory(log logger.Logger) *Factory {
	f := &Factory{
		constructors: make(map[string]reputation.Constructor),
		lookupEnv:    os.LookupEnv,
		logger:       log,
	}
	f.Register(TypeDBM, file.FromConfigFormat(file.FormatBolt))
	f.Register(TypeBolt, file.FromConfigFormat(file.FormatBolt))
	f.Register(TypeSQLite, file.FromConfigFormat(file.FormatSQLite))
	f.Register(TypeMongo, mongo.FromConfig)
	f.Register(TypeRedis, redis.FromConfig)
	f.Register(TypeMemory, memory.FromConfig)
	return f
}

// Register adds or replaces the constructor for typ.
func (f *Factory) Register(typ string, c reputation.Constructor) {
	f.constructors[strings.ToLower(typ)] = c
}

// Types returns the registered type names, sorted.
func (f *Factory) Types() []string {
	types := make([]string, 0, len(f.constructors))
	for t := range f.constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build creates the store described by e. Relative paths resolve against dir.
func (f *Factory) Build(ctx context.Context, e Entry, dir string) (Built, error) {
	typ := strings.ToLower(e.Type)
	construct, ok := f.constructors[typ]
	if !ok {
		return Built{}, &reputation.ConfigError{
			Key:    "type",
			Reason: fmt.Sprintf("%q is not a recognized database type (known: %s)", e.Type, strings.Join(f.Types(), ", ")),
		}
	}

	opts, err := f.resolveOptions(typ, e.Options, dir)
	if err != nil {
		return Built{}, err
	}
	name := e.Name
	if name == "" {
		name = typ
	}
	if !opts.Has("name") {
		opts["name"] = name
	}

	log := f.logger.Named(typ)
	s, err := construct(ctx, opts, log)
	if err != nil {
		return Built{}, fmt.Errorf("error loading database %q (%s): %w", name, typ, err)
	}

	f.logger.Info("store configured", logger.String("name", name), logger.String("type", typ))
	return Built{Name: name, Type: typ, Store: s}, nil
}

// BuildAll creates every store in order. On failure the stores already
// created are closed.
func (f *Factory) BuildAll(ctx context.Context, cfg *File) ([]Built, error) {
	built := make([]Built, 0, len(cfg.Databases))
	for i, e := range cfg.Databases {
		b, err := f.Build(ctx, e, cfg.Dir)
		if err != nil {
			if cerr := CloseAll(built); cerr != nil {
				f.logger.Warn("closing stores after failed startup", logger.Error(cerr))
			}
			return nil, fmt.Errorf("databases[%d]: %w", i, err)
		}
		built = append(built, b)
	}
	return built, nil
}

// CloseAll closes every store that holds resources.
func CloseAll(built []Built) error {
	var errs []error
	for _, b := range built {
		if c, ok := b.Store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", b.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (f *Factory) resolveOptions(typ string, in reputation.Options, dir string) (reputation.Options, error) {
	opts := in.Clone()

	for _, key := range envOptions[typ] {
		v, ok := opts[key]
		if !ok || v == nil {
			continue
		}
		envName, isString := v.(string)
		if !isString || envName == "" {
			return nil, reputation.InvalidOption(typ, key, "must name an environment variable")
		}
		val, set := f.lookupEnv(envName)
		if !set {
			return nil, reputation.InvalidOption(typ, key, fmt.Sprintf("environment variable %s is not set", envName))
		}
		opts[key] = val
	}

	if dir != "" {
		for _, key := range pathOptions[typ] {
			if p, ok := opts[key].(string); ok && p != "" && !filepath.IsAbs(p) {
				opts[key] = filepath.Join(dir, p)
			}
		}
	}
	return opts, nil
}
