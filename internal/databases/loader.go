package databases

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

// Load reads and parses the databases file at path. YAML and JSON are both
// accepted. Relative paths inside the file resolve against its directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read databases file: %w", reputation.ErrConfig, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", reputation.ErrConfig, path, err)
	}
	f.Dir = filepath.Dir(abs)
	return f, nil
}

// Parse decodes a databases document. A missing "databases" key or an empty
// list is a configuration error, as is an entry without a type.
func Parse(data []byte) (*File, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &reputation.ConfigError{Reason: "failed to parse databases file: " + err.Error()}
	}
	if raw.Databases == nil {
		return nil, &reputation.ConfigError{Key: "databases", Reason: "no 'databases' in config"}
	}
	if len(*raw.Databases) == 0 {
		return nil, &reputation.ConfigError{Key: "databases", Reason: "no databases in configuration"}
	}

	entries := *raw.Databases
	for i := range entries {
		e := &entries[i]
		e.Type = strings.TrimSpace(e.Type)
		if e.Type == "" {
			return nil, &reputation.ConfigError{
				Key:    fmt.Sprintf("databases[%d].type", i),
				Reason: "type is required",
			}
		}
		if e.Options == nil {
			e.Options = reputation.Options{}
		}
	}
	return &File{Databases: entries}, nil
}
