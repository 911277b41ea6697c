package file

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name        string
		opts        reputation.Options
		wantMissing []string
		wantErr     bool
	}{
		{"both missing", reputation.Options{}, []string{"filename", "reload_time"}, true},
		{"reload_time missing", reputation.Options{"filename": "x.db"}, []string{"reload_time"}, true},
		{"filename missing", reputation.Options{"reload_time": 5}, []string{"filename"}, true},
		{"null reload_time", reputation.Options{"filename": "x.db", "reload_time": nil}, nil, false},
		{"minutes", reputation.Options{"filename": "x.db", "reload_time": 5}, nil, false},
		{"bad format", reputation.Options{"filename": "x.db", "reload_time": 5, "format": "csv"}, nil, true},
		{"bad policy", reputation.Options{"filename": "x.db", "reload_time": 5, "on_fault": "ignore"}, nil, true},
		{"negative minutes", reputation.Options{"filename": "x.db", "reload_time": -5}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.opts, FormatBolt)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("parseOptions() error = %v", err)
				}
				return
			}
			if !errors.Is(err, reputation.ErrConfig) {
				t.Fatalf("parseOptions() error = %v, want config error", err)
			}
			if tt.wantMissing == nil {
				return
			}
			var cfgErr *reputation.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error %T is not a *ConfigError", err)
			}
			if len(cfgErr.Missing) != len(tt.wantMissing) {
				t.Fatalf("Missing = %v, want %v", cfgErr.Missing, tt.wantMissing)
			}
			for i := range tt.wantMissing {
				if cfgErr.Missing[i] != tt.wantMissing[i] {
					t.Errorf("Missing = %v, want %v", cfgErr.Missing, tt.wantMissing)
				}
			}
		})
	}
}

func TestParseOptions_Defaults(t *testing.T) {
	o, err := parseOptions(reputation.Options{"filename": "x.db", "reload_time": nil}, FormatSQLite)
	if err != nil {
		t.Fatalf("parseOptions() error = %v", err)
	}
	if o.Cooldown != nil {
		t.Errorf("Cooldown = %v, want nil", *o.Cooldown)
	}
	if o.Format.Name() != FormatSQLite {
		t.Errorf("Format = %s, want sqlite", o.Format.Name())
	}
	if o.OnFault != reputation.FailUnsafe {
		t.Errorf("OnFault = %s, want unsafe", o.OnFault)
	}
}

func TestFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unsafe.db")
	writeDB(t, Bolt(), path, reputation.Record{Key: "evil.com", Reason: "malware"})

	st, err := FromConfig(context.Background(), reputation.Options{
		"filename":    path,
		"reload_time": 10,
		"name":        "local",
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	defer st.(*Store).Close()

	if got := st.QueryOne(context.Background(), "evil.com"); got != reputation.Unsafe("malware") {
		t.Errorf("QueryOne() = %v, want unsafe malware", got)
	}
	if st.(*Store).Name() != "local" {
		t.Errorf("Name() = %q, want local", st.(*Store).Name())
	}

	_, err = FromConfig(context.Background(), reputation.Options{
		"filename":    filepath.Join(t.TempDir(), "missing.db"),
		"reload_time": nil,
	}, logger.NewNop())
	if !errors.Is(err, reputation.ErrIO) {
		t.Errorf("FromConfig(missing file) error = %v, want ErrIO", err)
	}
}

func TestFormatByName(t *testing.T) {
	for _, name := range []string{"bolt", "dbm.dumb", "BOLT", ""} {
		f, err := FormatByName(name)
		if err != nil || f.Name() != FormatBolt {
			t.Errorf("FormatByName(%q) = %v, %v", name, f, err)
		}
	}
	if f, err := FormatByName("sqlite"); err != nil || f.Name() != FormatSQLite {
		t.Errorf("FormatByName(sqlite) = %v, %v", f, err)
	}
	if _, err := FormatByName("gdbm"); err == nil {
		t.Error("FormatByName(gdbm) should fail")
	}
}
