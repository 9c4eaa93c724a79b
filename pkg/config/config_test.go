package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/layout"
	"github.com/matzehuels/flowbuilder/pkg/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.History.Limit != 50 || cfg.History.Debounce.Duration != time.Second {
		t.Errorf("history defaults = %+v", cfg.History)
	}
	if cfg.Handles.Outputs["telegram.webhook"] != "envelope" || cfg.Handles.Inputs["telegram.response"] != "payload" {
		t.Errorf("handle defaults = %+v", cfg.Handles)
	}
	if cfg.PasteOffset().X != 50 || cfg.PasteOffset().Y != 50 {
		t.Errorf("paste offset = %v", cfg.PasteOffset())
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
registry = "nodes.json"

[history]
limit = 20
debounce = "250ms"

[connections]
limit_per_handle = 3

[layout]
direction = "LR"
node_sep = 70

[handles.outputs]
"webhook.generic" = "body"

[store]
backend = "redis"
addr = "localhost:6379"

[log]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Registry != "nodes.json" {
		t.Errorf("registry = %q", cfg.Registry)
	}
	if cfg.History.Limit != 20 || cfg.History.Debounce.Duration != 250*time.Millisecond {
		t.Errorf("history = %+v", cfg.History)
	}
	if cfg.Connections.LimitPerHandle != 3 {
		t.Errorf("limit = %d", cfg.Connections.LimitPerHandle)
	}
	if cfg.Layout.Direction != layout.LeftRight || cfg.Layout.NodeSep != 70 || cfg.Layout.NodeWidth != 200 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Handles.Outputs["webhook.generic"] != "body" || cfg.Handles.Outputs["telegram.webhook"] != "envelope" {
		t.Errorf("handles = %+v", cfg.Handles)
	}
	if cfg.Store.Backend != store.BackendRedis || cfg.Store.Addr != "localhost:6379" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.LogLevel() != log.DebugLevel {
		t.Errorf("log level = %v", cfg.LogLevel())
	}
	if cfg.LogFormatter() != log.JSONFormatter {
		t.Errorf("log format = %v", cfg.LogFormatter())
	}
	if Default().LogFormatter() != log.TextFormatter {
		t.Error("default log format should be text")
	}
	if len(cfg.ValidatorOptions()) != 2 {
		t.Error("ValidatorOptions should set limit and handles")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", `[history`, ""},
		{"unknown key", "[history]\nlimt = 3\n", "history.limt"},
		{"bad duration", "[history]\ndebounce = \"soon\"\n", ""},
		{"limit too small", "[history]\nlimit = 1\n", "history.limit"},
		{"connection limit", "[connections]\nlimit_per_handle = 0\n", "limit_per_handle"},
		{"direction", "[layout]\ndirection = \"up\"\n", "layout"},
		{"cache backend", "[cache]\nbackend = \"memcached\"\n", "cache.backend"},
		{"redis cache addr", "[cache]\nbackend = \"redis\"\n", "cache.addr"},
		{"store backend", "[store]\nbackend = \"sqlite\"\n", "unknown backend"},
		{"log level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"log format", "[log]\nformat = \"xml\"\n", "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
				t.Errorf("code = %q, want INVALID_INPUT", ferrors.GetCode(err))
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadDefaultMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.History.Limit != Default().History.Limit {
		t.Errorf("expected defaults, got %+v", cfg.History)
	}
}

func TestLoadDefaultReadsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, appName), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "[clipboard]\npaste_offset = 20\n"
	if err := os.WriteFile(filepath.Join(dir, appName, "config.toml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.Clipboard.PasteOffset != 20 {
		t.Errorf("paste offset = %g", cfg.Clipboard.PasteOffset)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/tmp/cfg", appName, "config.toml") {
		t.Errorf("DefaultPath = %s", path)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	dir, err := Default().CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/custom-cache", appName) {
		t.Errorf("CacheDir = %s", dir)
	}

	cfg := Default()
	cfg.Cache.Dir = "/srv/cache"
	if dir, _ := cfg.CacheDir(); dir != "/srv/cache" {
		t.Errorf("configured CacheDir = %s", dir)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, _ := os.UserHomeDir()
	if dir, _ := Default().CacheDir(); dir != filepath.Join(home, ".cache", appName) {
		t.Errorf("home CacheDir = %s", dir)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("parsed = %v", d.Duration)
	}
	text, _ := d.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("marshalled = %s", text)
	}
}
