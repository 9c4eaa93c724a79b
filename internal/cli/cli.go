// Package cli implements the flowbuilder command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowbuilder/pkg/buildinfo"
	"github.com/matzehuels/flowbuilder/pkg/cache"
	"github.com/matzehuels/flowbuilder/pkg/config"
	"github.com/matzehuels/flowbuilder/pkg/editor"
	"github.com/matzehuels/flowbuilder/pkg/store"
)

const appName = "flowbuilder"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a CLI with the built-in configuration. The config file is
// read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Flowbuilder edits pipeline graphs",
		Long: `Flowbuilder is the editing core of a visual pipeline builder. It arranges,
checks and compares saved graph payloads and serves them over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/flowbuilder/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.draftsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	var (
		cfg config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.Load(c.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	c.Config = cfg
	setLogFormat(c.Logger, cfg.LogFormatter())
	c.Logger.Debug("config loaded", "path", c.configPath, "store", cfg.Store.String(), "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// editorOptions builds session options from the config. The caller closes
// the returned cache.
func (c *CLI) editorOptions(ctx context.Context, noCache bool) (editor.Options, cache.Cache, error) {
	reg, err := c.Config.LoadRegistry()
	if err != nil {
		return editor.Options{}, nil, fmt.Errorf("load registry: %w", err)
	}
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return editor.Options{}, nil, err
	}
	opts := editor.OptionsFromConfig(c.Config, reg)
	opts.Cache = cc
	if cfg := c.Config.Cache; cfg.Prefix != "" && cfg.Backend != config.CacheRedis {
		opts.Keyer = cache.NewScopedKeyer(nil, cfg.Prefix)
	}
	opts.Logger = c.Logger
	opts.Notifier = editor.NotifierFunc(printNotice)
	return opts, cc, nil
}

// newCache opens the configured cache backend. A Redis cache that cannot
// be reached degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.CacheRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Prefix:   cfg.Prefix,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := c.Config.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, c.Config.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
