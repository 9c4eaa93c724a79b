package editor

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowbuilder/pkg/cache"
	"github.com/matzehuels/flowbuilder/pkg/clipboard"
	"github.com/matzehuels/flowbuilder/pkg/config"
	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/history"
	"github.com/matzehuels/flowbuilder/pkg/layout"
	"github.com/matzehuels/flowbuilder/pkg/registry"
)

// Options configure a Session. The zero value is usable: no registry
// (every connection allowed), default limits, no layout cache.
type Options struct {
	Registry         *registry.Registry
	ValidatorOptions []graph.ValidatorOption

	HistoryLimit int
	Debounce     time.Duration
	Clock        history.Clock // nil means the system clock

	PasteOffset graph.Position
	Layout      layout.Options

	// Cache stores layout results. Keyer builds their keys.
	Cache cache.Cache
	Keyer cache.Keyer

	// NewID generates node ids from a node type.
	NewID func(nodeType string) string

	Logger   *log.Logger
	Notifier Notifier

	Name        string
	Description string
}

// OptionsFromConfig maps configuration onto session options.
func OptionsFromConfig(cfg config.Config, reg *registry.Registry) Options {
	return Options{
		Registry:         reg,
		ValidatorOptions: cfg.ValidatorOptions(),
		HistoryLimit:     cfg.History.Limit,
		Debounce:         cfg.History.Debounce.Duration,
		PasteOffset:      cfg.PasteOffset(),
		Layout:           cfg.Layout,
	}
}

func (o Options) withDefaults() Options {
	if o.HistoryLimit < 2 {
		o.HistoryLimit = history.DefaultLimit
	}
	if o.Debounce <= 0 {
		o.Debounce = history.DefaultDebounce
	}
	if o.PasteOffset == (graph.Position{}) {
		o.PasteOffset = clipboard.DefaultOffset
	}
	if o.Layout == (layout.Options{}) {
		o.Layout = layout.DefaultOptions()
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.NewID == nil {
		o.NewID = clipboard.NodeID
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Notifier == nil {
		o.Notifier = LogNotifier{Logger: o.Logger}
	}
	return o
}
