package store

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
)

// Backend names a storage backend.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
	BackendMongo Backend = "mongo"
)

// Config selects and configures a backend. Fields that do not apply to
// the chosen backend are ignored.
type Config struct {
	Backend Backend `toml:"backend" json:"backend"`

	// file
	Dir string `toml:"dir" json:"dir,omitempty"`

	// redis
	Addr     string `toml:"addr" json:"addr,omitempty"`
	Password string `toml:"password" json:"-"`
	DB       int    `toml:"db" json:"db,omitempty"`
	Prefix   string `toml:"prefix" json:"prefix,omitempty"`

	// mongo
	URI        string `toml:"uri" json:"uri,omitempty"`
	Database   string `toml:"database" json:"database,omitempty"`
	Collection string `toml:"collection" json:"collection,omitempty"`
}

// Validate checks that the backend is known and has its address.
func (c Config) Validate() error {
	switch c.backend() {
	case BackendFile:
		return nil
	case BackendRedis:
		if c.Addr == "" {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "store: redis backend needs addr")
		}
		return nil
	case BackendMongo:
		if c.URI == "" {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "store: mongo backend needs uri")
		}
		return nil
	default:
		return ferrors.New(ferrors.ErrCodeUnsupported, "store: unknown backend %q (want file, redis or mongo)", c.Backend)
	}
}

func (c Config) backend() Backend {
	if c.Backend == "" {
		return BackendFile
	}
	return Backend(strings.ToLower(string(c.Backend)))
}

// Open builds the configured backend. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		s   Store
		err error
	)
	switch cfg.backend() {
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg)
	default:
		s, err = NewFileStore(cfg.Dir)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// String describes the backend and its target, without credentials.
func (c Config) String() string {
	switch c.backend() {
	case BackendRedis:
		return fmt.Sprintf("redis://%s/%d", c.Addr, c.DB)
	case BackendMongo:
		return fmt.Sprintf("mongo %s.%s", cmp.Or(c.Database, DefaultMongoDatabase), cmp.Or(c.Collection, DefaultMongoCollection))
	default:
		return "file " + c.Dir
	}
}
