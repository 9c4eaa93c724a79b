// Package store persists graph drafts as persistence payloads.
//
// A draft is a [graph.Payload] saved under a caller-chosen id. Backends:
//
//   - file: one JSON file per draft, for the CLI
//   - redis: JSON values plus a sorted-set index by update time
//   - mongo: one document per draft holding the payload JSON
//
// Use [Open] to build a backend from configuration:
//
//	s, err := store.Open(ctx, store.Config{Backend: store.BackendFile, Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	err = s.Save(ctx, "onboarding", payload)
//
// Ids are validated with errors.ValidateStorageKey. Missing drafts yield
// an error with code NOT_FOUND that also matches [ErrNotFound].
package store

import (
	"context"
	"errors"
	"time"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/graph"
)

// ErrNotFound is wrapped by errors for drafts that do not exist.
var ErrNotFound = errors.New("draft not found")

// Info summarizes a stored draft.
type Info struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Nodes     int       `json:"nodes" bson:"nodes"`
	Edges     int       `json:"edges" bson:"edges"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the interface for draft storage backends.
type Store interface {
	// Save creates or replaces the draft id.
	Save(ctx context.Context, id string, p graph.Payload) error

	// Load returns the draft id, or an error matching ErrNotFound.
	Load(ctx context.Context, id string) (graph.Payload, error)

	// List returns all drafts, most recently updated first.
	List(ctx context.Context) ([]Info, error)

	// Delete removes the draft id. Deleting a missing draft is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the backend's resources.
	Close() error
}

func newInfo(id string, p graph.Payload, now time.Time) Info {
	return Info{ID: id, Name: p.Name, Nodes: len(p.Nodes), Edges: len(p.Edges), UpdatedAt: now.UTC()}
}

func notFound(id string) error {
	return ferrors.Wrap(ferrors.ErrCodeNotFound, ErrNotFound, "draft %q", id)
}

func checkID(id string) error { return ferrors.ValidateStorageKey(id) }

func storageErr(op, id string, err error) error {
	if err == nil {
		return nil
	}
	if ferrors.GetCode(err) != "" {
		return err
	}
	return ferrors.Wrap(ferrors.ErrCodeStorage, err, "%s draft %q", op, id)
}
