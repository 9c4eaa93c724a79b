package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/observability"
)

// FileStore keeps one <id>.json payload file per draft in a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file store in dir, creating the directory. An
// empty dir means DefaultDir().
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, storageErr("create store dir for", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir returns the user's draft directory,
// $XDG_DATA_HOME/flowbuilder/drafts or ~/.local/share/flowbuilder/drafts.
func DefaultDir() (string, error) {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "flowbuilder", "drafts"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "flowbuilder", "drafts"), nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string { return filepath.Join(s.dir, id+".json") }

func (s *FileStore) Save(ctx context.Context, id string, p graph.Payload) (err error) {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	size := 0
	defer func() { observability.Store().OnSave(ctx, string(BackendFile), id, size, err) }()
	path := s.path(id)
	if err := graph.WritePayloadFile(p, path); err != nil {
		return storageErr("save", id, err)
	}
	if fi, err := os.Stat(path); err == nil {
		size = int(fi.Size())
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, id string) (p graph.Payload, err error) {
	if err := checkID(id); err != nil {
		return graph.Payload{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	defer func() { observability.Store().OnLoad(ctx, string(BackendFile), id, err) }()

	p, err = graph.ReadPayloadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return graph.Payload{}, notFound(id)
	}
	if err != nil {
		return graph.Payload{}, storageErr("load", id, err)
	}
	return p, nil
}

func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storageErr("list", s.dir, err)
	}
	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		p, err := graph.ReadPayloadFile(filepath.Join(s.dir, name))
		if err != nil {
			// Not a draft
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, newInfo(id, p, fi.ModTime()))
	}
	sortInfos(out)
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return storageErr("delete", id, err)
}

func (s *FileStore) Close() error { return nil }

// sortInfos orders drafts by update time, newest first, then by id.
func sortInfos(infos []Info) {
	slices.SortFunc(infos, func(a, b Info) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

var _ Store = (*FileStore)(nil)
