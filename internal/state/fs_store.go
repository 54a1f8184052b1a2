package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/releasebot/internal/foundation"
)

// FSStore keeps each record in its own file:
//
//	<dir>/
//	  last_hash.txt
//	  last_pin.txt
//
// Writes go through a temporary file and a rename so a crash never leaves a
// half-written record behind.
type FSStore struct {
	dir string
}

// NewFSStore creates the directory if needed. An empty dir means the
// working directory.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", dir, err)
	}
	return &FSStore{dir: dir}, nil
}

// Dir returns the directory holding the record files.
func (fs *FSStore) Dir() string { return fs.dir }

func (fs *FSStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid record key %q", key)
	}
	return filepath.Join(fs.dir, key), nil
}

func (fs *FSStore) Get(_ context.Context, key string) (foundation.Option[string], error) {
	p, err := fs.path(key)
	if err != nil {
		return foundation.None[string](), err
	}
	// #nosec G304 - key is validated above and joined to the configured dir
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return foundation.None[string](), nil
		}
		return foundation.None[string](), fmt.Errorf("read %s: %w", p, err)
	}
	return foundation.Some(string(data)), nil
}

func (fs *FSStore) Put(_ context.Context, key, value string) error {
	p, err := fs.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(fs.dir, "."+key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("rename %s: %w", p, err)
	}
	return nil
}

func (fs *FSStore) Delete(_ context.Context, key string) error {
	p, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

// Close releases nothing; files are opened per call.
func (fs *FSStore) Close() error { return nil }
