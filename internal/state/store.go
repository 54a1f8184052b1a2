package state

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/releasebot/internal/foundation"
)

// Store is a minimal string key/value store.
type Store interface {
	// Get returns None when key has never been written or was deleted.
	Get(ctx context.Context, key string) (foundation.Option[string], error)
	// Put overwrites key unconditionally.
	Put(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendNATS   Backend = "nats"
	BackendMemory Backend = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend Backend
	// Dir holds record files for the file backend.
	Dir string
	// Namespace scopes records in shared backends (sqlite, nats).
	Namespace  string
	SQLitePath string
	NATSURL    string
	NATSBucket string
}

// Open creates the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFSStore(opts.Dir)
	case BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath, opts.Namespace)
	case BackendNATS:
		return NewNATSStore(ctx, NATSConfig{URL: opts.NATSURL, Bucket: opts.NATSBucket, Namespace: opts.Namespace})
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", opts.Backend)
	}
}
