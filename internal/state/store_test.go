package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns every Store that runs without external services.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	mem, err := NewSQLiteStore(":memory:", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	return map[string]Store{
		"file":          fs,
		"sqlite":        sqlite,
		"sqlite-memory": mem,
		"memory":        NewMemoryStore(),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := store.Get(ctx, "last_hash.txt")
			require.NoError(t, err)
			assert.True(t, got.IsNone(), "missing record must be absent")

			require.NoError(t, store.Put(ctx, "last_hash.txt", ""))
			got, err = store.Get(ctx, "last_hash.txt")
			require.NoError(t, err)
			assert.True(t, got.IsSome(), "empty record must be distinguishable from absent")
			assert.Equal(t, "", got.Unwrap())

			require.NoError(t, store.Put(ctx, "last_hash.txt", "first"))
			require.NoError(t, store.Put(ctx, "last_hash.txt", "second\nline"))
			got, err = store.Get(ctx, "last_hash.txt")
			require.NoError(t, err)
			assert.Equal(t, "second\nline", got.Unwrap())

			require.NoError(t, store.Delete(ctx, "last_hash.txt"))
			require.NoError(t, store.Delete(ctx, "last_hash.txt"), "deleting a missing key is a no-op")
			got, err = store.Get(ctx, "last_hash.txt")
			require.NoError(t, err)
			assert.True(t, got.IsNone())
		})
	}
}

func TestFSStore_ReadsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPinKey), []byte("77"), 0o600))

	store, err := NewFSStore(dir)
	require.NoError(t, err)

	got, err := store.Get(context.Background(), DefaultPinKey)
	require.NoError(t, err)
	assert.Equal(t, "77", got.Unwrap())
}

func TestFSStore_RejectsPathKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../escape", "a/b", `a\b`} {
		err := store.Put(context.Background(), key, "x")
		assert.Error(t, err, "key %q", key)
	}
}

func TestFSStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "k", "v"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k", entries[0].Name())
}

func TestSQLiteStore_NamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	a, err := NewSQLiteStore(path, "factorio")
	require.NoError(t, err)
	require.NoError(t, a.Put(ctx, DefaultFingerprintKey, "a"))
	require.NoError(t, a.Close())

	b, err := NewSQLiteStore(path, "other")
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	got, err := b.Get(ctx, DefaultFingerprintKey)
	require.NoError(t, err)
	assert.True(t, got.IsNone())

	reopened, err := NewSQLiteStore(path, "factorio")
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	got, err = reopened.Get(ctx, DefaultFingerprintKey)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Unwrap())
}

func TestNATSKey(t *testing.T) {
	assert.Equal(t, "default.last_hash.txt", natsKey("default", "last_hash.txt"))
	assert.Equal(t, "last_pin.txt", natsKey("", "last_pin.txt"))
	assert.Equal(t, "team_a.pin_record", natsKey("team a", "pin record"))
	assert.Equal(t, "x", natsKey("", ".x."))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: BackendFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FSStore{}, s)

	s, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(ctx, Options{Backend: "redis"})
	require.Error(t, err)
}
