// Package storage selects and opens the configured kvstore backend.
package storage

import (
	"fmt"
	"os"

	"github.com/LeJamon/goAMM/internal/storage/kvstore"
	"github.com/LeJamon/goAMM/internal/storage/kvstore/bbolt"
	"github.com/LeJamon/goAMM/internal/storage/kvstore/leveldb"
	"github.com/LeJamon/goAMM/internal/storage/kvstore/pebble"
)

// Supported backend names.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendBBolt   = "bbolt"
	BackendLevelDB = "leveldb"
)

// NewManager returns a kvstore.Manager for the named backend rooted at path.
// The directory is created if needed; path is ignored for the memory backend.
func NewManager(backend, path string) (kvstore.Manager, error) {
	if backend == BackendMemory {
		return kvstore.NewMemoryManager(), nil
	}

	if path == "" {
		return nil, fmt.Errorf("storage path required for %s backend", backend)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", path, err)
	}

	switch backend {
	case BackendPebble:
		return pebble.NewManager(path), nil
	case BackendBBolt:
		return bbolt.NewManager(path), nil
	case BackendLevelDB:
		return leveldb.NewManager(path), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// OpenState opens the state database and wraps it in a read cache when
// cacheSize is positive.
func OpenState(m kvstore.Manager, cacheSize int) (kvstore.DB, error) {
	db, err := m.OpenDB("state")
	if err != nil {
		return nil, err
	}
	if cacheSize <= 0 {
		return db, nil
	}
	return kvstore.NewCachedDB(db, cacheSize)
}
