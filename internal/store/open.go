package store

import (
	"fmt"

	"go.uber.org/zap"
)

// Open returns a GraphStore for the named backend. path is ignored by the
// memory backend.
func Open(backend, path string, logger *zap.Logger) (GraphStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("store")

	switch backend {
	case BackendMemory:
		return NewInMemoryGraphStore(), nil
	case BackendSQLite:
		return NewSQLiteGraphStore(path, logger)
	case BackendBadger:
		return NewBadgerGraphStore(BadgerConfig{
			Path:       path,
			SyncWrites: true,
			Logger:     logger,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q (must be memory, sqlite, or badger)", backend)
	}
}
