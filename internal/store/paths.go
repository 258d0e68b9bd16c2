package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the per-project directory holding the graph database and config.
const DirName = ".chunkgraph"

// LocalPath returns the path to the .chunkgraph directory for the given
// project root.
func LocalPath(projectRoot string) string {
	return filepath.Join(projectRoot, DirName)
}

// DefaultPath returns the default database location for a backend inside the
// .chunkgraph directory. The memory backend has no path.
func DefaultPath(projectRoot, backend string) string {
	switch backend {
	case BackendSQLite:
		return filepath.Join(LocalPath(projectRoot), "graph.db")
	case BackendBadger:
		return filepath.Join(LocalPath(projectRoot), "badger")
	default:
		return ""
	}
}

// EnsureDir creates the .chunkgraph directory under projectRoot if it doesn't
// exist and returns its path.
func EnsureDir(projectRoot string) (string, error) {
	dir := LocalPath(projectRoot)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", DirName, err)
	}
	return dir, nil
}

// gitignore is the default .gitignore content for .chunkgraph directories.
const gitignore = `# Graph databases (regenerate by re-ingesting source text)
graph.db
graph.db-shm
graph.db-wal
badger/
backups/

# Prometheus textfile output
*.prom
`

// EnsureGitignore creates a .gitignore in the given .chunkgraph directory if
// one does not already exist.
func EnsureGitignore(dir string) error {
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil // already exists, respect user customizations
	}
	if err := os.WriteFile(path, []byte(gitignore), 0600); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	return nil
}
