// Package backup exports the chunk graph to a checksummed file and restores
// it into any GraphStore.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nvandessel/chunkgraph/internal/store"
)

const (
	filePrefix = "chunkgraph-backup-"
	fileSuffix = ".cgb"
)

// DefaultDir returns the backup directory inside a project's .chunkgraph.
func DefaultDir(projectRoot string) string {
	return filepath.Join(store.LocalPath(projectRoot), "backups")
}

// GeneratePath returns a backup file name in dir stamped to the millisecond.
func GeneratePath(dir string, now time.Time) string {
	return filepath.Join(dir, filePrefix+now.UTC().Format("20060102-150405.000")+fileSuffix)
}

// UniquePath is GeneratePath with a "_N" suffix added while the name is
// already taken. Suffixed names sort after the plain one.
func UniquePath(dir string, now time.Time) string {
	path := GeneratePath(dir, now)
	base := strings.TrimSuffix(path, fileSuffix)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = fmt.Sprintf("%s_%d%s", base, n, fileSuffix)
	}
}

// Backup captures every node and edge of s and writes them to path.
func Backup(ctx context.Context, s store.GraphStore, path string) (*Snapshot, error) {
	nodes, err := s.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	snap := &Snapshot{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC(),
		Nodes:     nodes,
		Edges:     edges,
	}
	if err := Write(path, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// RestoreMode selects how Restore treats existing data.
type RestoreMode int

const (
	// RestoreMerge upserts the backup over the current graph; backed-up
	// edge weights win.
	RestoreMerge RestoreMode = iota
	// RestoreReplace clears the store first.
	RestoreReplace
)

// RestoreResult counts what Restore wrote.
type RestoreResult struct {
	NodesRestored int `json:"nodes_restored"`
	EdgesRestored int `json:"edges_restored"`
}

// Restore reads the backup at path and writes it into s. The file is fully
// read and verified before anything is written.
func Restore(ctx context.Context, s store.GraphStore, path string, mode RestoreMode) (*RestoreResult, error) {
	snap, err := Read(path)
	if err != nil {
		return nil, err
	}

	if mode == RestoreReplace {
		if err := s.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear store: %w", err)
		}
	}

	res := &RestoreResult{}
	for _, n := range snap.Nodes {
		if err := s.UpsertNode(ctx, n); err != nil {
			return res, fmt.Errorf("failed to restore node %q: %w", n, err)
		}
		res.NodesRestored++
	}
	for _, e := range snap.Edges {
		if err := s.UpsertEdge(ctx, e.Source, e.Target, e.Weight); err != nil {
			return res, fmt.Errorf("failed to restore edge %s->%s: %w", e.Source, e.Target, err)
		}
		res.EdgesRestored++
	}
	return res, nil
}

// Rotate deletes all but the newest keep backups in dir.
func Rotate(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read backup directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) && strings.HasSuffix(e.Name(), fileSuffix) {
			names = append(names, e.Name())
		}
	}
	if len(names) <= keep {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to remove old backup: %w", err)
		}
	}
	return nil
}
