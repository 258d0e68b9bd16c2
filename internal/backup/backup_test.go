package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvandessel/chunkgraph/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createTestStore(t *testing.T) *store.SQLiteGraphStore {
	t.Helper()
	s, err := store.NewSQLiteGraphStore(filepath.Join(t.TempDir(), "graph.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addTestData(t *testing.T, s store.GraphStore) {
	t.Helper()
	ctx := context.Background()
	for _, name := range []string{"intro", "methods", "results"} {
		require.NoError(t, s.UpsertNode(ctx, name))
	}
	for _, e := range []store.Edge{
		{Source: "intro", Target: "methods", Weight: 2},
		{Source: "methods", Target: "intro", Weight: 2},
		{Source: "methods", Target: "results", Weight: 0.5},
	} {
		require.NoError(t, s.UpsertEdge(ctx, e.Source, e.Target, e.Weight))
	}
}

func backupTo(t *testing.T, name string) string {
	t.Helper()
	src := createTestStore(t)
	addTestData(t, src)
	path := filepath.Join(t.TempDir(), name)
	_, err := Backup(context.Background(), src, path)
	require.NoError(t, err)
	return path
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	src := createTestStore(t)
	addTestData(t, src)

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "test.cgb")

	snap, err := Backup(ctx, src, path)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, snap.Version)
	assert.Len(t, snap.Nodes, 3)
	assert.Len(t, snap.Edges, 3)

	dst := store.NewInMemoryGraphStore()
	result, err := Restore(ctx, dst, path, RestoreMerge)
	require.NoError(t, err)
	assert.Equal(t, &RestoreResult{NodesRestored: 3, EdgesRestored: 3}, result)

	edges, err := dst.ListEdges(ctx)
	require.NoError(t, err)
	want, err := src.ListEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, edges)
}

func TestRestore_MergeKeepsExistingEdges(t *testing.T) {
	path := backupTo(t, "merge.cgb")
	ctx := context.Background()

	dst := store.NewInMemoryGraphStore()
	require.NoError(t, dst.UpsertEdge(ctx, "intro", "methods", 9))
	require.NoError(t, dst.UpsertEdge(ctx, "other", "intro", 1))

	_, err := Restore(ctx, dst, path, RestoreMerge)
	require.NoError(t, err)

	edges, err := dst.ListEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 4)
	assert.Equal(t, 2.0, edges[0].Weight, "backed-up weight wins on intro->methods")
}

func TestRestore_ReplaceClearsFirst(t *testing.T) {
	path := backupTo(t, "replace.cgb")
	ctx := context.Background()

	dst := store.NewInMemoryGraphStore()
	require.NoError(t, dst.UpsertEdge(ctx, "other", "intro", 1))

	_, err := Restore(ctx, dst, path, RestoreReplace)
	require.NoError(t, err)

	edges, err := dst.ListEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 3)
}

func TestRead_TamperedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tampered.cgb")
	require.NoError(t, Write(path, &Snapshot{Version: FormatVersion, CreatedAt: time.Now(), Nodes: []string{"a"}}))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0600)
	require.NoError(t, err)
	_, err = f.Write([]byte("CORRUPTED"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Read(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	// A failed read must not touch the target store.
	ctx := context.Background()
	dst := store.NewInMemoryGraphStore()
	require.NoError(t, dst.UpsertEdge(ctx, "x", "y", 1))
	_, err = Restore(ctx, dst, path, RestoreReplace)
	require.Error(t, err)

	edges, err := dst.ListEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1, "store modified by failed restore")
}

func TestReadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.cgb")
	snap := &Snapshot{
		Version:   FormatVersion,
		CreatedAt: time.Now(),
		Nodes:     []string{"a", "b"},
		Edges:     []store.Edge{{Source: "a", Target: "b", Weight: 1}},
	}
	require.NoError(t, Write(path, snap))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, 2, h.NodeCount)
	assert.Equal(t, 1, h.EdgeCount)
	assert.NotEmpty(t, h.Checksum)
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		p := GeneratePath(dir, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0600))

	require.NoError(t, Rotate(dir, 3))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "3 backups plus notes.txt")
	assert.NoFileExists(t, GeneratePath(dir, base), "oldest backup was not removed")
	assert.FileExists(t, GeneratePath(dir, base.Add(4*time.Hour)), "newest backup was removed")
}

func TestRotate_MissingDir(t *testing.T) {
	assert.NoError(t, Rotate(filepath.Join(t.TempDir(), "none"), 3))
}

func TestGeneratePath(t *testing.T) {
	got := GeneratePath("/tmp/b", time.Date(2026, 2, 6, 12, 0, 0, 250*int(time.Millisecond), time.UTC))
	assert.Equal(t, filepath.Join("/tmp/b", "chunkgraph-backup-20260206-120000.250.cgb"), got)
}

func TestUniquePath_SameMillisecond(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)

	first := UniquePath(dir, now)
	assert.Equal(t, GeneratePath(dir, now), first)
	require.NoError(t, os.WriteFile(first, []byte("x"), 0600))

	second := UniquePath(dir, now)
	assert.Equal(t, filepath.Join(dir, "chunkgraph-backup-20260206-120000.000_1.cgb"), second)
	require.NoError(t, os.WriteFile(second, []byte("x"), 0600))

	third := UniquePath(dir, now)
	assert.Equal(t, filepath.Join(dir, "chunkgraph-backup-20260206-120000.000_2.cgb"), third)

	// Rotation still drops the plain name first.
	require.NoError(t, os.WriteFile(third, []byte("x"), 0600))
	require.NoError(t, Rotate(dir, 2))
	assert.NoFileExists(t, first)
	assert.FileExists(t, second)
	assert.FileExists(t, third)
}

func TestBackup_TwoInOneSecondKeepsBoth(t *testing.T) {
	src := createTestStore(t)
	addTestData(t, src)
	ctx := context.Background()
	dir := t.TempDir()
	now := time.Now()

	a := UniquePath(dir, now)
	_, err := Backup(ctx, src, a)
	require.NoError(t, err)
	b := UniquePath(dir, now)
	_, err = Backup(ctx, src, b)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
