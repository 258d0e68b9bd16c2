package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) GraphStore

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		BackendMemory: func(t *testing.T) GraphStore {
			return NewInMemoryGraphStore()
		},
		BackendSQLite: func(t *testing.T) GraphStore {
			s, err := NewSQLiteGraphStore(filepath.Join(t.TempDir(), "graph.db"), nil)
			require.NoError(t, err)
			return s
		},
		BackendBadger: func(t *testing.T) GraphStore {
			s, err := NewBadgerGraphStore(BadgerConfig{InMemory: true})
			require.NoError(t, err)
			return s
		},
	}
}

func edgeMap(edges []Edge) map[[2]string]float64 {
	m := make(map[[2]string]float64, len(edges))
	for _, e := range edges {
		m[[2]string{e.Source, e.Target}] = e.Weight
	}
	return m
}

func TestGraphStoreContract(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer s.Close()

			edges, err := s.ListEdges(ctx)
			require.NoError(t, err)
			assert.Empty(t, edges)

			for _, n := range []string{"Alpha", "beta", "Alpha"} {
				require.NoError(t, s.UpsertNode(ctx, n))
			}
			nodes, err := s.ListNodes(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Alpha", "beta"}, nodes)

			require.NoError(t, s.UpsertEdge(ctx, "Alpha", "beta", 5))
			require.NoError(t, s.UpsertEdge(ctx, "beta", "Alpha", 5))
			require.NoError(t, s.UpsertEdge(ctx, "Alpha", "gamma", 2.5))
			// Last write wins on the same ordered pair.
			require.NoError(t, s.UpsertEdge(ctx, "Alpha", "beta", 9))

			edges, err = s.ListEdges(ctx)
			require.NoError(t, err)
			assert.Len(t, edges, 3)
			assert.Equal(t, map[[2]string]float64{
				{"Alpha", "beta"}:  9,
				{"beta", "Alpha"}:  5,
				{"Alpha", "gamma"}: 2.5,
			}, edgeMap(edges))

			found, err := s.SearchNodes(ctx, "AL")
			require.NoError(t, err)
			assert.Equal(t, []string{"Alpha"}, found)

			found, err = s.SearchNodes(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, []string{"Alpha", "beta", "gamma"}, found)

			require.NoError(t, s.Clear(ctx))
			edges, err = s.ListEdges(ctx)
			require.NoError(t, err)
			assert.Empty(t, edges)
			nodes, err = s.ListNodes(ctx)
			require.NoError(t, err)
			assert.Empty(t, nodes)
		})
	}
}

func TestSearchNodes_LiteralWildcards(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer s.Close()

			require.NoError(t, s.UpsertEdge(ctx, "100% done", "a_b", 1))
			require.NoError(t, s.UpsertEdge(ctx, "1000 done", "axb", 1))

			found, err := s.SearchNodes(ctx, "0%")
			require.NoError(t, err)
			assert.Equal(t, []string{"100% done"}, found)

			found, err = s.SearchNodes(ctx, "_")
			require.NoError(t, err)
			assert.Equal(t, []string{"a_b"}, found)
		})
	}
}

func TestInMemoryGraphStore_PreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryGraphStore()

	require.NoError(t, s.UpsertEdge(ctx, "z", "a", 1))
	require.NoError(t, s.UpsertEdge(ctx, "a", "z", 1))
	require.NoError(t, s.UpsertEdge(ctx, "z", "a", 4))

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Edge{
		{Source: "z", Target: "a", Weight: 4},
		{Source: "a", Target: "z", Weight: 1},
	}, edges)
}

func TestSQLiteGraphStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")

	s, err := NewSQLiteGraphStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.UpsertEdge(ctx, "A", "B", 3))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteGraphStore(path, nil)
	require.NoError(t, err)
	defer s2.Close()

	edges, err := s2.ListEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Edge{{Source: "A", Target: "B", Weight: 3}}, edges)
}

func TestStoreError(t *testing.T) {
	s := NewInMemoryGraphStore()
	require.NoError(t, s.Close())

	_, err := s.ListEdges(context.Background())
	var se *StoreError
	require.True(t, errors.As(err, &se), "expected *StoreError, got %T", err)
	assert.Equal(t, "list edges", se.Op)
	assert.ErrorIs(t, err, errClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewInMemoryGraphStore().UpsertEdge(ctx, "a", "b", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{BackendMemory, BackendSQLite, BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			s, err := Open(backend, DefaultPath(dir, backend), nil)
			require.NoError(t, err)
			require.NoError(t, s.Close())
		})
	}

	_, err := Open("postgres", "", nil)
	assert.Error(t, err)
}

func TestSearch_FoldsNonASCIICase(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer s.Close()

			require.NoError(t, s.UpsertEdge(ctx, "Écriture", "café", 1))
			require.NoError(t, s.UpsertEdge(ctx, "Straße", "Index", 1))

			found, err := s.SearchNodes(ctx, "é")
			require.NoError(t, err)
			assert.Equal(t, []string{"café", "Écriture"}, found)

			found, err = s.SearchNodes(ctx, "ÉCR")
			require.NoError(t, err)
			assert.Equal(t, []string{"Écriture"}, found)

			found, err = s.SearchNodes(ctx, "CAFÉ")
			require.NoError(t, err)
			assert.Equal(t, []string{"café"}, found)

			edges, err := s.SearchEdges(ctx, "STRASSE")
			require.NoError(t, err)
			assert.Empty(t, edges, "folding is lower-casing, not full case folding")
		})
	}
}

func TestSearchEdges(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer s.Close()

			require.NoError(t, s.UpsertEdge(ctx, "Intro", "Methods", 2))
			require.NoError(t, s.UpsertEdge(ctx, "Methods", "Intro", 2))
			require.NoError(t, s.UpsertEdge(ctx, "Results", "Appendix", 0.5))

			edges, err := s.SearchEdges(ctx, "intro")
			require.NoError(t, err)
			assert.Equal(t, map[[2]string]float64{
				{"Intro", "Methods"}: 2,
				{"Methods", "Intro"}: 2,
			}, edgeMap(edges))

			edges, err = s.SearchEdges(ctx, "pend")
			require.NoError(t, err)
			assert.Equal(t, []Edge{{Source: "Results", Target: "Appendix", Weight: 0.5}}, edges)

			edges, err = s.SearchEdges(ctx, "missing")
			require.NoError(t, err)
			assert.Empty(t, edges)
		})
	}
}

func TestRename_MergesCollisions(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer s.Close()

			for _, n := range []string{"Ch 1", "Ch 1 draft", "Ch 2 draft", "Notes", "Index"} {
				require.NoError(t, s.UpsertNode(ctx, n))
			}
			// Insertion order matches Badger key order, so "later" means the
			// same edge on every backend.
			require.NoError(t, s.UpsertEdge(ctx, "Ch 1", "Ch 2 draft", 7))
			require.NoError(t, s.UpsertEdge(ctx, "Ch 1 draft", "Ch 2 draft", 3))
			require.NoError(t, s.UpsertEdge(ctx, "Ch 2 draft", "Ch 1", 7))
			require.NoError(t, s.UpsertEdge(ctx, "Notes", "Index", 1))

			res, err := s.Rename(ctx, " draft", "")
			require.NoError(t, err)
			assert.Equal(t, RenameResult{Nodes: 2, Edges: 3, Merged: 1}, res)

			nodes, err := s.ListNodes(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Ch 1", "Ch 2", "Index", "Notes"}, nodes)

			edges, err := s.ListEdges(ctx)
			require.NoError(t, err)
			assert.Len(t, edges, 3)
			assert.Equal(t, map[[2]string]float64{
				{"Ch 1", "Ch 2"}:    3,
				{"Ch 2", "Ch 1"}:    7,
				{"Notes", "Index"}: 1,
			}, edgeMap(edges))

			res, err = s.Rename(ctx, "absent", "x")
			require.NoError(t, err)
			assert.False(t, res.Changed())
		})
	}
}

func TestRename_EmptyNameLeavesStoreUntouched(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer s.Close()

			require.NoError(t, s.UpsertNode(ctx, "draft"))
			require.NoError(t, s.UpsertNode(ctx, "final"))
			require.NoError(t, s.UpsertEdge(ctx, "final", "draft", 1))

			_, err := s.Rename(ctx, "draft", "")
			require.ErrorIs(t, err, ErrEmptyName)
			var se *StoreError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "rename", se.Op)

			edges, err := s.ListEdges(ctx)
			require.NoError(t, err)
			assert.Equal(t, []Edge{{Source: "final", Target: "draft", Weight: 1}}, edges)
		})
	}
}

func TestInMemoryGraphStore_RenameKeepsPositionOfFirstEdge(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryGraphStore()

	require.NoError(t, s.UpsertEdge(ctx, "A1", "B", 1))
	require.NoError(t, s.UpsertEdge(ctx, "C", "D", 5))
	require.NoError(t, s.UpsertEdge(ctx, "A2", "B", 2))

	_, err := s.Rename(ctx, "2", "1")
	require.NoError(t, err)

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Edge{
		{Source: "A1", Target: "B", Weight: 2},
		{Source: "C", Target: "D", Weight: 5},
	}, edges)

	// The index must follow the rewritten slice.
	require.NoError(t, s.UpsertEdge(ctx, "C", "D", 6))
	edges, err = s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6.0, edges[1].Weight)
}
