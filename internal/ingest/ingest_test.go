package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/nvandessel/chunkgraph/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgeWeights(t *testing.T, s store.GraphStore) map[string]float64 {
	t.Helper()
	edges, err := s.ListEdges(context.Background())
	require.NoError(t, err)
	m := make(map[string]float64, len(edges))
	for _, e := range edges {
		m[e.Source+"->"+e.Target] = e.Weight
	}
	return m
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Line
		wantErr error
	}{
		{
			name: "two relations",
			text: "A: B, 5, C, 3",
			want: Line{Number: 1, Subject: "A", Relations: []Relation{{"B", 5}, {"C", 3}}},
		},
		{
			name: "whitespace and decimals",
			text: "  Chunk 1 :Chunk 2 ,0.25 ,  Chunk 3,1e1",
			want: Line{Number: 1, Subject: "Chunk 1", Relations: []Relation{{"Chunk 2", 0.25}, {"Chunk 3", 10}}},
		},
		{
			name: "split on first colon only",
			text: "A: B:part, 2",
			want: Line{Number: 1, Subject: "A", Relations: []Relation{{"B:part", 2}}},
		},
		{
			name: "self relation",
			text: "A: A, 1",
			want: Line{Number: 1, Subject: "A", Relations: []Relation{{"A", 1}}},
		},
		{name: "missing colon", text: "A B, 5", wantErr: ErrMissingColon},
		{name: "odd relation count", text: "A: B", wantErr: ErrDanglingEntry},
		{name: "dangling trailing entry", text: "A: B, 1, C", wantErr: ErrDanglingEntry},
		{name: "empty relation list", text: "A:", wantErr: ErrDanglingEntry},
		{name: "non numeric weight", text: "A: B, five", wantErr: ErrInvalidWeight},
		{name: "NaN weight", text: "A: B, NaN", wantErr: ErrInvalidWeight},
		{name: "infinite weight", text: "A: B, +Inf", wantErr: ErrInvalidWeight},
		{name: "empty subject", text: ": B, 1", wantErr: ErrEmptyChunkName},
		{name: "empty target", text: "A: , 1", wantErr: ErrEmptyChunkName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(1, tt.text)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var pe *ParseError
				require.True(t, errors.As(err, &pe))
				assert.Equal(t, 1, pe.Line)
				assert.Equal(t, tt.text, pe.Text)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_SkipsBlankLinesAndKeepsNumbers(t *testing.T) {
	lines, err := Parse("\nA: B, 1\r\n   \nC: D, 2\n")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Number)
	assert.Equal(t, 4, lines[1].Number)

	_, err = Parse("A: B, 1\nbroken\n")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "broken", pe.Text)
}

func TestIngest_WritesSymmetricEdges(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()
	m := NewMerger(s, nil)

	res, err := m.Ingest(ctx, "A: B, 5, C, 3")
	require.NoError(t, err)
	assert.Equal(t, Result{Lines: 1, Nodes: 3, EdgesWritten: 4}, res)

	assert.Equal(t, map[string]float64{
		"A->B": 5, "B->A": 5,
		"A->C": 3, "C->A": 3,
	}, edgeWeights(t, s))

	nodes, err := s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, nodes)
}

func TestIngest_LastWriteWinsAcrossRequests(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()
	m := NewMerger(s, nil)

	_, err := m.Ingest(ctx, "A: B, 5, C, 3")
	require.NoError(t, err)
	_, err = m.Ingest(ctx, "A: B, 9")
	require.NoError(t, err)

	w := edgeWeights(t, s)
	assert.Equal(t, 9.0, w["A->B"])
	assert.Equal(t, 9.0, w["B->A"])
	assert.Equal(t, 3.0, w["A->C"])
}

func TestIngest_DeduplicatesMirrorsWithinBatch(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()
	m := NewMerger(s, nil)

	// The second line restates the pair in the other direction; only its
	// forward edge is written, so A->B keeps the first line's weight.
	res, err := m.Ingest(ctx, "A: B, 5\nB: A, 7")
	require.NoError(t, err)
	assert.Equal(t, 3, res.EdgesWritten)
	assert.Equal(t, 1, res.MirrorsSkipped)

	w := edgeWeights(t, s)
	assert.Equal(t, 5.0, w["A->B"])
	assert.Equal(t, 7.0, w["B->A"])

	// Same direction repeated within a batch: forward is rewritten, the
	// mirror is not.
	_, err = m.Ingest(ctx, "C: D, 1\nC: D, 2")
	require.NoError(t, err)
	w = edgeWeights(t, s)
	assert.Equal(t, 2.0, w["C->D"])
	assert.Equal(t, 1.0, w["D->C"])
}

func TestIngest_MalformedLineAbortsWithoutRollback(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()
	m := NewMerger(s, nil)

	res, err := m.Ingest(ctx, "X: Y, 1\nA: B\nC: D, 2")
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %v", err)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "A: B", pe.Text)
	assert.ErrorIs(t, err, ErrDanglingEntry)
	assert.Equal(t, 1, res.Lines)

	assert.Equal(t, map[string]float64{"X->Y": 1, "Y->X": 1}, edgeWeights(t, s))
}

func TestIngest_OnlyMalformedLineWritesNothing(t *testing.T) {
	s := store.NewInMemoryGraphStore()
	_, err := NewMerger(s, nil).Ingest(context.Background(), "A: B")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Empty(t, edgeWeights(t, s))
}

func TestIngest_SelfRelation(t *testing.T) {
	s := store.NewInMemoryGraphStore()
	_, err := NewMerger(s, nil).Ingest(context.Background(), "A: A, 4")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A->A": 4}, edgeWeights(t, s))
}

// failingStore fails every edge write after the first `allow` writes.
type failingStore struct {
	*store.InMemoryGraphStore
	allow int
}

func (f *failingStore) UpsertEdge(ctx context.Context, source, target string, weight float64) error {
	if f.allow == 0 {
		return &store.StoreError{Op: "upsert edge", Err: errors.New("disk full")}
	}
	f.allow--
	return f.InMemoryGraphStore.UpsertEdge(ctx, source, target, weight)
}

func TestIngest_StoreErrorSurfaces(t *testing.T) {
	fs := &failingStore{InMemoryGraphStore: store.NewInMemoryGraphStore(), allow: 2}
	res, err := NewMerger(fs, nil).Ingest(context.Background(), "A: B, 1\nC: D, 2")

	var se *store.StoreError
	require.True(t, errors.As(err, &se), "expected *StoreError, got %v", err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, res.Lines)
	assert.Equal(t, 2, res.EdgesWritten)
}
