package traversal

import (
	"testing"

	"github.com/nvandessel/chunkgraph/internal/graph"
	"github.com/nvandessel/chunkgraph/internal/store"
	"github.com/stretchr/testify/assert"
)

func sym(pairs ...any) []store.Edge {
	var edges []store.Edge
	for i := 0; i < len(pairs); i += 3 {
		a, b, w := pairs[i].(string), pairs[i+1].(string), float64(pairs[i+2].(int))
		edges = append(edges,
			store.Edge{Source: a, Target: b, Weight: w},
			store.Edge{Source: b, Target: a, Weight: w})
	}
	return edges
}

func TestRelated_SingleEdge(t *testing.T) {
	g := graph.Build([]store.Edge{{Source: "A", Target: "B", Weight: 2}})

	assert.Equal(t, []Chunk{{Node: "B", Weight: 2}}, Related(g, "A", 1))
	assert.Empty(t, Related(g, "A", 0))
	assert.Empty(t, Related(g, "A", -1))
}

func TestRelated_DepthLimit(t *testing.T) {
	// A - B - C - D - E chain.
	g := graph.Build(sym("A", "B", 4, "B", "C", 3, "C", "D", 2, "D", "E", 1))

	tests := []struct {
		depth int
		want  []Chunk
	}{
		{1, []Chunk{{"B", 4}}},
		{2, []Chunk{{"C", 3}, {"B", 4}}},
		{3, []Chunk{{"D", 2}, {"C", 3}, {"B", 4}}},
		{DefaultMaxDepth, []Chunk{{"D", 2}, {"C", 3}, {"B", 4}}},
		{10, []Chunk{{"E", 1}, {"D", 2}, {"C", 3}, {"B", 4}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Related(g, "A", tt.depth), "depth %d", tt.depth)
	}
}

func TestRelated_WeightIsDiscoveryEdgeNotPathCost(t *testing.T) {
	// A -10- B -1- C: C is reported with 1, not 11.
	g := graph.Build(sym("A", "B", 10, "B", "C", 1))
	assert.Equal(t, []Chunk{{"C", 1}, {"B", 10}}, Related(g, "A", 2))
}

func TestRelated_FirstDiscoveryWins(t *testing.T) {
	// D is reachable from both B and C at the same level; B is expanded
	// first, so D keeps the B-D weight even though C-D is heavier.
	g := graph.Build(sym("A", "B", 1, "A", "C", 1, "B", "D", 2, "C", "D", 9))
	assert.Equal(t, []Chunk{{"B", 1}, {"C", 1}, {"D", 2}}, Related(g, "A", 2))
}

func TestRelated_StartNeverReported(t *testing.T) {
	g := graph.Build(sym("A", "B", 1, "A", "A", 5))
	got := Related(g, "A", 5)
	assert.Equal(t, []Chunk{{"B", 1}}, got)
}

func TestRelated_UnknownStart(t *testing.T) {
	g := graph.Build(sym("A", "B", 1))
	assert.Empty(t, Related(g, "missing", 3))
}

func TestRelated_DirectedEdgesOnly(t *testing.T) {
	g := graph.Build([]store.Edge{{Source: "B", Target: "A", Weight: 1}})
	assert.Empty(t, Related(g, "A", 3))
	assert.Equal(t, []Chunk{{"A", 1}}, Related(g, "B", 3))
}

func TestSort(t *testing.T) {
	got := Sort(map[string]float64{"b": 1, "a": 1, "c": 0.5})
	assert.Equal(t, []Chunk{{"c", 0.5}, {"a", 1}, {"b", 1}}, got)
	assert.Empty(t, Sort(nil))
}
