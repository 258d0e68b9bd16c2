package graph

import (
	"testing"

	"github.com/nvandessel/chunkgraph/internal/store"
	"github.com/stretchr/testify/assert"
)

func symmetric(a, b string, w float64) []store.Edge {
	return []store.Edge{{Source: a, Target: b, Weight: w}, {Source: b, Target: a, Weight: w}}
}

func TestBuild(t *testing.T) {
	var edges []store.Edge
	edges = append(edges, symmetric("A", "B", 5)...)
	edges = append(edges, symmetric("A", "C", 3)...)

	g := Build(edges)

	assert.Equal(t, []string{"A", "B", "C"}, g.Nodes())
	assert.Equal(t, []Arc{{To: "B", Weight: 5}, {To: "C", Weight: 3}}, g.Neighbors("A"))
	assert.Equal(t, []Arc{{To: "A", Weight: 5}}, g.Neighbors("B"))
	assert.Nil(t, g.Neighbors("Z"))
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, []float64{5, 5, 3, 3}, g.Weights())
	assert.True(t, g.HasNode("C"))
	assert.False(t, g.HasNode("Z"))
}

func TestBuild_CollapsesRepeatedPairs(t *testing.T) {
	g := Build([]store.Edge{
		{Source: "A", Target: "B", Weight: 1},
		{Source: "A", Target: "C", Weight: 2},
		{Source: "A", Target: "B", Weight: 7},
	})

	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []Arc{{To: "B", Weight: 7}, {To: "C", Weight: 2}}, g.Neighbors("A"))
	assert.Equal(t, []float64{7, 2}, g.Weights())
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil)
	assert.Empty(t, g.Nodes())
	assert.Zero(t, g.EdgeCount())
	assert.Empty(t, g.Weights())
	assert.False(t, g.HasNode(""))
}

func TestDegree(t *testing.T) {
	var edges []store.Edge
	edges = append(edges, symmetric("A", "B", 1)...)
	edges = append(edges, symmetric("A", "C", 1)...)
	edges = append(edges, store.Edge{Source: "D", Target: "A", Weight: 1}) // one direction only
	edges = append(edges, store.Edge{Source: "S", Target: "S", Weight: 1})

	g := Build(edges)

	tests := []struct {
		node string
		want int
	}{
		{"A", 3},
		{"B", 1},
		{"D", 1},
		{"S", 1},
		{"missing", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Degree(tt.node), "Degree(%q)", tt.node)
	}
}

func TestSubgraph(t *testing.T) {
	var edges []store.Edge
	edges = append(edges, symmetric("A", "B", 1)...)
	edges = append(edges, symmetric("B", "C", 2)...)

	g := Build(edges)
	assert.Equal(t, symmetric("A", "B", 1), g.Subgraph([]string{"A", "B"}))
	assert.Empty(t, g.Subgraph([]string{"A", "C"}))
}

func TestAccessorsReturnCopies(t *testing.T) {
	g := Build(symmetric("A", "B", 1))

	nodes := g.Nodes()
	nodes[0] = "mutated"
	edges := g.Edges()
	edges[0].Weight = 99

	assert.Equal(t, []string{"A", "B"}, g.Nodes())
	assert.Equal(t, 1.0, g.Edges()[0].Weight)
}
