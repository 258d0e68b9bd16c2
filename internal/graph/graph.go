// Package graph holds the read-only, in-memory view of a chunk graph built
// from one store snapshot. A Graph is rebuilt for every query and never
// mutated afterwards, so engines may share it freely across goroutines.
package graph

import (
	"sort"

	"github.com/nvandessel/chunkgraph/internal/store"
)

// Arc is an outgoing edge as seen from its source node.
type Arc struct {
	To     string
	Weight float64
}

// Graph is an immutable adjacency view of a snapshot.
type Graph struct {
	adj   map[string][]Arc
	nodes []string
	edges []store.Edge
}

// Build constructs a Graph from the store's edge snapshot. Adjacency lists
// keep snapshot order. If the snapshot repeats an ordered pair, the later
// weight wins and the arc keeps its first position.
func Build(edges []store.Edge) *Graph {
	g := &Graph{adj: make(map[string][]Arc)}

	seen := make(map[string]struct{})
	pos := make(map[[2]string]int)
	addNode := func(n string) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			g.nodes = append(g.nodes, n)
		}
	}

	for _, e := range edges {
		addNode(e.Source)
		addNode(e.Target)

		k := [2]string{e.Source, e.Target}
		if i, ok := pos[k]; ok {
			g.edges[i].Weight = e.Weight
			arcs := g.adj[e.Source]
			for j := range arcs {
				if arcs[j].To == e.Target {
					arcs[j].Weight = e.Weight
					break
				}
			}
			continue
		}
		pos[k] = len(g.edges)
		g.edges = append(g.edges, e)
		g.adj[e.Source] = append(g.adj[e.Source], Arc{To: e.Target, Weight: e.Weight})
	}

	sort.Strings(g.nodes)
	return g
}

// Neighbors returns the outgoing arcs of n in snapshot order. The returned
// slice must not be modified.
func (g *Graph) Neighbors(n string) []Arc {
	return g.adj[n]
}

// Nodes returns every node that appears in an edge, sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// HasNode reports whether n appears in any edge.
func (g *Graph) HasNode(n string) bool {
	i := sort.SearchStrings(g.nodes, n)
	return i < len(g.nodes) && g.nodes[i] == n
}

// Edges returns a copy of the collapsed edge list in snapshot order.
func (g *Graph) Edges() []store.Edge {
	out := make([]store.Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Weights returns every edge weight in snapshot order.
func (g *Graph) Weights() []float64 {
	out := make([]float64, len(g.edges))
	for i, e := range g.edges {
		out[i] = e.Weight
	}
	return out
}

// Degree counts the distinct nodes joined to n by an edge in either
// direction, i.e. incident unordered pairs. A self-loop counts once.
func (g *Graph) Degree(n string) int {
	others := make(map[string]struct{})
	for _, e := range g.edges {
		switch {
		case e.Source == n:
			others[e.Target] = struct{}{}
		case e.Target == n:
			others[e.Source] = struct{}{}
		}
	}
	return len(others)
}

// Subgraph returns the edges whose endpoints are both in keep, in snapshot
// order.
func (g *Graph) Subgraph(keep []string) []store.Edge {
	set := make(map[string]struct{}, len(keep))
	for _, n := range keep {
		set[n] = struct{}{}
	}
	var out []store.Edge
	for _, e := range g.edges {
		_, okS := set[e.Source]
		_, okT := set[e.Target]
		if okS && okT {
			out = append(out, e)
		}
	}
	return out
}
