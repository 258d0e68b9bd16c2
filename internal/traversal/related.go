// Package traversal discovers chunks related to a start chunk within a
// bounded number of hops.
package traversal

import (
	"math"
	"sort"

	"github.com/nvandessel/chunkgraph/internal/graph"
)

// DefaultMaxDepth is the hop limit used when callers do not choose one.
const DefaultMaxDepth = 3

// Chunk is a related chunk annotated with its discovery weight.
type Chunk struct {
	Node   string  `json:"node"`
	Weight float64 `json:"weight"`
}

type hop struct {
	node   string
	weight float64
}

// Related expands breadth-first from start, one hop level at a time, and
// returns every chunk reached within maxDepth hops except start itself.
//
// The visited set starts empty and a chunk is enqueued only the first time it
// is discovered, at its shallowest level. Start may therefore be rediscovered
// through a neighbour, but it is never reported.
//
// The reported weight is max(0, weight of the single edge the chunk was
// discovered through). It is not a cumulative path cost; callers wanting
// path costs should use the shortest package.
//
// The result is sorted by ascending weight, ties broken by chunk name.
// maxDepth <= 0 yields an empty result.
func Related(g *graph.Graph, start string, maxDepth int) []Chunk {
	related := make(map[string]float64)
	visited := make(map[string]struct{})
	frontier := []hop{{node: start}}

	for depth := 0; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []hop
		for _, h := range frontier {
			if h.node != start {
				related[h.node] = math.Max(related[h.node], h.weight)
			}
			if depth == maxDepth {
				continue
			}
			for _, arc := range g.Neighbors(h.node) {
				if _, ok := visited[arc.To]; ok {
					continue
				}
				visited[arc.To] = struct{}{}
				next = append(next, hop{node: arc.To, weight: arc.Weight})
			}
		}
		frontier = next
	}

	return Sort(related)
}

// Sort orders a node→weight mapping by ascending weight, then by name.
func Sort(related map[string]float64) []Chunk {
	out := make([]Chunk, 0, len(related))
	for n, w := range related {
		out = append(out, Chunk{Node: n, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].Node < out[j].Node
	})
	return out
}
