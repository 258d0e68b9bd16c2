// Package shortest computes single-source shortest paths over a chunk graph.
//
// Paths runs Dijkstra's algorithm with a container/heap min-queue and lazy
// decrease-key: an improved distance pushes a new entry and stale entries
// are skipped when popped.
//
// Precondition: edge weights are non-negative. Negative weights are not
// detected and produce undefined distances.
package shortest

import (
	"container/heap"
	"math"
	"sort"

	"github.com/nvandessel/chunkgraph/internal/graph"
)

// Unreachable is the distance reported for nodes with no path from the source.
var Unreachable = math.Inf(1)

// Paths returns the minimum cumulative weight from start to every node of g
// following directed edges. Every node of g is present in the result;
// unreachable ones map to Unreachable. start always maps to 0, even when it
// does not appear in g.
func Paths(g *graph.Graph, start string) map[string]float64 {
	nodes := g.Nodes()
	dist := make(map[string]float64, len(nodes)+1)
	for _, n := range nodes {
		dist[n] = Unreachable
	}
	dist[start] = 0

	pq := make(distQueue, 0, len(nodes))
	heap.Push(&pq, &queueItem{node: start, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*queueItem)
		u, d := item.node, item.dist
		if d > dist[u] {
			continue // stale entry
		}
		for _, arc := range g.Neighbors(u) {
			nd := d + arc.Weight
			if nd < dist[arc.To] {
				dist[arc.To] = nd
				heap.Push(&pq, &queueItem{node: arc.To, dist: nd})
			}
		}
	}
	return dist
}

// Ranked is a node with its shortest-path distance from a source.
type Ranked struct {
	Node     string  `json:"node"`
	Distance float64 `json:"distance"`
}

// Ranking sorts a distance map ascending by distance, ties by node name,
// omitting exclude. Unreachable nodes sort last.
func Ranking(dist map[string]float64, exclude string) []Ranked {
	out := make([]Ranked, 0, len(dist))
	for n, d := range dist {
		if n == exclude {
			continue
		}
		out = append(out, Ranked{Node: n, Distance: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Node < out[j].Node
	})
	return out
}

// Nearest returns up to n reachable nodes closest to start, excluding start
// itself. n <= 0 means no limit.
func Nearest(dist map[string]float64, start string, n int) []Ranked {
	ranked := Ranking(dist, start)
	finite := ranked[:0]
	for _, r := range ranked {
		if math.IsInf(r.Distance, 1) {
			break
		}
		finite = append(finite, r)
	}
	if n > 0 && len(finite) > n {
		finite = finite[:n]
	}
	return finite
}

// queueItem is a node and a tentative distance held in the priority queue.
type queueItem struct {
	node string
	dist float64
}

// distQueue is a min-heap of *queueItem ordered by dist.
type distQueue []*queueItem

func (q distQueue) Len() int           { return len(q) }
func (q distQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q distQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *distQueue) Push(x any) { *q = append(*q, x.(*queueItem)) }

func (q *distQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
