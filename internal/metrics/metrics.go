// Package metrics derives connectivity and locality statistics from a chunk
// graph snapshot.
package metrics

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/nvandessel/chunkgraph/internal/graph"
	"github.com/nvandessel/chunkgraph/internal/shortest"
	"golang.org/x/sync/errgroup"
)

// Neighbourhood sizes averaged in NodeMetric.
var averageWindows = [3]int{5, 10, 20}

// NodeMetric describes how well connected a center node is.
//
// The AvgDist fields average the shortest-path distance to the nearest k
// reachable nodes, dividing by min(k, reachable count). They are NaN when
// nothing is reachable.
type NodeMetric struct {
	Node           string  `json:"node"`
	ConnectedNodes int     `json:"connected_nodes"`
	AvgDist5       float64 `json:"avg_dist_5"`
	AvgDist10      float64 `json:"avg_dist_10"`
	AvgDist20      float64 `json:"avg_dist_20"`
}

// ForNode computes the metric for a single center.
func ForNode(g *graph.Graph, center string) NodeMetric {
	ranked := shortest.Ranking(shortest.Paths(g, center), center)

	finite := make([]float64, 0, len(ranked))
	for _, r := range ranked {
		if math.IsInf(r.Distance, 1) {
			break
		}
		finite = append(finite, r.Distance)
	}

	var avg [3]float64
	for i, k := range averageWindows {
		avg[i] = meanOfFirst(finite, k)
	}

	return NodeMetric{
		Node:           center,
		ConnectedNodes: g.Degree(center),
		AvgDist5:       avg[0],
		AvgDist10:      avg[1],
		AvgDist20:      avg[2],
	}
}

// meanOfFirst averages the first min(k, len(sorted)) values; NaN when there
// are none.
func meanOfFirst(sorted []float64, k int) float64 {
	n := min(k, len(sorted))
	if n == 0 {
		return math.NaN()
	}
	var sum float64
	for _, d := range sorted[:n] {
		sum += d
	}
	return sum / float64(n)
}

// NodeMetrics computes ForNode for every center concurrently. The result is
// in the same order as centers. The only error is ctx's.
func NodeMetrics(ctx context.Context, g *graph.Graph, centers []string) ([]NodeMetric, error) {
	out := make([]NodeMetric, len(centers))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range centers {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = ForNode(g, c)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats summarizes the edge weights of a snapshot.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// EdgeStatistics returns the arithmetic mean and the upper median of all
// edge weights. The median is sorted[count/2], which for even counts is the
// higher of the two middle values rather than their average. Both are NaN
// for an empty graph.
func EdgeStatistics(g *graph.Graph) Stats {
	weights := g.Weights()
	if len(weights) == 0 {
		return Stats{Mean: math.NaN(), Median: math.NaN()}
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	sort.Float64s(weights)

	return Stats{
		Count:  len(weights),
		Mean:   sum / float64(len(weights)),
		Median: weights[len(weights)/2],
	}
}
