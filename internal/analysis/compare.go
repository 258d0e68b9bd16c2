package analysis

import (
	"context"
	"sort"

	"github.com/nvandessel/chunkgraph/internal/metrics"
	"github.com/nvandessel/chunkgraph/internal/shortest"
	"github.com/nvandessel/chunkgraph/internal/store"
	"go.uber.org/zap"
)

// Comparison is a side-by-side view of a fixed number of center chunks.
type Comparison struct {
	Metrics []metrics.NodeMetric `json:"metrics"`
	// Nearest lists up to CompareNearest closest chunks per center.
	Nearest map[string][]shortest.Ranked `json:"nearest"`
	// Nodes is the sorted union of centers and their nearest chunks.
	Nodes []string `json:"nodes"`
	// Edges is the snapshot restricted to Nodes.
	Edges []store.Edge `json:"edges"`
}

// Compare requires exactly Query().CompareCount distinct centers, each
// present in the current graph.
func (s *Service) Compare(ctx context.Context, centers []string) (Comparison, error) {
	return observe(s, OpCompare, []zap.Field{zap.Strings("centers", centers)}, func() (Comparison, error) {
		names, err := cleanCenters(centers)
		if err != nil {
			return Comparison{}, err
		}
		if len(names) != s.query.CompareCount {
			return Comparison{}, invalid("centers", "need exactly %d chunks, got %d", s.query.CompareCount, len(names))
		}
		seen := make(map[string]struct{}, len(names))
		for _, n := range names {
			if _, dup := seen[n]; dup {
				return Comparison{}, invalid("centers", "%q listed twice", n)
			}
			seen[n] = struct{}{}
		}

		g, err := s.snapshot(ctx)
		if err != nil {
			return Comparison{}, err
		}
		for _, n := range names {
			if !g.HasNode(n) {
				return Comparison{}, invalid("centers", "chunk %q not found", n)
			}
		}

		ms, err := metrics.NodeMetrics(ctx, g, names)
		if err != nil {
			return Comparison{}, err
		}

		out := Comparison{
			Metrics: ms,
			Nearest: make(map[string][]shortest.Ranked, len(names)),
		}
		for _, n := range names {
			near := shortest.Nearest(shortest.Paths(g, n), n, CompareNearest)
			out.Nearest[n] = near
			for _, r := range near {
				seen[r.Node] = struct{}{}
			}
		}

		out.Nodes = make([]string, 0, len(seen))
		for n := range seen {
			out.Nodes = append(out.Nodes, n)
		}
		sort.Strings(out.Nodes)
		out.Edges = g.Subgraph(out.Nodes)
		return out, nil
	})
}
